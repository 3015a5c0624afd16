package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"pactum/auth"
)

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	UserID string
	Role   auth.Role
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func requirePrincipal(ctx context.Context) (Principal, huma.StatusError) {
	if p, ok := principalFromContext(ctx); ok && p.UserID != "" {
		return p, nil
	}
	return Principal{}, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
}

func requireManager(ctx context.Context) (Principal, huma.StatusError) {
	p, authErr := requirePrincipal(ctx)
	if authErr != nil {
		return Principal{}, authErr
	}
	if !p.Role.CanManageAgreements() {
		return Principal{}, newAPIError(http.StatusForbidden, "forbidden", "role cannot manage agreements", map[string]any{"role": string(p.Role)})
	}
	return p, nil
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func newAuthMiddleware(basePath string, verifier Authenticator) func(http.Handler) http.Handler {
	public := map[string]bool{
		path.Join(basePath, "healthz"):       true,
		path.Join(basePath, "auth/register"): true,
		path.Join(basePath, "auth/login"):    true,
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !strings.HasPrefix(req.URL.Path, basePath) || public[req.URL.Path] {
				next.ServeHTTP(w, req)
				return
			}

			token, ok := bearerToken(req.Header.Get("Authorization"))
			if !ok {
				writeUnauthorized(w, "bearer token required")
				return
			}
			userID, role, err := verifier.VerifyToken(token)
			if err != nil {
				writeUnauthorized(w, "invalid token")
				return
			}

			ctx := withPrincipal(req.Context(), Principal{UserID: userID, Role: role})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": apiErrorBody{Code: "unauthorized", Message: message},
	})
}
