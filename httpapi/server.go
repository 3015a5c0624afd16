package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"pactum/agreement"
	"pactum/auth"
	"pactum/counterparty"
)

// Authenticator is the slice of auth.Service the API layer needs.
type Authenticator interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.User, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	VerifyToken(token string) (string, auth.Role, error)
}

// AgreementStore is the persisted-agreement surface exposed over HTTP.
type AgreementStore interface {
	Create(ctx context.Context, userID string, params agreement.CreateParams) (agreement.Record, error)
	Get(ctx context.Context, userID, agreementID string) (agreement.Record, error)
	List(ctx context.Context, filters agreement.ListFilters) ([]agreement.Record, int, error)
}

// StatusChanger drives lifecycle transitions.
type StatusChanger interface {
	Activate(ctx context.Context, agreementID, actorID string) error
	Terminate(ctx context.Context, agreementID, actorID, reason string) error
}

// Terminator accepts idempotent termination notices.
type Terminator interface {
	HandleTerminationWebhook(ctx context.Context, req agreement.TerminationRequest) error
}

// CounterpartyReader reads counterparty profiles.
type CounterpartyReader interface {
	GetByID(ctx context.Context, id string) (counterparty.Profile, error)
	List(ctx context.Context, limit int) ([]counterparty.Profile, error)
}

// Config for the HTTP API handler.
type Config struct {
	Auth           Authenticator
	Agreements     AgreementStore
	Status         StatusChanger
	Terminations   Terminator
	Counterparties CounterpartyReader
	BasePath       string
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"rule_violation"`
	Message string         `json:"message" example:"only Draft agreements can be activated"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// New returns an HTTP handler exposing the Pactum API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}
		return newAPIError(status, "", msg, nil)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth))

	hcfg := huma.DefaultConfig("Pactum API", "0.1.0")
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerAuth(group, cfg.Auth)
	registerAgreements(group, cfg.Agreements, cfg.Status, cfg.Terminations)
	registerCounterparties(group, cfg.Counterparties)

	return router, nil
}

// handleError maps domain errors onto the envelope. Validation failures are
// client mistakes, rule violations are conflicts with current state.
func handleError(err error) huma.StatusError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, agreement.ErrValidation):
		return newAPIError(http.StatusBadRequest, "validation_failed", err.Error(), nil)
	case errors.Is(err, agreement.ErrRuleViolation):
		return newAPIError(http.StatusConflict, "rule_violation", err.Error(), nil)
	case errors.Is(err, agreement.ErrAgreementNotFound),
		errors.Is(err, counterparty.ErrNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return newAPIError(http.StatusUnauthorized, "invalid_credentials", err.Error(), nil)
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrDuplicateEmail):
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}
