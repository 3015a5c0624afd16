package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"pactum/agreement"
	"pactum/auth"
)

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerAuth(api huma.API, svc Authenticator) {
	type registerInput struct {
		Body auth.RegisterRequest
	}
	type registerOutput struct {
		Body userDTO
	}
	huma.Register(api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/auth/register",
		Summary:       "Register a user account",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *registerInput) (*registerOutput, error) {
		user, err := svc.Register(ctx, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return &registerOutput{Body: toUserDTO(*user)}, nil
	})

	type loginInput struct {
		Body auth.LoginRequest
	}
	type loginOutput struct {
		Body struct {
			Token string  `json:"token"`
			User  userDTO `json:"user"`
		}
	}
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Exchange credentials for a bearer token",
	}, func(ctx context.Context, input *loginInput) (*loginOutput, error) {
		result, err := svc.Login(ctx, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		out := &loginOutput{}
		out.Body.Token = result.Token
		out.Body.User = toUserDTO(result.User)
		return out, nil
	})
}

func registerAgreements(api huma.API, store AgreementStore, status StatusChanger, terminations Terminator) {
	type listInput struct {
		Page     int    `query:"page" minimum:"0"`
		PageSize int    `query:"page_size" minimum:"0" maximum:"100"`
		Status   string `query:"status" enum:"draft,active,terminated,"`
	}
	type listOutput struct {
		Body struct {
			Agreements []agreementDTO `json:"agreements"`
			Total      int            `json:"total"`
		}
	}
	huma.Register(api, huma.Operation{
		OperationID: "list-agreements",
		Method:      http.MethodGet,
		Path:        "/agreements",
		Summary:     "List the caller's agreements",
	}, func(ctx context.Context, input *listInput) (*listOutput, error) {
		p, authErr := requirePrincipal(ctx)
		if authErr != nil {
			return nil, authErr
		}
		records, total, err := store.List(ctx, agreement.ListFilters{
			CreatorUserID: p.UserID,
			Status:        agreement.Status(input.Status),
			Page:          input.Page,
			PageSize:      input.PageSize,
		})
		if err != nil {
			return nil, handleError(err)
		}
		out := &listOutput{}
		out.Body.Agreements = toAgreementDTOs(records)
		out.Body.Total = total
		return out, nil
	})

	type createInput struct {
		Body struct {
			Name           string `json:"name"`
			CounterpartyID string `json:"counterparty_id" format:"uuid"`
			StartDate      string `json:"start_date" example:"2026-09-01"`
		}
	}
	type agreementOutput struct {
		Body agreementDTO
	}
	huma.Register(api, huma.Operation{
		OperationID:   "create-agreement",
		Method:        http.MethodPost,
		Path:          "/agreements",
		Summary:       "Create a draft agreement",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *createInput) (*agreementOutput, error) {
		p, authErr := requireManager(ctx)
		if authErr != nil {
			return nil, authErr
		}
		startDate, err := time.Parse("2006-01-02", input.Body.StartDate)
		if err != nil {
			return nil, handleError(fmt.Errorf("%w: start date must be YYYY-MM-DD", agreement.ErrValidation))
		}
		rec, err := store.Create(ctx, p.UserID, agreement.CreateParams{
			Name:           input.Body.Name,
			CounterpartyID: input.Body.CounterpartyID,
			StartDate:      startDate,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &agreementOutput{Body: toAgreementDTO(rec)}, nil
	})

	type idInput struct {
		ID string `path:"id" format:"uuid"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "get-agreement",
		Method:      http.MethodGet,
		Path:        "/agreements/{id}",
		Summary:     "Fetch one agreement",
	}, func(ctx context.Context, input *idInput) (*agreementOutput, error) {
		p, authErr := requirePrincipal(ctx)
		if authErr != nil {
			return nil, authErr
		}
		rec, err := store.Get(ctx, p.UserID, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &agreementOutput{Body: toAgreementDTO(rec)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "activate-agreement",
		Method:        http.MethodPost,
		Path:          "/agreements/{id}/activate",
		Summary:       "Activate a draft agreement",
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *idInput) (*struct{}, error) {
		p, authErr := requireManager(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := status.Activate(ctx, input.ID, p.UserID); err != nil {
			return nil, handleError(err)
		}
		return nil, nil
	})

	type terminateInput struct {
		ID   string `path:"id" format:"uuid"`
		Body struct {
			Reason         string `json:"reason"`
			IdempotencyKey string `json:"idempotency_key,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{
		OperationID:   "terminate-agreement",
		Method:        http.MethodPost,
		Path:          "/agreements/{id}/terminate",
		Summary:       "Terminate an active agreement",
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *terminateInput) (*struct{}, error) {
		p, authErr := requireManager(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if key := input.Body.IdempotencyKey; key != "" {
			err := terminations.HandleTerminationWebhook(ctx, agreement.TerminationRequest{
				AgreementID:    input.ID,
				IdempotencyKey: key,
				ActorID:        &p.UserID,
				Reason:         input.Body.Reason,
			})
			if err != nil {
				return nil, handleError(err)
			}
			return nil, nil
		}
		if err := status.Terminate(ctx, input.ID, p.UserID, input.Body.Reason); err != nil {
			return nil, handleError(err)
		}
		return nil, nil
	})
}

func registerCounterparties(api huma.API, reader CounterpartyReader) {
	type listInput struct {
		Limit int `query:"limit" minimum:"0" maximum:"100"`
	}
	type counterpartyListOutput struct {
		Body struct {
			Counterparties []counterpartyDTO `json:"counterparties"`
		}
	}
	huma.Register(api, huma.Operation{
		OperationID: "list-counterparties",
		Method:      http.MethodGet,
		Path:        "/counterparties",
		Summary:     "List counterparties",
	}, func(ctx context.Context, input *listInput) (*counterpartyListOutput, error) {
		if _, authErr := requirePrincipal(ctx); authErr != nil {
			return nil, authErr
		}
		profiles, err := reader.List(ctx, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		out := &counterpartyListOutput{}
		out.Body.Counterparties = make([]counterpartyDTO, 0, len(profiles))
		for _, p := range profiles {
			out.Body.Counterparties = append(out.Body.Counterparties, toCounterpartyDTO(p))
		}
		return out, nil
	})

	type idInput struct {
		ID string `path:"id" format:"uuid"`
	}
	type getOutput struct {
		Body counterpartyDTO
	}
	huma.Register(api, huma.Operation{
		OperationID: "get-counterparty",
		Method:      http.MethodGet,
		Path:        "/counterparties/{id}",
		Summary:     "Fetch one counterparty",
	}, func(ctx context.Context, input *idInput) (*getOutput, error) {
		if _, authErr := requirePrincipal(ctx); authErr != nil {
			return nil, authErr
		}
		profile, err := reader.GetByID(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &getOutput{Body: toCounterpartyDTO(profile)}, nil
	})
}
