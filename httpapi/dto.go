package httpapi

import (
	"time"

	"pactum/agreement"
	"pactum/auth"
	"pactum/counterparty"
)

type userDTO struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func toUserDTO(u auth.User) userDTO {
	return userDTO{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     string(u.Role),
	}
}

type agreementDTO struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	CounterpartyID  string     `json:"counterparty_id"`
	StartDate       string     `json:"start_date"`
	Status          string     `json:"status"`
	StatusUpdatedAt *time.Time `json:"status_updated_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toAgreementDTO(rec agreement.Record) agreementDTO {
	return agreementDTO{
		ID:              rec.ID,
		Name:            rec.Name,
		CounterpartyID:  rec.CounterpartyID,
		StartDate:       rec.StartDate.Format("2006-01-02"),
		Status:          string(rec.Status),
		StatusUpdatedAt: rec.StatusUpdatedAt,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
}

func toAgreementDTOs(recs []agreement.Record) []agreementDTO {
	out := make([]agreementDTO, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toAgreementDTO(rec))
	}
	return out
}

type counterpartyDTO struct {
	ID             string    `json:"id"`
	LegalName      string    `json:"legal_name"`
	RegistrationNo string    `json:"registration_no"`
	Verified       bool      `json:"verified"`
	CreatedAt      time.Time `json:"created_at"`
}

func toCounterpartyDTO(p counterparty.Profile) counterpartyDTO {
	return counterpartyDTO{
		ID:             p.ID,
		LegalName:      p.LegalName,
		RegistrationNo: p.RegistrationNo,
		Verified:       p.Verified,
		CreatedAt:      p.CreatedAt,
	}
}
