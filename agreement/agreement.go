package agreement

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AgreementID uniquely identifies an agreement. It is a distinct type so an
// agreement id can never be passed where a counterparty id is expected.
type AgreementID uuid.UUID

// CounterpartyID identifies the external counterparty an agreement is signed
// with. Agreements hold only this identifier, never counterparty data.
type CounterpartyID uuid.UUID

func NewAgreementID() AgreementID { return AgreementID(uuid.New()) }

func (id AgreementID) String() string { return uuid.UUID(id).String() }
func (id AgreementID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }

func (id CounterpartyID) String() string { return uuid.UUID(id).String() }
func (id CounterpartyID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }

// ParseAgreementID parses the textual form of an agreement id.
func ParseAgreementID(s string) (AgreementID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return AgreementID{}, err
	}
	return AgreementID(u), nil
}

// ParseCounterpartyID parses the textual form of a counterparty id.
func ParseCounterpartyID(s string) (CounterpartyID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return CounterpartyID{}, err
	}
	return CounterpartyID(u), nil
}

// Status represents the lifecycle of an agreement.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusActive     Status = "active"
	StatusTerminated Status = "terminated"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusTerminated:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the lifecycle permits moving from s to next.
// The lifecycle is one-directional: draft -> active -> terminated. Nothing
// leaves terminated and draft can never jump straight to terminated.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusActive
	case StatusActive:
		return next == StatusTerminated
	default:
		return false
	}
}

// Agreement is the domain entity for a single legal agreement. Fields are
// unexported so the factory below is the only way to obtain a valid instance;
// status changes go through Activate and Terminate exclusively.
type Agreement struct {
	id             AgreementID
	name           string
	counterpartyID CounterpartyID
	startDate      time.Time
	status         Status
}

// New validates the inputs and constructs a draft agreement with a fresh id.
// The start date may be today but never earlier; the comparison uses the UTC
// civil date, not the instant.
func New(name string, counterpartyID CounterpartyID, startDate time.Time) (*Agreement, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameRequired
	}
	if counterpartyID.IsZero() {
		return nil, ErrCounterpartyRequired
	}
	if civilDate(startDate).Before(civilDate(time.Now())) {
		return nil, ErrStartDateInPast
	}

	return &Agreement{
		id:             NewAgreementID(),
		name:           name,
		counterpartyID: counterpartyID,
		startDate:      civilDate(startDate),
		status:         StatusDraft,
	}, nil
}

func (a *Agreement) ID() AgreementID                { return a.id }
func (a *Agreement) Name() string                   { return a.name }
func (a *Agreement) CounterpartyID() CounterpartyID { return a.counterpartyID }
func (a *Agreement) StartDate() time.Time           { return a.startDate }
func (a *Agreement) Status() Status                 { return a.status }

// Activate moves a draft agreement to active. Any other current status is a
// business-rule violation and leaves the agreement untouched.
func (a *Agreement) Activate() error {
	if a.status != StatusDraft {
		return ErrOnlyDraftActivates
	}
	a.status = StatusActive
	return nil
}

// Terminate moves an active agreement to terminated. The reason is accepted
// for callers that record it (the persisted path writes it into the timeline
// event) but the entity itself does not keep it.
func (a *Agreement) Terminate(reason string) error {
	_ = reason
	if a.status != StatusActive {
		return ErrOnlyActiveTerminates
	}
	a.status = StatusTerminated
	return nil
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
