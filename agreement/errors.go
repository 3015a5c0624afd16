package agreement

import (
	"errors"
	"fmt"
)

// The two error kinds surfaced by the lifecycle: bad construction input and
// illegal transitions. Concrete errors below wrap one of these so callers can
// classify with errors.Is without matching message text.
var (
	ErrValidation    = errors.New("agreement: validation failed")
	ErrRuleViolation = errors.New("agreement: business rule violated")
)

var (
	ErrNameRequired         = fmt.Errorf("%w: name required", ErrValidation)
	ErrCounterpartyRequired = fmt.Errorf("%w: counterparty id required", ErrValidation)
	ErrStartDateInPast      = fmt.Errorf("%w: start date cannot be in the past", ErrValidation)

	ErrOnlyDraftActivates   = fmt.Errorf("%w: only Draft agreements can be activated", ErrRuleViolation)
	ErrOnlyActiveTerminates = fmt.Errorf("%w: only Active agreements can be terminated", ErrRuleViolation)
)

var (
	// ErrAgreementNotFound is returned when no agreement row exists for the provided identifier.
	ErrAgreementNotFound = errors.New("agreement: not found")
	// ErrDuplicateIdempotencyKey signals the idempotency insert hit the existing key guardrail.
	ErrDuplicateIdempotencyKey = errors.New("agreement: duplicate idempotency key")
)
