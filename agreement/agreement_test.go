package agreement

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testCounterpartyID() CounterpartyID {
	return CounterpartyID(uuid.New())
}

func TestNew_Draft(t *testing.T) {
	ag, err := New("Master Services Agreement", testCounterpartyID(), time.Now())
	if err != nil {
		t.Fatalf("new: unexpected error: %v", err)
	}
	if ag.Status() != StatusDraft {
		t.Fatalf("expected status %s got %s", StatusDraft, ag.Status())
	}
	if ag.ID().IsZero() {
		t.Fatal("expected a generated id")
	}
	if ag.Name() != "Master Services Agreement" {
		t.Fatalf("unexpected name %q", ag.Name())
	}
}

func TestNew_FutureStartDate(t *testing.T) {
	if _, err := New("NDA", testCounterpartyID(), time.Now().AddDate(0, 1, 0)); err != nil {
		t.Fatalf("future start date should be accepted: %v", err)
	}
}

func TestNew_EmptyName(t *testing.T) {
	for _, name := range []string{"", "   ", "\t"} {
		_, err := New(name, testCounterpartyID(), time.Now())
		if !errors.Is(err, ErrNameRequired) {
			t.Fatalf("name %q: expected ErrNameRequired, got %v", name, err)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("name %q: expected validation classification, got %v", name, err)
		}
	}
}

func TestNew_PastStartDate(t *testing.T) {
	_, err := New("NDA", testCounterpartyID(), time.Now().AddDate(0, 0, -1))
	if !errors.Is(err, ErrStartDateInPast) {
		t.Fatalf("expected ErrStartDateInPast, got %v", err)
	}
}

func TestNew_MissingCounterparty(t *testing.T) {
	_, err := New("NDA", CounterpartyID{}, time.Now())
	if !errors.Is(err, ErrCounterpartyRequired) {
		t.Fatalf("expected ErrCounterpartyRequired, got %v", err)
	}
}

func TestActivate(t *testing.T) {
	ag, err := New("SOW #1", testCounterpartyID(), time.Now())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := ag.Activate(); err != nil {
		t.Fatalf("activate draft: %v", err)
	}
	if ag.Status() != StatusActive {
		t.Fatalf("expected %s got %s", StatusActive, ag.Status())
	}

	// A second activation is a rule violation and must not change state.
	err = ag.Activate()
	if !errors.Is(err, ErrOnlyDraftActivates) {
		t.Fatalf("expected ErrOnlyDraftActivates, got %v", err)
	}
	if !errors.Is(err, ErrRuleViolation) {
		t.Fatalf("expected rule-violation classification, got %v", err)
	}
	if ag.Status() != StatusActive {
		t.Fatalf("status changed on failed activate: %s", ag.Status())
	}
}

func TestTerminate_RequiresActive(t *testing.T) {
	ag, err := New("SOW #2", testCounterpartyID(), time.Now())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := ag.Terminate("breach"); !errors.Is(err, ErrOnlyActiveTerminates) {
		t.Fatalf("terminating a draft: expected ErrOnlyActiveTerminates, got %v", err)
	}
	if ag.Status() != StatusDraft {
		t.Fatalf("status changed on failed terminate: %s", ag.Status())
	}
}

func TestLifecycleScenario(t *testing.T) {
	ag, err := New("Test", testCounterpartyID(), time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ag.Status() != StatusDraft {
		t.Fatalf("expected draft, got %s", ag.Status())
	}

	if err := ag.Activate(); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if ag.Status() != StatusActive {
		t.Fatalf("expected active, got %s", ag.Status())
	}

	if err := ag.Activate(); !errors.Is(err, ErrOnlyDraftActivates) {
		t.Fatalf("second activate: expected failure, got %v", err)
	}
	if ag.Status() != StatusActive {
		t.Fatalf("expected active after failed activate, got %s", ag.Status())
	}

	if err := ag.Terminate("relationship ended"); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if ag.Status() != StatusTerminated {
		t.Fatalf("expected terminated, got %s", ag.Status())
	}

	if err := ag.Activate(); !errors.Is(err, ErrOnlyDraftActivates) {
		t.Fatalf("activate after terminate: expected failure, got %v", err)
	}
	if err := ag.Terminate("again"); !errors.Is(err, ErrOnlyActiveTerminates) {
		t.Fatalf("second terminate: expected failure, got %v", err)
	}
	if ag.Status() != StatusTerminated {
		t.Fatalf("terminated is terminal, got %s", ag.Status())
	}
}

func TestStatusTransitionTable(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusDraft, StatusActive, true},
		{StatusActive, StatusTerminated, true},
		{StatusDraft, StatusTerminated, false},
		{StatusActive, StatusDraft, false},
		{StatusTerminated, StatusActive, false},
		{StatusTerminated, StatusDraft, false},
		{StatusDraft, StatusDraft, false},
		{StatusTerminated, StatusTerminated, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.want {
			t.Errorf("%s -> %s: got %v want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTypedIDsRoundTrip(t *testing.T) {
	id := NewAgreementID()
	parsed, err := ParseAgreementID(id.String())
	if err != nil {
		t.Fatalf("parse agreement id: %v", err)
	}
	if parsed != id {
		t.Fatalf("round trip mismatch: %s vs %s", parsed, id)
	}

	if _, err := ParseCounterpartyID("not-a-uuid"); err == nil {
		t.Fatal("expected parse error for malformed counterparty id")
	}
}
