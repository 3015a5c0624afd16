package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"pactum/agreement"
)

// Registry tracks agreement ids created during a run so competing actors can
// pick targets at random.
type Registry struct {
	mu  sync.Mutex
	ids []string
}

func (r *Registry) Add(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

// Random returns a previously created agreement id, or "" when none exist yet.
func (r *Registry) Random() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ids) == 0 {
		return ""
	}
	return r.ids[rand.Intn(len(r.ids))]
}

// Creator keeps minting draft agreements for the seeded counterparty and
// registers them for the other actors to fight over.
func Creator(ctx context.Context, svc *agreement.CRUDService, userID, counterpartyID string, reg *Registry, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		rec, err := svc.Create(ctx, userID, agreement.CreateParams{
			Name:           fmt.Sprintf("Stress MSA %d", rand.Int63()),
			CounterpartyID: counterpartyID,
			StartDate:      time.Now().Add(24 * time.Hour),
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("creator: %w", err)
		}
		reg.Add(rec.ID)
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

// Activator picks random agreements and tries to flip them draft -> active.
// Losing the race is expected; anything other than a rule violation is fatal.
func Activator(ctx context.Context, svc *agreement.StatusService, actorID string, reg *Registry, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		id := reg.Random()
		if id == "" {
			time.Sleep(25 * time.Millisecond)
			continue
		}
		err := svc.Activate(ctx, id, actorID)
		if err != nil && !expected(err) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("activator: %w", err)
		}
		time.Sleep(time.Duration(10+rand.Intn(30)) * time.Millisecond)
	}
}

// Terminator races the activators, trying to move agreements to terminated.
func Terminator(ctx context.Context, svc *agreement.StatusService, actorID string, reg *Registry, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		id := reg.Random()
		if id == "" {
			time.Sleep(25 * time.Millisecond)
			continue
		}
		err := svc.Terminate(ctx, id, actorID, "stress churn")
		if err != nil && !expected(err) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("terminator: %w", err)
		}
		time.Sleep(time.Duration(15+rand.Intn(35)) * time.Millisecond)
	}
}

// WebhookTerminator replays termination notices through the idempotent webhook
// path. The key is derived from the agreement id, so repeated deliveries for
// the same agreement exercise the replay guard.
func WebhookTerminator(ctx context.Context, svc *agreement.Service, actorID string, reg *Registry, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		id := reg.Random()
		if id == "" {
			time.Sleep(25 * time.Millisecond)
			continue
		}
		err := svc.HandleTerminationWebhook(ctx, agreement.TerminationRequest{
			AgreementID:    id,
			IdempotencyKey: "stress-term-" + id,
			ActorID:        &actorID,
			Reason:         "counterparty notice",
		})
		if err != nil && !expected(err) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("webhook terminator: %w", err)
		}
		time.Sleep(time.Duration(30+rand.Intn(50)) * time.Millisecond)
	}
}

func expected(err error) bool {
	return errors.Is(err, agreement.ErrRuleViolation) ||
		errors.Is(err, agreement.ErrAgreementNotFound)
}
