package agreement

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestLifecycle_Integration connects to a real PostgreSQL via DATABASE_URL and
// verifies the end-to-end create/activate/terminate behavior including
// idempotent termination replay.
func TestLifecycle_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	if !tableExists(ctx, t, pool, "agreements") || !tableExists(ctx, t, pool, "timeline_events") || !tableExists(ctx, t, pool, "outbox") || !tableExists(ctx, t, pool, "idempotency") {
		t.Skip("database schema missing; apply the migrations directory first")
	}

	var (
		userID         string
		counterpartyID string
	)

	if err := pool.QueryRow(ctx, `INSERT INTO users (email, full_name, password_hash, role) VALUES ($1,$2,'x','manager') RETURNING id`,
		fmt.Sprintf("casey+%d@example.com", time.Now().UnixNano()), "Casey Counsel").Scan(&userID); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := pool.QueryRow(ctx, `INSERT INTO counterparties (legal_name, registration_no) VALUES ($1,$2) RETURNING id`,
		fmt.Sprintf("Acme Holdings %d", time.Now().UnixNano()), "REG-1").Scan(&counterpartyID); err != nil {
		t.Fatalf("seed counterparty: %v", err)
	}

	crud := NewCRUDService(pool)
	rec, err := crud.Create(ctx, userID, CreateParams{
		Name:           "Integration MSA",
		CounterpartyID: counterpartyID,
		StartDate:      time.Now(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Status != StatusDraft {
		t.Fatalf("expected draft, got %s", rec.Status)
	}

	t.Cleanup(func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel2()
		_, _ = pool.Exec(ctx2, `DELETE FROM timeline_events WHERE agreement_id=$1`, rec.ID)
		_, _ = pool.Exec(ctx2, `DELETE FROM agreements WHERE id=$1`, rec.ID)
		_, _ = pool.Exec(ctx2, `DELETE FROM counterparties WHERE id=$1`, counterpartyID)
		_, _ = pool.Exec(ctx2, `DELETE FROM users WHERE id=$1`, userID)
	})

	status := NewStatusService(pool)

	// Draft cannot be terminated.
	if err := status.Terminate(ctx, rec.ID, userID, "too early"); !errors.Is(err, ErrOnlyActiveTerminates) {
		t.Fatalf("terminate draft: expected rule violation, got %v", err)
	}

	if err := status.Activate(ctx, rec.ID, userID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if got := currentStatus(ctx, t, pool, rec.ID); got != "active" {
		t.Fatalf("expected active, got %s", got)
	}

	// Second activation must fail and leave the row untouched.
	if err := status.Activate(ctx, rec.ID, userID); !errors.Is(err, ErrOnlyDraftActivates) {
		t.Fatalf("re-activate: expected rule violation, got %v", err)
	}

	svc := NewService(pool, nil)
	req := TerminationRequest{
		AgreementID:    rec.ID,
		IdempotencyKey: fmt.Sprintf("notice-%d", time.Now().UnixNano()),
		ActorID:        &userID,
		Reason:         "integration teardown",
	}
	if err := svc.HandleTerminationWebhook(ctx, req); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if got := currentStatus(ctx, t, pool, rec.ID); got != "terminated" {
		t.Fatalf("expected terminated, got %s", got)
	}

	var eventsBefore int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM timeline_events WHERE agreement_id=$1`, rec.ID).Scan(&eventsBefore); err != nil {
		t.Fatalf("count events: %v", err)
	}

	// Replay with the same key is a no-op success.
	if err := svc.HandleTerminationWebhook(ctx, req); err != nil {
		t.Fatalf("terminate replay: %v", err)
	}
	var eventsAfter int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM timeline_events WHERE agreement_id=$1`, rec.ID).Scan(&eventsAfter); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if eventsAfter != eventsBefore {
		t.Fatalf("replay appended events: %d -> %d", eventsBefore, eventsAfter)
	}

	// Terminated is terminal.
	if err := status.Activate(ctx, rec.ID, userID); !errors.Is(err, ErrOnlyDraftActivates) {
		t.Fatalf("activate terminated: expected rule violation, got %v", err)
	}
}

func currentStatus(ctx context.Context, t *testing.T, pool *pgxpool.Pool, agreementID string) string {
	t.Helper()
	var status string
	if err := pool.QueryRow(ctx, `SELECT status FROM agreements WHERE id=$1`, agreementID).Scan(&status); err != nil {
		t.Fatalf("fetch status: %v", err)
	}
	return status
}

func tableExists(ctx context.Context, t *testing.T, pool *pgxpool.Pool, name string) bool {
	t.Helper()
	var exists bool
	if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)`, name).Scan(&exists); err != nil {
		t.Fatalf("check table %s: %v", name, err)
	}
	return exists
}
