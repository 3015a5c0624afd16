package agreement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// InsertIdempotencyKey attempts to reserve the idempotency key inside the active transaction.
func (r *Repository) InsertIdempotencyKey(ctx context.Context, tx pgx.Tx, key string) error {
	if key == "" {
		return fmt.Errorf("agreement: empty idempotency key")
	}

	_, err := tx.Exec(ctx, `INSERT INTO idempotency (key) VALUES ($1)`, key)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("agreement: insert idempotency key: %w", err)
	}

	return nil
}

// ExecuteTerminationTx performs the status transition, event append, and outbox
// write for a termination delivered by an external channel.
func (r *Repository) ExecuteTerminationTx(ctx context.Context, tx pgx.Tx, params TerminationParams) error {
	if params.AgreementID == "" {
		return fmt.Errorf("agreement: missing agreement id")
	}

	terminatedAt, err := r.markAgreementTerminated(ctx, tx, params.AgreementID, params.ActorID)
	if err != nil {
		return err
	}

	if err := r.appendTerminationEvent(ctx, tx, params, terminatedAt); err != nil {
		return err
	}

	if err := r.enqueueTerminationOutbox(ctx, tx, params, terminatedAt); err != nil {
		return err
	}

	return nil
}

func (r *Repository) markAgreementTerminated(ctx context.Context, tx pgx.Tx, agreementID string, actorID *string) (time.Time, error) {
	const updateSQL = `
UPDATE agreements
SET status = 'terminated',
    status_updated_at = get_tx_timestamp(),
    status_updated_by = $2::uuid,
    updated_at = get_tx_timestamp()
WHERE id = $1 AND status = 'active'
RETURNING status_updated_at;
`

	var actor any
	if actorID != nil && *actorID != "" {
		actor = *actorID
	}

	var terminatedAt time.Time
	if err := tx.QueryRow(ctx, updateSQL, agreementID, actor).Scan(&terminatedAt); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, fmt.Errorf("agreement: update terminated: %w", err)
		}

		// Distinguish a missing row from a row in the wrong state.
		var current string
		switch err := tx.QueryRow(ctx, `SELECT status FROM agreements WHERE id=$1`, agreementID).Scan(&current); {
		case errors.Is(err, pgx.ErrNoRows):
			return time.Time{}, ErrAgreementNotFound
		case err != nil:
			return time.Time{}, fmt.Errorf("agreement: fetch status: %w", err)
		default:
			return time.Time{}, ErrOnlyActiveTerminates
		}
	}

	return terminatedAt, nil
}

func (r *Repository) appendTerminationEvent(ctx context.Context, tx pgx.Tx, params TerminationParams, terminatedAt time.Time) error {
	payload := params.TimelinePayload
	if payload == nil {
		payload = make(map[string]any, 3)
	}
	payload["agreement_id"] = params.AgreementID
	payload["terminated_at"] = terminatedAt.UTC()
	if params.Reason != "" {
		payload["reason"] = params.Reason
	}

	actorID := ""
	if params.ActorID != nil {
		actorID = *params.ActorID
	}

	return insertTimelineEvent(ctx, tx, params.AgreementID, eventTerminated, actorID, payload)
}

func (r *Repository) enqueueTerminationOutbox(ctx context.Context, tx pgx.Tx, params TerminationParams, terminatedAt time.Time) error {
	payload := params.OutboxPayload
	if payload == nil {
		payload = make(map[string]any, 3)
	}
	payload["agreement_id"] = params.AgreementID
	payload["terminated_at"] = terminatedAt.UTC()

	topic := params.OutboxTopic
	if topic == "" {
		topic = OutboxTopicAgreementTerminated
	}

	return enqueueOutbox(ctx, tx, topic, payload)
}
