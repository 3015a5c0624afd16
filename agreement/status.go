package agreement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatusService handles lifecycle transitions on agreements ensuring timeline
// and outbox writes are captured in the same transaction.
type StatusService struct {
	pool *pgxpool.Pool
}

func NewStatusService(pool *pgxpool.Pool) *StatusService {
	return &StatusService{pool: pool}
}

type TransitionParams struct {
	AgreementID string
	ActorID     string
	NextStatus  Status
	Reason      string
	Payload     map[string]any
}

// Activate moves a draft agreement to active.
func (s *StatusService) Activate(ctx context.Context, agreementID, actorID string) error {
	err := s.Transition(ctx, TransitionParams{
		AgreementID: agreementID,
		ActorID:     actorID,
		NextStatus:  StatusActive,
	})
	if errors.Is(err, ErrRuleViolation) {
		return ErrOnlyDraftActivates
	}
	return err
}

// Terminate moves an active agreement to terminated. The reason is recorded in
// the timeline event payload, not on the agreement row.
func (s *StatusService) Terminate(ctx context.Context, agreementID, actorID, reason string) error {
	err := s.Transition(ctx, TransitionParams{
		AgreementID: agreementID,
		ActorID:     actorID,
		NextStatus:  StatusTerminated,
		Reason:      reason,
	})
	if errors.Is(err, ErrRuleViolation) {
		return ErrOnlyActiveTerminates
	}
	return err
}

// Transition locks the agreement row, asks the database to validate the
// requested lifecycle edge, and applies the status change together with its
// timeline event and outbox message.
func (s *StatusService) Transition(ctx context.Context, params TransitionParams) error {
	if !params.NextStatus.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, params.NextStatus)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("agreement: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var current string
	if err := tx.QueryRow(ctx, `SELECT status FROM agreements WHERE id=$1 FOR UPDATE`, params.AgreementID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAgreementNotFound
		}
		return fmt.Errorf("agreement: fetch current status: %w", err)
	}

	var ok bool
	if err := tx.QueryRow(ctx, `SELECT agreement_validate_transition($1::agreement_status,$2::agreement_status)`, current, string(params.NextStatus)).Scan(&ok); err != nil {
		return fmt.Errorf("agreement: validate transition: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: invalid transition %s -> %s", ErrRuleViolation, current, params.NextStatus)
	}

	if _, err := tx.Exec(ctx, `
        UPDATE agreements
        SET status=$1::agreement_status,
            status_updated_at=get_tx_timestamp(),
            status_updated_by=$2::uuid,
            updated_at=get_tx_timestamp()
        WHERE id=$3
    `, string(params.NextStatus), params.ActorID, params.AgreementID); err != nil {
		return fmt.Errorf("agreement: update status: %w", err)
	}

	payload := map[string]any{
		"previous_status": current,
		"next_status":     string(params.NextStatus),
	}
	if params.Reason != "" {
		payload["reason"] = params.Reason
	}
	for k, v := range params.Payload {
		payload[k] = v
	}

	eventType := eventStatusChanged
	if params.NextStatus == StatusTerminated {
		eventType = eventTerminated
	}
	if err := insertTimelineEvent(ctx, tx, params.AgreementID, eventType, params.ActorID, payload); err != nil {
		return err
	}

	outboxPayload := map[string]any{
		"agreement_id": params.AgreementID,
		"previous":     current,
		"next":         string(params.NextStatus),
	}
	if err := enqueueOutbox(ctx, tx, OutboxTopicStatusChanged, outboxPayload); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("agreement: commit transition: %w", err)
	}

	return nil
}
