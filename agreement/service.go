package agreement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TerminationRequest captures a termination notice normalized for the service,
// e.g. from a counterparty's webhook callback.
type TerminationRequest struct {
	AgreementID     string
	IdempotencyKey  string
	ActorID         *string
	Reason          string
	TimelinePayload map[string]any
	OutboxTopic     string
	OutboxPayload   map[string]any
}

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TerminationRepository defines the data access required by the service.
type TerminationRepository interface {
	InsertIdempotencyKey(ctx context.Context, tx pgx.Tx, key string) error
	ExecuteTerminationTx(ctx context.Context, tx pgx.Tx, params TerminationParams) error
}

type Service struct {
	pool TxBeginner
	repo TerminationRepository
}

func NewService(pool TxBeginner, repo TerminationRepository) *Service {
	if repo == nil {
		repo = NewRepository()
	}
	return &Service{
		pool: pool,
		repo: repo,
	}
}

// HandleTerminationWebhook applies the full termination transaction. Replays
// of the same idempotency key succeed without touching the agreement again.
func (s *Service) HandleTerminationWebhook(ctx context.Context, req TerminationRequest) error {
	if req.IdempotencyKey == "" {
		return fmt.Errorf("agreement: missing idempotency key")
	}
	if req.AgreementID == "" {
		return fmt.Errorf("agreement: missing agreement id")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("agreement: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.repo.InsertIdempotencyKey(ctx, tx, req.IdempotencyKey); err != nil {
		if errors.Is(err, ErrDuplicateIdempotencyKey) {
			return nil
		}
		return err
	}

	params := TerminationParams{
		AgreementID:     req.AgreementID,
		ActorID:         req.ActorID,
		Reason:          req.Reason,
		TimelinePayload: req.TimelinePayload,
		OutboxTopic:     req.OutboxTopic,
		OutboxPayload:   req.OutboxPayload,
	}

	if err := s.repo.ExecuteTerminationTx(ctx, tx, params); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("agreement: commit tx: %w", err)
	}

	return nil
}
