package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Message mirrors an outbox row claimed for delivery.
type Message struct {
	ID        string
	Topic     string
	Payload   []byte
	Attempts  int
	CreatedAt time.Time
}

// PGStore implements Store against the outbox table.
type PGStore struct{}

func NewPGStore() *PGStore {
	return &PGStore{}
}

// ClaimPending locks up to limit pending rows, skipping rows held by
// concurrent dispatchers.
func (s *PGStore) ClaimPending(ctx context.Context, tx pgx.Tx, limit int) ([]Message, error) {
	const query = `
        SELECT id, topic, payload, attempts, created_at
        FROM outbox
        WHERE status = 'pending'
        ORDER BY created_at
        LIMIT $1
        FOR UPDATE SKIP LOCKED
    `

	rows, err := tx.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("outbox: claim pending: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.Topic, &msg.Payload, &msg.Attempts, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("outbox: scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("outbox: iterate messages: %w", err)
	}

	return messages, nil
}

func (s *PGStore) MarkSent(ctx context.Context, tx pgx.Tx, id string) error {
	if _, err := tx.Exec(ctx, `
        UPDATE outbox
        SET status='sent', attempts=attempts+1, sent_at=get_tx_timestamp()
        WHERE id=$1
    `, id); err != nil {
		return fmt.Errorf("outbox: mark sent: %w", err)
	}
	return nil
}

func (s *PGStore) MarkFailed(ctx context.Context, tx pgx.Tx, id string) error {
	if _, err := tx.Exec(ctx, `
        UPDATE outbox
        SET attempts=attempts+1
        WHERE id=$1
    `, id); err != nil {
		return fmt.Errorf("outbox: mark failed: %w", err)
	}
	return nil
}
