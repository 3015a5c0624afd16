package outbox

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"
)

// Publisher delivers a single outbox message to its downstream channel.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// LogPublisher writes messages to the process log. It is the default sink in
// environments without a broker.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	log.Printf("outbox: publish topic=%s payload=%s", topic, payload)
	return nil
}

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is the data access needed by the dispatcher. Claims must lock the
// returned rows for the duration of the surrounding transaction.
type Store interface {
	ClaimPending(ctx context.Context, tx pgx.Tx, limit int) ([]Message, error)
	MarkSent(ctx context.Context, tx pgx.Tx, id string) error
	MarkFailed(ctx context.Context, tx pgx.Tx, id string) error
}

// Dispatcher drains pending outbox rows and hands them to a Publisher.
// Rows stay pending with an incremented attempt counter when publishing fails,
// so the next poll retries them.
type Dispatcher struct {
	pool      TxBeginner
	store     Store
	publisher Publisher
	interval  time.Duration
	batchSize int
	workers   int
}

type Option func(*Dispatcher)

func WithInterval(d time.Duration) Option { return func(dp *Dispatcher) { dp.interval = d } }
func WithBatchSize(n int) Option          { return func(dp *Dispatcher) { dp.batchSize = n } }
func WithWorkers(n int) Option            { return func(dp *Dispatcher) { dp.workers = n } }

func NewDispatcher(pool TxBeginner, store Store, publisher Publisher, opts ...Option) *Dispatcher {
	if store == nil {
		store = NewPGStore()
	}
	if publisher == nil {
		publisher = LogPublisher{}
	}
	d := &Dispatcher{
		pool:      pool,
		store:     store,
		publisher: publisher,
		interval:  2 * time.Second,
		batchSize: 50,
		workers:   4,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run polls until the context is cancelled. Cancellation is a clean stop.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := d.DispatchBatch(ctx); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil
				}
				log.Printf("outbox: dispatch batch: %v", err)
			}
		}
	}
}

// DispatchBatch claims up to batchSize pending messages, publishes them with
// bounded concurrency, and records the per-message outcome in the same
// transaction that holds the claim locks. Returns the number published.
func (d *Dispatcher) DispatchBatch(ctx context.Context) (int, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("outbox: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	messages, err := d.store.ClaimPending(ctx, tx, d.batchSize)
	if err != nil {
		return 0, err
	}
	if len(messages) == 0 {
		return 0, tx.Commit(ctx)
	}

	results := make([]error, len(messages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, msg := range messages {
		g.Go(func() error {
			results[i] = d.publisher.Publish(gctx, msg.Topic, msg.Payload)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	sent := 0
	for i, msg := range messages {
		if results[i] != nil {
			log.Printf("outbox: publish %s (topic=%s): %v", msg.ID, msg.Topic, results[i])
			if err := d.store.MarkFailed(ctx, tx, msg.ID); err != nil {
				return sent, err
			}
			continue
		}
		if err := d.store.MarkSent(ctx, tx, msg.ID); err != nil {
			return sent, err
		}
		sent++
	}

	if err := tx.Commit(ctx); err != nil {
		return sent, fmt.Errorf("outbox: commit batch: %w", err)
	}
	return sent, nil
}
