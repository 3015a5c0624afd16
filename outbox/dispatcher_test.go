package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestDispatchBatch_MixedOutcomes(t *testing.T) {
	pool := &fakePool{}
	store := &fakeStore{
		pending: []Message{
			{ID: "m1", Topic: "agreement.created", Payload: []byte(`{}`)},
			{ID: "m2", Topic: "agreement.status_changed", Payload: []byte(`{}`)},
		},
	}
	pub := &fakePublisher{failTopics: map[string]bool{"agreement.status_changed": true}}
	d := NewDispatcher(pool, store, pub)

	sent, err := d.DispatchBatch(context.Background())
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected 1 sent, got %d", sent)
	}
	if !pool.tx.committed {
		t.Error("expected commit")
	}
	if len(store.sent) != 1 || store.sent[0] != "m1" {
		t.Errorf("expected m1 marked sent, got %v", store.sent)
	}
	if len(store.failed) != 1 || store.failed[0] != "m2" {
		t.Errorf("expected m2 marked failed, got %v", store.failed)
	}
}

func TestDispatchBatch_Empty(t *testing.T) {
	pool := &fakePool{}
	store := &fakeStore{}
	pub := &fakePublisher{}
	d := NewDispatcher(pool, store, pub)

	sent, err := d.DispatchBatch(context.Background())
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if sent != 0 {
		t.Fatalf("expected 0 sent, got %d", sent)
	}
	if len(pub.published) != 0 {
		t.Fatalf("expected no publishes, got %d", len(pub.published))
	}
}

func TestDispatchBatch_ClaimError(t *testing.T) {
	pool := &fakePool{}
	store := &fakeStore{claimErr: errors.New("boom")}
	d := NewDispatcher(pool, store, &fakePublisher{})

	if _, err := d.DispatchBatch(context.Background()); err == nil {
		t.Fatal("expected claim error to propagate")
	}
	if pool.tx.committed {
		t.Error("expected commit to be skipped")
	}
	if !pool.tx.rolled {
		t.Error("expected rollback")
	}
}

func TestDefaultPublisherIsLog(t *testing.T) {
	d := NewDispatcher(&fakePool{}, &fakeStore{}, nil)
	if _, ok := d.publisher.(LogPublisher); !ok {
		t.Fatalf("expected LogPublisher default, got %T", d.publisher)
	}
}

type fakePublisher struct {
	failTopics map[string]bool
	published  []string
}

func (f *fakePublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	f.published = append(f.published, topic)
	if f.failTopics[topic] {
		return errors.New("publish refused")
	}
	return nil
}

type fakeStore struct {
	pending  []Message
	claimErr error
	sent     []string
	failed   []string
}

func (f *fakeStore) ClaimPending(ctx context.Context, tx pgx.Tx, limit int) ([]Message, error) {
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	if limit < len(f.pending) {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeStore) MarkSent(ctx context.Context, tx pgx.Tx, id string) error {
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeStore) MarkFailed(ctx context.Context, tx pgx.Tx, id string) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakePool struct {
	tx *fakeTx
}

func (f *fakePool) Begin(ctx context.Context) (pgx.Tx, error) {
	f.tx = &fakeTx{}
	return f.tx, nil
}

type fakeTx struct {
	rolled    bool
	committed bool
}

func (f *fakeTx) Begin(context.Context) (pgx.Tx, error) {
	return nil, errors.New("fakeTx does not support nested transactions")
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolled = true
	return nil
}

func (f *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}

func (f *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}

func (f *fakeTx) LargeObjects() pgx.LargeObjects {
	panic("not implemented")
}

func (f *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}

func (f *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}

func (f *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("not implemented")
}

func (f *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not implemented")
}

func (f *fakeTx) Conn() *pgx.Conn {
	return nil
}
