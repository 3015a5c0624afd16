package counterparty

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeReader struct {
	profiles map[string]Profile
	listErr  error
}

func (f *fakeReader) GetByID(ctx context.Context, id string) (Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeReader) List(ctx context.Context, limit int) ([]Profile, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, p)
	}
	return out, nil
}

func TestService_GetByID(t *testing.T) {
	reader := &fakeReader{profiles: map[string]Profile{
		"cp-1": {ID: "cp-1", LegalName: "Acme Holdings", Verified: true, CreatedAt: time.Now()},
	}}
	svc := NewService(reader)

	p, err := svc.GetByID(context.Background(), "cp-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.LegalName != "Acme Holdings" {
		t.Fatalf("unexpected profile: %+v", p)
	}

	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_List(t *testing.T) {
	reader := &fakeReader{profiles: map[string]Profile{
		"cp-1": {ID: "cp-1", LegalName: "Acme Holdings"},
		"cp-2": {ID: "cp-2", LegalName: "Globex LLC"},
	}}
	svc := NewService(reader)

	profiles, err := svc.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
}
