package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	redisclient "github.com/caselens/caselens-backend/internal/clients/redis"
	"github.com/caselens/caselens-backend/internal/pkg/ctxutil"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

type fakeEventBus struct {
	mu     sync.Mutex
	events []redisclient.Event
	err    error
}

func (f *fakeEventBus) Publish(_ context.Context, evt redisclient.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeEventBus) StartForwarder(context.Context, func(evt redisclient.Event)) error {
	return nil
}

func (f *fakeEventBus) Close() error { return nil }

func TestAuditLogWritesRowAndPublishes(t *testing.T) {
	repo := &fakeEventRepo{}
	bus := &fakeEventBus{}
	svc := NewAuditService(logger.NewNop(), repo, bus)

	ctx := ctxutil.WithCorrelationID(context.Background(), "corr-9")
	svc.Log(ctx, AuditEntry{
		Source:     "ingestion",
		EventType:  "pipeline",
		Action:     "document_parsed",
		ObjectType: "document",
		ObjectID:   "12",
		Payload:    map[string]any{"pages": 3},
	})

	if len(repo.rows) != 1 {
		t.Fatalf("rows: want=1 got=%d", len(repo.rows))
	}
	row := repo.rows[0]
	if row.Action != "document_parsed" {
		t.Fatalf("action: want=document_parsed got=%q", row.Action)
	}
	if row.CorrelationID != "corr-9" {
		t.Fatalf("correlation id not taken from context, got %q", row.CorrelationID)
	}
	if len(row.Payload) == 0 {
		t.Fatalf("payload not serialized")
	}
	if len(bus.events) != 1 {
		t.Fatalf("published events: want=1 got=%d", len(bus.events))
	}
	if bus.events[0].CorrelationID != "corr-9" {
		t.Fatalf("bus correlation id: want=corr-9 got=%q", bus.events[0].CorrelationID)
	}
}

func TestAuditLogWithoutBus(t *testing.T) {
	repo := &fakeEventRepo{}
	svc := NewAuditService(logger.NewNop(), repo, nil)

	svc.Log(context.Background(), AuditEntry{Action: "case_created", ObjectType: "case"})

	if got := repo.actions(); len(got) != 1 || got[0] != "case_created" {
		t.Fatalf("actions: want=[case_created] got=%v", got)
	}
}

func TestAuditLogSwallowsWriteFailure(t *testing.T) {
	repo := &fakeEventRepo{err: errors.New("events table is gone")}
	bus := &fakeEventBus{err: errors.New("redis down")}
	svc := NewAuditService(logger.NewNop(), repo, bus)

	// Must not panic or propagate; audit never fails the caller.
	svc.Log(context.Background(), AuditEntry{Action: "section_redacted"})
}
