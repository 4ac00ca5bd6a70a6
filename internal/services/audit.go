package services

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	redisclient "github.com/caselens/caselens-backend/internal/clients/redis"
	"github.com/caselens/caselens-backend/internal/data/repos"
	types "github.com/caselens/caselens-backend/internal/domain/audit"
	"github.com/caselens/caselens-backend/internal/pkg/ctxutil"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

// AuditEntry is one pipeline event. Zero-value fields fall back to the
// caller's defaults or the context correlation id.
type AuditEntry struct {
	EventType     string
	ActorID       string
	Action        string
	ObjectType    string
	ObjectID      string
	CorrelationID string
	Source        string
	Payload       map[string]any
}

// AuditService records pipeline events. Logging is fire-and-forget: a failed
// write warns and moves on, it never fails the flow that produced the event.
type AuditService interface {
	Log(ctx context.Context, entry AuditEntry)
}

type auditService struct {
	log  *logger.Logger
	repo repos.EventRepo
	bus  redisclient.EventBus
}

// NewAuditService wires the events table and an optional redis fan-out.
// bus may be nil when no redis is configured.
func NewAuditService(baseLog *logger.Logger, repo repos.EventRepo, bus redisclient.EventBus) AuditService {
	return &auditService{
		log:  baseLog.With("service", "AuditService"),
		repo: repo,
		bus:  bus,
	}
}

func (s *auditService) Log(ctx context.Context, entry AuditEntry) {
	if entry.CorrelationID == "" {
		entry.CorrelationID = ctxutil.CorrelationID(ctx)
	}

	var payload datatypes.JSON
	if len(entry.Payload) > 0 {
		if raw, err := json.Marshal(entry.Payload); err == nil {
			payload = datatypes.JSON(raw)
		}
	}

	if s.repo != nil {
		row := &types.Event{
			Source:        entry.Source,
			EventType:     entry.EventType,
			ActorID:       entry.ActorID,
			Action:        entry.Action,
			ObjectType:    entry.ObjectType,
			ObjectID:      entry.ObjectID,
			CorrelationID: entry.CorrelationID,
			Payload:       payload,
			CreatedAt:     time.Now().UTC(),
		}
		if _, err := s.repo.Log(dbctx.New(ctx), row); err != nil {
			s.log.Warn("audit event write failed",
				"action", entry.Action,
				"object_type", entry.ObjectType,
				"error", err,
			)
		}
	}

	if s.bus != nil {
		evt := redisclient.Event{
			Source:        entry.Source,
			EventType:     entry.EventType,
			ActorID:       entry.ActorID,
			Action:        entry.Action,
			ObjectType:    entry.ObjectType,
			ObjectID:      entry.ObjectID,
			CorrelationID: entry.CorrelationID,
		}
		if err := s.bus.Publish(ctx, evt); err != nil {
			s.log.Debug("audit event publish failed", "action", entry.Action, "error", err)
		}
	}
}
