package audit

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/caselens/caselens-backend/internal/data/dberr"
	types "github.com/caselens/caselens-backend/internal/domain/audit"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

// EventRepo is the append-only audit trail.
type EventRepo interface {
	Log(dbc dbctx.Context, row *types.Event) (*types.Event, error)
	GetByCorrelationID(dbc dbctx.Context, correlationID string) ([]*types.Event, error)
}

type eventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventRepo(db *gorm.DB, baseLog *logger.Logger) EventRepo {
	repoLog := baseLog.With("repo", "EventRepo")
	return &eventRepo{db: db, log: repoLog}
}

func (r *eventRepo) Log(dbc dbctx.Context, row *types.Event) (*types.Event, error) {
	if row == nil {
		return nil, fmt.Errorf("event row is required")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, dberr.Map("event.log", err)
	}
	return row, nil
}

func (r *eventRepo) GetByCorrelationID(dbc dbctx.Context, correlationID string) ([]*types.Event, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Event
	if err := transaction.WithContext(dbc.Ctx).Where("correlation_id = ?", correlationID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, dberr.Map("event.get_by_correlation_id", err)
	}
	return rows, nil
}
