package casefile

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/caselens/caselens-backend/internal/data/dberr"
	types "github.com/caselens/caselens-backend/internal/domain/casefile"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

type OffenceRepo interface {
	Upsert(dbc dbctx.Context, row *types.Offence) (*types.Offence, error)
	GetByDefendantIDs(dbc dbctx.Context, defendantIDs []int64) ([]*types.Offence, error)
	DeleteByDefendantIDs(dbc dbctx.Context, defendantIDs []int64) error
}

type offenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOffenceRepo(db *gorm.DB, baseLog *logger.Logger) OffenceRepo {
	repoLog := baseLog.With("repo", "OffenceRepo")
	return &offenceRepo{db: db, log: repoLog}
}

func (r *offenceRepo) Upsert(dbc dbctx.Context, row *types.Offence) (*types.Offence, error) {
	if row == nil {
		return nil, fmt.Errorf("offence row is required")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row.ID != 0 {
		var count int64
		if err := transaction.WithContext(dbc.Ctx).Model(&types.Offence{}).Where("id = ?", row.ID).Count(&count).Error; err != nil {
			return nil, dberr.Map("offence.upsert", err)
		}
		if count > 0 {
			if err := transaction.WithContext(dbc.Ctx).Model(&types.Offence{}).Where("id = ?", row.ID).Updates(row).Error; err != nil {
				return nil, dberr.Map("offence.upsert", err)
			}
			return row, nil
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, dberr.Map("offence.upsert", err)
	}
	return row, nil
}

func (r *offenceRepo) GetByDefendantIDs(dbc dbctx.Context, defendantIDs []int64) ([]*types.Offence, error) {
	if len(defendantIDs) == 0 {
		return []*types.Offence{}, nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Offence
	if err := transaction.WithContext(dbc.Ctx).Where("defendant_id IN ?", defendantIDs).Order("id asc").Find(&rows).Error; err != nil {
		return nil, dberr.Map("offence.get_by_defendant_ids", err)
	}
	return rows, nil
}

func (r *offenceRepo) DeleteByDefendantIDs(dbc dbctx.Context, defendantIDs []int64) error {
	if len(defendantIDs) == 0 {
		return nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Where("defendant_id IN ?", defendantIDs).Delete(&types.Offence{}).Error; err != nil {
		return dberr.Map("offence.delete_by_defendant_ids", err)
	}
	return nil
}
