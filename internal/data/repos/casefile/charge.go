package casefile

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/caselens/caselens-backend/internal/data/dberr"
	types "github.com/caselens/caselens-backend/internal/domain/casefile"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

type ChargeRepo interface {
	Upsert(dbc dbctx.Context, row *types.Charge) (*types.Charge, error)
	GetByDefendantIDs(dbc dbctx.Context, defendantIDs []int64) ([]*types.Charge, error)
	DeleteByDefendantIDs(dbc dbctx.Context, defendantIDs []int64) error
}

type chargeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChargeRepo(db *gorm.DB, baseLog *logger.Logger) ChargeRepo {
	repoLog := baseLog.With("repo", "ChargeRepo")
	return &chargeRepo{db: db, log: repoLog}
}

func (r *chargeRepo) Upsert(dbc dbctx.Context, row *types.Charge) (*types.Charge, error) {
	if row == nil {
		return nil, fmt.Errorf("charge row is required")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row.ID != 0 {
		var count int64
		if err := transaction.WithContext(dbc.Ctx).Model(&types.Charge{}).Where("id = ?", row.ID).Count(&count).Error; err != nil {
			return nil, dberr.Map("charge.upsert", err)
		}
		if count > 0 {
			if err := transaction.WithContext(dbc.Ctx).Model(&types.Charge{}).Where("id = ?", row.ID).Updates(row).Error; err != nil {
				return nil, dberr.Map("charge.upsert", err)
			}
			return row, nil
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, dberr.Map("charge.upsert", err)
	}
	return row, nil
}

func (r *chargeRepo) GetByDefendantIDs(dbc dbctx.Context, defendantIDs []int64) ([]*types.Charge, error) {
	if len(defendantIDs) == 0 {
		return []*types.Charge{}, nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Charge
	if err := transaction.WithContext(dbc.Ctx).Where("defendant_id IN ?", defendantIDs).Order("id asc").Find(&rows).Error; err != nil {
		return nil, dberr.Map("charge.get_by_defendant_ids", err)
	}
	return rows, nil
}

func (r *chargeRepo) DeleteByDefendantIDs(dbc dbctx.Context, defendantIDs []int64) error {
	if len(defendantIDs) == 0 {
		return nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Where("defendant_id IN ?", defendantIDs).Delete(&types.Charge{}).Error; err != nil {
		return dberr.Map("charge.delete_by_defendant_ids", err)
	}
	return nil
}
