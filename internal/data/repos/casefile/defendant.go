package casefile

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/caselens/caselens-backend/internal/data/dberr"
	types "github.com/caselens/caselens-backend/internal/domain/casefile"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

type DefendantRepo interface {
	Upsert(dbc dbctx.Context, row *types.Defendant) (*types.Defendant, error)
	GetByCaseID(dbc dbctx.Context, caseID int64) ([]*types.Defendant, error)
	DeleteByCaseIDs(dbc dbctx.Context, caseIDs []int64) error
}

type defendantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDefendantRepo(db *gorm.DB, baseLog *logger.Logger) DefendantRepo {
	repoLog := baseLog.With("repo", "DefendantRepo")
	return &defendantRepo{db: db, log: repoLog}
}

func (r *defendantRepo) Upsert(dbc dbctx.Context, row *types.Defendant) (*types.Defendant, error) {
	if row == nil {
		return nil, fmt.Errorf("defendant row is required")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row.ID != 0 {
		var count int64
		if err := transaction.WithContext(dbc.Ctx).Model(&types.Defendant{}).Where("id = ?", row.ID).Count(&count).Error; err != nil {
			return nil, dberr.Map("defendant.upsert", err)
		}
		if count > 0 {
			if err := transaction.WithContext(dbc.Ctx).Model(&types.Defendant{}).Where("id = ?", row.ID).Updates(row).Error; err != nil {
				return nil, dberr.Map("defendant.upsert", err)
			}
			return row, nil
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, dberr.Map("defendant.upsert", err)
	}
	return row, nil
}

func (r *defendantRepo) GetByCaseID(dbc dbctx.Context, caseID int64) ([]*types.Defendant, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Defendant
	if err := transaction.WithContext(dbc.Ctx).Where("case_id = ?", caseID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, dberr.Map("defendant.get_by_case_id", err)
	}
	return rows, nil
}

func (r *defendantRepo) DeleteByCaseIDs(dbc dbctx.Context, caseIDs []int64) error {
	if len(caseIDs) == 0 {
		return nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Where("case_id IN ?", caseIDs).Delete(&types.Defendant{}).Error; err != nil {
		return dberr.Map("defendant.delete_by_case_ids", err)
	}
	return nil
}
