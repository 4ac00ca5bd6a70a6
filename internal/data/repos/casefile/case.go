package casefile

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/caselens/caselens-backend/internal/data/dberr"
	types "github.com/caselens/caselens-backend/internal/domain/casefile"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

// CaseRepo persists cases keyed by the CMS case identifier. Upsert keeps
// re-ingestion of the same URN idempotent.
type CaseRepo interface {
	Upsert(dbc dbctx.Context, row *types.Case) (*types.Case, error)
	GetByID(dbc dbctx.Context, id int64) (*types.Case, error)
	GetByURN(dbc dbctx.Context, urn string) (*types.Case, error)
	DeleteByIDs(dbc dbctx.Context, ids []int64) error
}

type caseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCaseRepo(db *gorm.DB, baseLog *logger.Logger) CaseRepo {
	repoLog := baseLog.With("repo", "CaseRepo")
	return &caseRepo{db: db, log: repoLog}
}

func (r *caseRepo) Upsert(dbc dbctx.Context, row *types.Case) (*types.Case, error) {
	if row == nil {
		return nil, fmt.Errorf("case row is required")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row.ID != 0 {
		var count int64
		if err := transaction.WithContext(dbc.Ctx).Model(&types.Case{}).Where("id = ?", row.ID).Count(&count).Error; err != nil {
			return nil, dberr.Map("case.upsert", err)
		}
		if count > 0 {
			if err := transaction.WithContext(dbc.Ctx).Model(&types.Case{}).Where("id = ?", row.ID).Updates(row).Error; err != nil {
				return nil, dberr.Map("case.upsert", err)
			}
			return row, nil
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, dberr.Map("case.upsert", err)
	}
	return row, nil
}

func (r *caseRepo) GetByID(dbc dbctx.Context, id int64) (*types.Case, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Case
	if err := transaction.WithContext(dbc.Ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, dberr.Map("case.get_by_id", err)
	}
	return &row, nil
}

func (r *caseRepo) GetByURN(dbc dbctx.Context, urn string) (*types.Case, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Case
	if err := transaction.WithContext(dbc.Ctx).First(&row, "urn = ?", urn).Error; err != nil {
		return nil, dberr.Map("case.get_by_urn", err)
	}
	return &row, nil
}

func (r *caseRepo) DeleteByIDs(dbc dbctx.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Where("id IN ?", ids).Delete(&types.Case{}).Error; err != nil {
		return dberr.Map("case.delete_by_ids", err)
	}
	return nil
}
