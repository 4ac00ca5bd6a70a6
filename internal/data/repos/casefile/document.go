package casefile

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/caselens/caselens-backend/internal/data/dberr"
	types "github.com/caselens/caselens-backend/internal/domain/casefile"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

type DocumentRepo interface {
	Upsert(dbc dbctx.Context, row *types.Document) (*types.Document, error)
	GetByID(dbc dbctx.Context, id int64) (*types.Document, error)
	GetByCaseIDs(dbc dbctx.Context, caseIDs []int64) ([]*types.Document, error)
	DeleteByCaseIDs(dbc dbctx.Context, caseIDs []int64) error
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	repoLog := baseLog.With("repo", "DocumentRepo")
	return &documentRepo{db: db, log: repoLog}
}

func (r *documentRepo) Upsert(dbc dbctx.Context, row *types.Document) (*types.Document, error) {
	if row == nil {
		return nil, fmt.Errorf("document row is required")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row.ID != 0 {
		var count int64
		if err := transaction.WithContext(dbc.Ctx).Model(&types.Document{}).Where("id = ?", row.ID).Count(&count).Error; err != nil {
			return nil, dberr.Map("document.upsert", err)
		}
		if count > 0 {
			if err := transaction.WithContext(dbc.Ctx).Model(&types.Document{}).Where("id = ?", row.ID).Updates(row).Error; err != nil {
				return nil, dberr.Map("document.upsert", err)
			}
			return row, nil
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, dberr.Map("document.upsert", err)
	}
	return row, nil
}

func (r *documentRepo) GetByID(dbc dbctx.Context, id int64) (*types.Document, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Document
	if err := transaction.WithContext(dbc.Ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, dberr.Map("document.get_by_id", err)
	}
	return &row, nil
}

func (r *documentRepo) GetByCaseIDs(dbc dbctx.Context, caseIDs []int64) ([]*types.Document, error) {
	if len(caseIDs) == 0 {
		return []*types.Document{}, nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Document
	if err := transaction.WithContext(dbc.Ctx).Where("case_id IN ?", caseIDs).Order("id asc").Find(&rows).Error; err != nil {
		return nil, dberr.Map("document.get_by_case_ids", err)
	}
	return rows, nil
}

func (r *documentRepo) DeleteByCaseIDs(dbc dbctx.Context, caseIDs []int64) error {
	if len(caseIDs) == 0 {
		return nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Where("case_id IN ?", caseIDs).Delete(&types.Document{}).Error; err != nil {
		return dberr.Map("document.delete_by_case_ids", err)
	}
	return nil
}
