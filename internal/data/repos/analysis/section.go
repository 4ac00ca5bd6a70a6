package analysis

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/caselens/caselens-backend/internal/data/dberr"
	types "github.com/caselens/caselens-backend/internal/domain/analysis"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

// SectionRepo persists extracted sections. Rows are append-only; the blob
// pointers are back-filled once the section text has been uploaded.
type SectionRepo interface {
	Create(dbc dbctx.Context, row *types.Section) (*types.Section, error)
	GetByID(dbc dbctx.Context, id int64) (*types.Section, error)
	GetByExperimentID(dbc dbctx.Context, experimentID string) ([]*types.Section, error)
	GetByVersionIDs(dbc dbctx.Context, versionIDs []int64) ([]*types.Section, error)
	UpdateContentPointers(dbc dbctx.Context, id int64, container, blobName string) error
	DeleteByVersionIDs(dbc dbctx.Context, versionIDs []int64) error
}

type sectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSectionRepo(db *gorm.DB, baseLog *logger.Logger) SectionRepo {
	repoLog := baseLog.With("repo", "SectionRepo")
	return &sectionRepo{db: db, log: repoLog}
}

func (r *sectionRepo) Create(dbc dbctx.Context, row *types.Section) (*types.Section, error) {
	if row == nil {
		return nil, fmt.Errorf("section row is required")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, dberr.Map("section.create", err)
	}
	return row, nil
}

func (r *sectionRepo) GetByID(dbc dbctx.Context, id int64) (*types.Section, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Section
	if err := transaction.WithContext(dbc.Ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, dberr.Map("section.get_by_id", err)
	}
	return &row, nil
}

func (r *sectionRepo) GetByExperimentID(dbc dbctx.Context, experimentID string) ([]*types.Section, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Section
	if err := transaction.WithContext(dbc.Ctx).Where("experiment_id = ?", experimentID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, dberr.Map("section.get_by_experiment_id", err)
	}
	return rows, nil
}

func (r *sectionRepo) GetByVersionIDs(dbc dbctx.Context, versionIDs []int64) ([]*types.Section, error) {
	if len(versionIDs) == 0 {
		return []*types.Section{}, nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Section
	if err := transaction.WithContext(dbc.Ctx).Where("version_id IN ?", versionIDs).Order("id asc").Find(&rows).Error; err != nil {
		return nil, dberr.Map("section.get_by_version_ids", err)
	}
	return rows, nil
}

func (r *sectionRepo) UpdateContentPointers(dbc dbctx.Context, id int64, container, blobName string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).Model(&types.Section{}).Where("id = ?", id).Updates(map[string]any{
		"content_blob_container": container,
		"content_blob_name":      blobName,
	})
	if res.Error != nil {
		return dberr.Map("section.update_content_pointers", res.Error)
	}
	if res.RowsAffected == 0 {
		return dberr.Map("section.update_content_pointers", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *sectionRepo) DeleteByVersionIDs(dbc dbctx.Context, versionIDs []int64) error {
	if len(versionIDs) == 0 {
		return nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Where("version_id IN ?", versionIDs).Delete(&types.Section{}).Error; err != nil {
		return dberr.Map("section.delete_by_version_ids", err)
	}
	return nil
}
