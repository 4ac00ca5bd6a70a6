package casefile

import (
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/caselens/caselens-backend/internal/data/dberr"
	types "github.com/caselens/caselens-backend/internal/domain/casefile"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

type VersionRepo interface {
	Upsert(dbc dbctx.Context, row *types.Version) (*types.Version, error)
	GetByID(dbc dbctx.Context, id int64) (*types.Version, error)
	GetByDocumentIDs(dbc dbctx.Context, documentIDs []int64) ([]*types.Version, error)
	UpdateParsedPointers(dbc dbctx.Context, id int64, container, blobName string, meta datatypes.JSON) error
	DeleteByDocumentIDs(dbc dbctx.Context, documentIDs []int64) error
}

type versionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVersionRepo(db *gorm.DB, baseLog *logger.Logger) VersionRepo {
	repoLog := baseLog.With("repo", "VersionRepo")
	return &versionRepo{db: db, log: repoLog}
}

func (r *versionRepo) Upsert(dbc dbctx.Context, row *types.Version) (*types.Version, error) {
	if row == nil {
		return nil, fmt.Errorf("version row is required")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row.ID != 0 {
		var count int64
		if err := transaction.WithContext(dbc.Ctx).Model(&types.Version{}).Where("id = ?", row.ID).Count(&count).Error; err != nil {
			return nil, dberr.Map("version.upsert", err)
		}
		if count > 0 {
			if err := transaction.WithContext(dbc.Ctx).Model(&types.Version{}).Where("id = ?", row.ID).Updates(row).Error; err != nil {
				return nil, dberr.Map("version.upsert", err)
			}
			return row, nil
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, dberr.Map("version.upsert", err)
	}
	return row, nil
}

func (r *versionRepo) GetByID(dbc dbctx.Context, id int64) (*types.Version, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Version
	if err := transaction.WithContext(dbc.Ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, dberr.Map("version.get_by_id", err)
	}
	return &row, nil
}

func (r *versionRepo) GetByDocumentIDs(dbc dbctx.Context, documentIDs []int64) ([]*types.Version, error) {
	if len(documentIDs) == 0 {
		return []*types.Version{}, nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Version
	if err := transaction.WithContext(dbc.Ctx).Where("document_id IN ?", documentIDs).Order("id asc").Find(&rows).Error; err != nil {
		return nil, dberr.Map("version.get_by_document_ids", err)
	}
	return rows, nil
}

// UpdateParsedPointers records where the parsed payload landed once the raw
// blob has been run through extraction.
func (r *versionRepo) UpdateParsedPointers(dbc dbctx.Context, id int64, container, blobName string, meta datatypes.JSON) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	updates := map[string]any{
		"parsed_blob_container": container,
		"parsed_blob_name":      blobName,
	}
	if len(meta) > 0 {
		updates["parse_meta"] = meta
	}
	res := transaction.WithContext(dbc.Ctx).Model(&types.Version{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return dberr.Map("version.update_parsed_pointers", res.Error)
	}
	if res.RowsAffected == 0 {
		return dberr.Map("version.update_parsed_pointers", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *versionRepo) DeleteByDocumentIDs(dbc dbctx.Context, documentIDs []int64) error {
	if len(documentIDs) == 0 {
		return nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Where("document_id IN ?", documentIDs).Delete(&types.Version{}).Error; err != nil {
		return dberr.Map("version.delete_by_document_ids", err)
	}
	return nil
}
