package analysis

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/caselens/caselens-backend/internal/data/dberr"
	types "github.com/caselens/caselens-backend/internal/domain/analysis"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

type AnalysisJobRepo interface {
	Create(dbc dbctx.Context, row *types.AnalysisJob) (*types.AnalysisJob, error)
	GetByID(dbc dbctx.Context, id int64) (*types.AnalysisJob, error)
	GetBySectionIDs(dbc dbctx.Context, sectionIDs []int64) ([]*types.AnalysisJob, error)
	DeleteBySectionIDs(dbc dbctx.Context, sectionIDs []int64) error
}

type analysisJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnalysisJobRepo(db *gorm.DB, baseLog *logger.Logger) AnalysisJobRepo {
	repoLog := baseLog.With("repo", "AnalysisJobRepo")
	return &analysisJobRepo{db: db, log: repoLog}
}

func (r *analysisJobRepo) Create(dbc dbctx.Context, row *types.AnalysisJob) (*types.AnalysisJob, error) {
	if row == nil {
		return nil, fmt.Errorf("analysis job row is required")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, dberr.Map("analysis_job.create", err)
	}
	return row, nil
}

func (r *analysisJobRepo) GetByID(dbc dbctx.Context, id int64) (*types.AnalysisJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.AnalysisJob
	if err := transaction.WithContext(dbc.Ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, dberr.Map("analysis_job.get_by_id", err)
	}
	return &row, nil
}

func (r *analysisJobRepo) GetBySectionIDs(dbc dbctx.Context, sectionIDs []int64) ([]*types.AnalysisJob, error) {
	if len(sectionIDs) == 0 {
		return []*types.AnalysisJob{}, nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.AnalysisJob
	if err := transaction.WithContext(dbc.Ctx).Where("section_id IN ?", sectionIDs).Order("id asc").Find(&rows).Error; err != nil {
		return nil, dberr.Map("analysis_job.get_by_section_ids", err)
	}
	return rows, nil
}

func (r *analysisJobRepo) DeleteBySectionIDs(dbc dbctx.Context, sectionIDs []int64) error {
	if len(sectionIDs) == 0 {
		return nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Where("section_id IN ?", sectionIDs).Delete(&types.AnalysisJob{}).Error; err != nil {
		return dberr.Map("analysis_job.delete_by_section_ids", err)
	}
	return nil
}
