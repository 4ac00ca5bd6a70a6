package analysis

import (
	"gorm.io/gorm"

	"github.com/caselens/caselens-backend/internal/data/dberr"
	types "github.com/caselens/caselens-backend/internal/domain/analysis"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

type AnalysisResultRepo interface {
	Create(dbc dbctx.Context, rows []*types.AnalysisResult) ([]*types.AnalysisResult, error)
	GetByJobID(dbc dbctx.Context, jobID int64) ([]*types.AnalysisResult, error)
	DeleteByJobIDs(dbc dbctx.Context, jobIDs []int64) error
}

type analysisResultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnalysisResultRepo(db *gorm.DB, baseLog *logger.Logger) AnalysisResultRepo {
	repoLog := baseLog.With("repo", "AnalysisResultRepo")
	return &analysisResultRepo{db: db, log: repoLog}
}

func (r *analysisResultRepo) Create(dbc dbctx.Context, rows []*types.AnalysisResult) ([]*types.AnalysisResult, error) {
	if len(rows) == 0 {
		return rows, nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, dberr.Map("analysis_result.create", err)
	}
	return rows, nil
}

func (r *analysisResultRepo) GetByJobID(dbc dbctx.Context, jobID int64) ([]*types.AnalysisResult, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.AnalysisResult
	if err := transaction.WithContext(dbc.Ctx).Where("analysis_job_id = ?", jobID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, dberr.Map("analysis_result.get_by_job_id", err)
	}
	return rows, nil
}

func (r *analysisResultRepo) DeleteByJobIDs(dbc dbctx.Context, jobIDs []int64) error {
	if len(jobIDs) == 0 {
		return nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Where("analysis_job_id IN ?", jobIDs).Delete(&types.AnalysisResult{}).Error; err != nil {
		return dberr.Map("analysis_result.delete_by_job_ids", err)
	}
	return nil
}
