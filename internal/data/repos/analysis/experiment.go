package analysis

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caselens/caselens-backend/internal/data/dberr"
	types "github.com/caselens/caselens-backend/internal/domain/analysis"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

// ExperimentRepo manages experiment rows. An experiment is only ever created
// once per id; re-running a run label reuses the existing row.
type ExperimentRepo interface {
	GetOrCreate(dbc dbctx.Context, id string) (*types.Experiment, error)
	GetByID(dbc dbctx.Context, id string) (*types.Experiment, error)
}

type experimentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExperimentRepo(db *gorm.DB, baseLog *logger.Logger) ExperimentRepo {
	repoLog := baseLog.With("repo", "ExperimentRepo")
	return &experimentRepo{db: db, log: repoLog}
}

func (r *experimentRepo) GetOrCreate(dbc dbctx.Context, id string) (*types.Experiment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == "" {
		id = uuid.NewString()
	}
	var row types.Experiment
	err := transaction.WithContext(dbc.Ctx).First(&row, "id = ?", id).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, dberr.Map("experiment.get_or_create", err)
	}
	row = types.Experiment{ID: id}
	if err := transaction.WithContext(dbc.Ctx).Create(&row).Error; err != nil {
		return nil, dberr.Map("experiment.get_or_create", err)
	}
	return &row, nil
}

func (r *experimentRepo) GetByID(dbc dbctx.Context, id string) (*types.Experiment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Experiment
	if err := transaction.WithContext(dbc.Ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, dberr.Map("experiment.get_by_id", err)
	}
	return &row, nil
}
