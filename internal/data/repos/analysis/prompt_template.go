package analysis

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/caselens/caselens-backend/internal/data/dberr"
	types "github.com/caselens/caselens-backend/internal/domain/analysis"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

// PromptTemplateRepo resolves prompts by (agent, theme, pattern). Branch
// agents are keyed by agent alone, so empty theme/pattern match the rows
// seeded without them.
type PromptTemplateRepo interface {
	Create(dbc dbctx.Context, row *types.PromptTemplate) (*types.PromptTemplate, error)
	GetByID(dbc dbctx.Context, id int64) (*types.PromptTemplate, error)
	GetLatestBy(dbc dbctx.Context, agent, theme, pattern string) (*types.PromptTemplate, error)
	UpsertByKey(dbc dbctx.Context, row *types.PromptTemplate) (*types.PromptTemplate, error)
}

type promptTemplateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPromptTemplateRepo(db *gorm.DB, baseLog *logger.Logger) PromptTemplateRepo {
	repoLog := baseLog.With("repo", "PromptTemplateRepo")
	return &promptTemplateRepo{db: db, log: repoLog}
}

func (r *promptTemplateRepo) Create(dbc dbctx.Context, row *types.PromptTemplate) (*types.PromptTemplate, error) {
	if row == nil {
		return nil, fmt.Errorf("prompt template row is required")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, dberr.Map("prompt_template.create", err)
	}
	return row, nil
}

func (r *promptTemplateRepo) GetByID(dbc dbctx.Context, id int64) (*types.PromptTemplate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.PromptTemplate
	if err := transaction.WithContext(dbc.Ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, dberr.Map("prompt_template.get_by_id", err)
	}
	return &row, nil
}

// GetLatestBy returns the highest-versioned template for the key.
func (r *promptTemplateRepo) GetLatestBy(dbc dbctx.Context, agent, theme, pattern string) (*types.PromptTemplate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.PromptTemplate
	err := transaction.WithContext(dbc.Ctx).
		Where("agent = ? AND theme = ? AND pattern = ?", agent, theme, pattern).
		Order("version desc").
		Order("id desc").
		First(&row).Error
	if err != nil {
		return nil, dberr.Map("prompt_template.get_latest_by", err)
	}
	return &row, nil
}

// UpsertByKey replaces the template body for an existing
// (agent, theme, pattern, version) key or inserts a new row. Seeding the same
// pack twice leaves a single row per key.
func (r *promptTemplateRepo) UpsertByKey(dbc dbctx.Context, row *types.PromptTemplate) (*types.PromptTemplate, error) {
	if row == nil {
		return nil, fmt.Errorf("prompt template row is required")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var existing types.PromptTemplate
	err := transaction.WithContext(dbc.Ctx).
		Where("agent = ? AND theme = ? AND pattern = ? AND version = ?", row.Agent, row.Theme, row.Pattern, row.Version).
		First(&existing).Error
	if err == nil {
		updates := map[string]any{"template": row.Template, "name": row.Name}
		if err := transaction.WithContext(dbc.Ctx).Model(&types.PromptTemplate{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			return nil, dberr.Map("prompt_template.upsert_by_key", err)
		}
		row.ID = existing.ID
		return row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, dberr.Map("prompt_template.upsert_by_key", err)
	}
	if err := transaction.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, dberr.Map("prompt_template.upsert_by_key", err)
	}
	return row, nil
}
