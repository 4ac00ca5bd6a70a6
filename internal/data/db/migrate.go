package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/caselens/caselens-backend/internal/domain"
)

// AutoMigrateAll creates or updates every domain table.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(domain.AllModels()...)
}

// EnsureIndexes adds the composite indexes automigrate cannot express
// from struct tags. All statements are idempotent and valid on both
// postgres and sqlite.
func EnsureIndexes(db *gorm.DB) error {
	// Prompt upsert key: one row per (agent, theme, pattern, version).
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_prompt_templates_key
		ON prompt_templates (agent, theme, pattern, version);
	`).Error; err != nil {
		return fmt.Errorf("create idx_prompt_templates_key: %w", err)
	}

	// Audit queries filter by source and type over a time window.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_events_source_type_created
		ON events (source, event_type, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_events_source_type_created: %w", err)
	}

	// Findings roll up per experiment by theme and pattern.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_analysis_results_experiment_task
		ON analysis_results (experiment_id, theme_id, pattern_id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_analysis_results_experiment_task: %w", err)
	}

	return nil
}

// Migrate runs the full schema pass: tables first, then indexes.
func (s *Service) Migrate() error {
	s.log.Info("Migrating database schema")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureIndexes(s.db); err != nil {
		s.log.Error("Index migration failed", "error", err)
		return err
	}
	return nil
}
