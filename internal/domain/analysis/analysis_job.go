package analysis

import (
	"time"
)

// AnalysisJob records one invocation of the analysis pipeline against one
// section. TaskIDs is the comma-joined resolved task set, fixed at creation.
type AnalysisJob struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ExperimentID string `gorm:"column:experiment_id;type:varchar(36);not null;index" json:"experiment_id"`
	SectionID    int64  `gorm:"column:section_id;not null;index" json:"section_id"`
	TaskIDs      string `gorm:"column:task_ids;type:text" json:"task_ids"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (AnalysisJob) TableName() string { return "analysis_jobs" }
