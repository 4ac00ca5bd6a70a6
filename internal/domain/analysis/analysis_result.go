package analysis

import (
	"time"
)

// AnalysisResult is the append-only union row covering every worker kind.
// Plain workers fill content/justification/confidence; the critic graph also
// fills the witness, rewrite, defence and reviewer fields.
type AnalysisResult struct {
	ID               int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ExperimentID     string `gorm:"column:experiment_id;type:varchar(36);not null;index" json:"experiment_id"`
	AnalysisJobID    int64  `gorm:"column:analysis_job_id;not null;index" json:"analysis_job_id"`
	PromptTemplateID *int64 `gorm:"column:prompt_template_id" json:"prompt_template_id,omitempty"`

	ThemeID        string   `gorm:"column:theme_id;index" json:"theme_id,omitempty"`
	PatternID      string   `gorm:"column:pattern_id;index" json:"pattern_id,omitempty"`
	Content        string   `gorm:"column:content;type:text;not null" json:"content"`
	Justification  string   `gorm:"column:justification;type:text" json:"justification,omitempty"`
	CategoryID     string   `gorm:"column:category_id;type:text;index" json:"category_id,omitempty"`
	SelfConfidence *float64 `gorm:"column:self_confidence" json:"self_confidence,omitempty"`

	IsWitness            *bool  `gorm:"column:is_witness" json:"is_witness,omitempty"`
	RewrittenPhrase      string `gorm:"column:rewritten_phrase;type:text" json:"rewritten_phrase,omitempty"`
	RewrittenExplanation string `gorm:"column:rewritten_explanation;type:text" json:"rewritten_explanation,omitempty"`

	DefenceVerdict  string `gorm:"column:defence_verdict" json:"defence_verdict,omitempty"`
	DefencePattern  string `gorm:"column:defence_pattern" json:"defence_pattern,omitempty"`
	DefenceArgument string `gorm:"column:defence_argument;type:text" json:"defence_argument,omitempty"`

	ReviewerFinalVerdict    string   `gorm:"column:reviewer_final_verdict" json:"reviewer_final_verdict,omitempty"`
	ReviewerConfidenceScore *float64 `gorm:"column:reviewer_confidence_score" json:"reviewer_confidence_score,omitempty"`
	ReviewerReasoning       string   `gorm:"column:reviewer_reasoning;type:text" json:"reviewer_reasoning,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (AnalysisResult) TableName() string { return "analysis_results" }
