package caserun

const (
	WorkflowName           = "case_run"
	ActivityIngest         = "case_run_ingest"
	ActivityAnalyzeSection = "case_run_analyze_section"
)

// Input starts one durable case run: ingest the triggered documents,
// then analyze every section the ingestion persisted.
type Input struct {
	TriggerType   string   `json:"trigger_type"`
	Value         string   `json:"value"`
	ExperimentID  string   `json:"experiment_id,omitempty"`
	TaskIDs       []string `json:"task_ids,omitempty"`
	CorrelationID string   `json:"correlation_id,omitempty"`
}

// IngestOutput carries the ingestion outcome into the analyze fan-out.
// Success=false is a domain outcome, not an activity failure.
type IngestOutput struct {
	Success      bool    `json:"success"`
	ExperimentID string  `json:"experiment_id"`
	SectionIDs   []int64 `json:"section_ids,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// AnalyzeOutput reports the analysis job created for one section.
type AnalyzeOutput struct {
	SectionID     int64 `json:"section_id"`
	AnalysisJobID int64 `json:"analysis_job_id"`
}

// Result is the workflow return value, mirroring the inline workflow
// envelope so callers can query either path the same way.
type Result struct {
	Status         string  `json:"status"`
	ExperimentID   string  `json:"experiment_id,omitempty"`
	SectionIDs     []int64 `json:"sections,omitempty"`
	AnalysisJobIDs []int64 `json:"analysis_job_ids,omitempty"`
	Error          string  `json:"error,omitempty"`
}
