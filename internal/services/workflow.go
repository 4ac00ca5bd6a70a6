package services

import (
	"context"
	"fmt"

	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

// WorkflowResult is the end-to-end envelope: ingestion identifiers plus one
// analysis job per produced section.
type WorkflowResult struct {
	Status         string  `json:"status"`
	ExperimentID   string  `json:"experiment_id,omitempty"`
	SectionIDs     []int64 `json:"sections,omitempty"`
	AnalysisJobIDs []int64 `json:"analysis_job_ids,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// WorkflowService chains ingestion and analysis: every section the ingestion
// produced is analyzed in order, stopping at the first analysis failure.
type WorkflowService interface {
	Run(ctx context.Context, trigger TriggerType, value string, experimentID string, taskIDs []string) *WorkflowResult
}

type workflowService struct {
	log       *logger.Logger
	ingestion IngestionService
	analysis  AnalysisService
}

func NewWorkflowService(baseLog *logger.Logger, ingestion IngestionService, analysis AnalysisService) WorkflowService {
	return &workflowService{
		log:       baseLog.With("service", "WorkflowService"),
		ingestion: ingestion,
		analysis:  analysis,
	}
}

func (w *workflowService) Run(ctx context.Context, trigger TriggerType, value string, experimentID string, taskIDs []string) *WorkflowResult {
	w.log.Info("workflow started", "trigger", trigger, "value", value, "experiment_id", experimentID)

	ingest := w.ingestion.Ingest(ctx, trigger, value, experimentID)
	if !ingest.Success {
		return &WorkflowResult{
			Status:       "error",
			ExperimentID: ingest.ExperimentID,
			SectionIDs:   ingest.SectionIDs,
			Error:        ingest.Error,
		}
	}

	result := &WorkflowResult{
		Status:       "success",
		ExperimentID: ingest.ExperimentID,
		SectionIDs:   ingest.SectionIDs,
	}
	for _, sectionID := range ingest.SectionIDs {
		job, err := w.analysis.AnalyzeSection(ctx, sectionID, taskIDs, ingest.ExperimentID)
		if err != nil {
			w.log.Error("workflow analysis failed", "section_id", sectionID, "error", err)
			result.Status = "error"
			result.Error = fmt.Sprintf("analysis failed for section %d: %v", sectionID, err)
			return result
		}
		result.AnalysisJobIDs = append(result.AnalysisJobIDs, job.ID)
	}

	w.log.Info("workflow finished",
		"experiment_id", result.ExperimentID,
		"sections", len(result.SectionIDs),
		"analysis_jobs", len(result.AnalysisJobIDs),
	)
	return result
}
