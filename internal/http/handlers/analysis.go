package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/caselens/caselens-backend/internal/http/response"
	"github.com/caselens/caselens-backend/internal/pkg/ctxutil"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
	"github.com/caselens/caselens-backend/internal/services"
)

// AnalysisHandler runs the analysis task suite against an already
// ingested section.
type AnalysisHandler struct {
	log      *logger.Logger
	analysis services.AnalysisService
}

func NewAnalysisHandler(log *logger.Logger, analysis services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		log:      log.With("handler", "AnalysisHandler"),
		analysis: analysis,
	}
}

type analyzeRequest struct {
	SectionID int64    `json:"section_id"`
	TaskIDs   []string `json:"task_ids"`
}

type analyzeResponse struct {
	Status        string   `json:"status"`
	ExperimentID  string   `json:"experiment_id"`
	SectionID     int64    `json:"section_id"`
	AnalysisJobID int64    `json:"analysis_job_id"`
	TaskIDs       []string `json:"task_ids"`
	CorrelationID string   `json:"correlation_id"`
}

type analyzeError struct {
	Status        string `json:"status"`
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id"`
}

// POST /api/analysis
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.SectionID == 0 {
		response.RespondError(c, http.StatusBadRequest, "Missing required parameters, section_id is required")
		return
	}

	ctx := c.Request.Context()
	job, err := h.analysis.AnalyzeSection(ctx, req.SectionID, req.TaskIDs, "")
	if err != nil {
		h.log.Error("Analysis failed", "section_id", req.SectionID, "error", err)
		response.RespondStatus(c, false, analyzeError{
			Status:        "error",
			Error:         err.Error(),
			CorrelationID: ctxutil.CorrelationID(ctx),
		})
		return
	}

	response.RespondOK(c, analyzeResponse{
		Status:        "success",
		ExperimentID:  job.ExperimentID,
		SectionID:     job.SectionID,
		AnalysisJobID: job.ID,
		TaskIDs:       splitTaskIDs(job.TaskIDs),
		CorrelationID: ctxutil.CorrelationID(ctx),
	})
}

// splitTaskIDs undoes the comma join used to store the resolved task
// list on the job record. An empty list stays empty rather than
// becoming [""].
func splitTaskIDs(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, ",")
}
