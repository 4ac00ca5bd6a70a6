package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.temporal.io/sdk/client"

	"github.com/caselens/caselens-backend/internal/http/response"
	"github.com/caselens/caselens-backend/internal/pkg/ctxutil"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
	"github.com/caselens/caselens-backend/internal/services"
	"github.com/caselens/caselens-backend/internal/temporalx/caserun"
)

// WorkflowHandler chains ingestion and analysis in one request. The
// default path runs inline and blocks until every section is analyzed;
// the durable path hands the same run to a Temporal worker and returns
// the workflow handle immediately.
type WorkflowHandler struct {
	log      *logger.Logger
	workflow services.WorkflowService
	temporal client.Client
	queue    string
}

func NewWorkflowHandler(log *logger.Logger, workflow services.WorkflowService, temporal client.Client, queue string) *WorkflowHandler {
	return &WorkflowHandler{
		log:      log.With("handler", "WorkflowHandler"),
		workflow: workflow,
		temporal: temporal,
		queue:    queue,
	}
}

type workflowRequest struct {
	TriggerType  string   `json:"trigger_type"`
	Value        string   `json:"value"`
	ExperimentID string   `json:"experiment_id"`
	TaskIDs      []string `json:"task_ids"`
	Durable      bool     `json:"durable"`
}

type workflowResponse struct {
	Status         string  `json:"status"`
	ExperimentID   string  `json:"experiment_id"`
	CorrelationID  string  `json:"correlation_id"`
	SectionIDs     []int64 `json:"sections"`
	AnalysisJobIDs []int64 `json:"analysis_job_ids"`
	Error          string  `json:"error,omitempty"`
}

type workflowStarted struct {
	Status        string `json:"status"`
	WorkflowID    string `json:"workflow_id"`
	RunID         string `json:"run_id"`
	CorrelationID string `json:"correlation_id"`
}

// POST /api/workflow
func (h *WorkflowHandler) Run(c *gin.Context) {
	var req workflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.TriggerType == "" || req.Value == "" {
		response.RespondError(c, http.StatusBadRequest, "Missing required parameters")
		return
	}

	ctx := c.Request.Context()
	if req.Durable {
		h.runDurable(c, req)
		return
	}

	result := h.workflow.Run(ctx, services.TriggerType(req.TriggerType), req.Value, req.ExperimentID, req.TaskIDs)
	resp := workflowResponse{
		Status:         result.Status,
		ExperimentID:   result.ExperimentID,
		CorrelationID:  ctxutil.CorrelationID(ctx),
		SectionIDs:     result.SectionIDs,
		AnalysisJobIDs: result.AnalysisJobIDs,
		Error:          result.Error,
	}
	response.RespondStatus(c, result.Status == "success", resp)
}

func (h *WorkflowHandler) runDurable(c *gin.Context, req workflowRequest) {
	ctx := c.Request.Context()
	if h.temporal == nil {
		response.RespondError(c, http.StatusBadRequest, "Durable workflow requires TEMPORAL_ADDRESS")
		return
	}

	workflowID, runID, err := caserun.Start(ctx, h.temporal, h.queue, caserun.Input{
		TriggerType:   req.TriggerType,
		Value:         req.Value,
		ExperimentID:  req.ExperimentID,
		TaskIDs:       req.TaskIDs,
		CorrelationID: ctxutil.CorrelationID(ctx),
	})
	if err != nil {
		h.log.Error("Durable workflow start failed", "error", err)
		response.RespondStatus(c, false, analyzeError{
			Status:        "error",
			Error:         err.Error(),
			CorrelationID: ctxutil.CorrelationID(ctx),
		})
		return
	}

	h.log.Info("Durable workflow started", "workflow_id", workflowID, "run_id", runID)
	response.RespondOK(c, workflowStarted{
		Status:        "success",
		WorkflowID:    workflowID,
		RunID:         runID,
		CorrelationID: ctxutil.CorrelationID(ctx),
	})
}
