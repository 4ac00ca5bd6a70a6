package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caselens/caselens-backend/internal/http/response"
	"github.com/caselens/caselens-backend/internal/pkg/ctxutil"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
	"github.com/caselens/caselens-backend/internal/services"
)

// IngestionHandler accepts ingestion triggers and runs the document
// pipeline synchronously, returning the ids of the sections it persisted.
type IngestionHandler struct {
	log       *logger.Logger
	ingestion services.IngestionService
}

func NewIngestionHandler(log *logger.Logger, ingestion services.IngestionService) *IngestionHandler {
	return &IngestionHandler{
		log:       log.With("handler", "IngestionHandler"),
		ingestion: ingestion,
	}
}

type ingestRequest struct {
	TriggerType  string `json:"trigger_type"`
	Value        string `json:"value"`
	ExperimentID string `json:"experiment_id"`
}

type ingestResponse struct {
	Status        string  `json:"status"`
	SectionIDs    []int64 `json:"section_ids"`
	ExperimentID  string  `json:"experiment_id"`
	CorrelationID string  `json:"correlation_id"`
	Error         string  `json:"error,omitempty"`
}

// POST /api/ingestion
func (h *IngestionHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.TriggerType == "" {
		req.TriggerType = string(services.TriggerURN)
	}
	if req.Value == "" {
		response.RespondError(c, http.StatusBadRequest, "Missing required parameters, trigger_type and value are required")
		return
	}

	ctx := c.Request.Context()
	result := h.ingestion.Ingest(ctx, services.TriggerType(req.TriggerType), req.Value, req.ExperimentID)

	resp := ingestResponse{
		Status:        "success",
		SectionIDs:    result.SectionIDs,
		ExperimentID:  result.ExperimentID,
		CorrelationID: ctxutil.CorrelationID(ctx),
	}
	if !result.Success {
		resp.Status = "error"
		resp.Error = result.Error
	}
	response.RespondStatus(c, result.Success, resp)
}
