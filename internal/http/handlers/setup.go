package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caselens/caselens-backend/internal/http/response"
	"github.com/caselens/caselens-backend/internal/pkg/ctxutil"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
	"github.com/caselens/caselens-backend/internal/services"
)

// SetupHandler exposes the environment bootstrap endpoint. It is meant
// for test and staging environments and is wired only when enabled.
type SetupHandler struct {
	log   *logger.Logger
	setup services.SetupService
}

func NewSetupHandler(log *logger.Logger, setup services.SetupService) *SetupHandler {
	return &SetupHandler{
		log:   log.With("handler", "SetupHandler"),
		setup: setup,
	}
}

type setupError struct {
	Status        string `json:"status"`
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id"`
}

// POST /api/setup
func (h *SetupHandler) Setup(c *gin.Context) {
	var req services.SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ctx := c.Request.Context()
	report, err := h.setup.Setup(ctx, req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSetupRequest) {
			response.RespondError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("Setup failed", "error", err)
		response.RespondStatus(c, false, setupError{
			Status:        "error",
			Error:         err.Error(),
			CorrelationID: ctxutil.CorrelationID(ctx),
		})
		return
	}
	response.RespondOK(c, report)
}
