package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caselens/caselens-backend/internal/http/response"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
	"github.com/caselens/caselens-backend/internal/services"
)

// HealthHandler exposes liveness and dependency checks.
type HealthHandler struct {
	log    *logger.Logger
	health services.HealthService
}

func NewHealthHandler(log *logger.Logger, health services.HealthService) *HealthHandler {
	return &HealthHandler{
		log:    log.With("handler", "HealthHandler"),
		health: health,
	}
}

// GET /ping
func (h *HealthHandler) Ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

// GET /api/health?route=
func (h *HealthHandler) Check(c *gin.Context) {
	report := h.health.Check(c.Request.Context(), c.Query("route"))
	ok := report["status"] == "success"
	response.RespondStatus(c, ok, report)
}
