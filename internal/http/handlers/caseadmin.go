package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/caselens/caselens-backend/internal/http/response"
	"github.com/caselens/caselens-backend/internal/pkg/ctxutil"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
	"github.com/caselens/caselens-backend/internal/services"
)

// CaseAdminHandler exposes destructive case maintenance. Deleting a
// case removes the whole tree underneath it: defendants, charges,
// documents, versions, sections and their analysis rows.
type CaseAdminHandler struct {
	log   *logger.Logger
	admin services.CaseAdminService
}

func NewCaseAdminHandler(log *logger.Logger, admin services.CaseAdminService) *CaseAdminHandler {
	return &CaseAdminHandler{
		log:   log.With("handler", "CaseAdminHandler"),
		admin: admin,
	}
}

type caseDeleted struct {
	Status        string                   `json:"status"`
	Deleted       *services.CaseTreeReport `json:"deleted"`
	CorrelationID string                   `json:"correlation_id"`
}

// DELETE /api/cases/:id
func (h *CaseAdminHandler) Delete(c *gin.Context) {
	caseID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "Invalid case id")
		return
	}

	ctx := c.Request.Context()
	report, err := h.admin.DeleteCaseTree(ctx, caseID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			response.RespondError(c, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error("Case delete failed", "case_id", caseID, "error", err)
		response.RespondStatus(c, false, setupError{
			Status:        "error",
			Error:         err.Error(),
			CorrelationID: ctxutil.CorrelationID(ctx),
		})
		return
	}

	h.log.Info("Case tree deleted", "case_id", caseID)
	response.RespondOK(c, caseDeleted{
		Status:        "success",
		Deleted:       report,
		CorrelationID: ctxutil.CorrelationID(ctx),
	})
}
