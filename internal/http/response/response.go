package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is the flat envelope for request-level failures: malformed
// JSON or missing parameters, rejected before any orchestrator runs.
type APIError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// RespondOK writes payload with 200. Payloads carry their own status field.
func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondStatus mirrors the payload's success flag onto the HTTP code:
// 200 when ok, 500 otherwise. The body is the same either way because
// orchestrators report failure inside their result envelope.
func RespondStatus(c *gin.Context, ok bool, payload any) {
	if ok {
		c.JSON(http.StatusOK, payload)
		return
	}
	c.JSON(http.StatusInternalServerError, payload)
}

// RespondError writes the flat error envelope with the given status.
func RespondError(c *gin.Context, status int, message string) {
	c.JSON(status, APIError{Status: "error", Message: message})
}
