package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/caselens/caselens-backend/internal/pkg/ctxutil"
)

const headerCorrelationID = "X-Correlation-Id"

// AttachCorrelationID stamps every request with a correlation id, taken
// from the inbound header when the caller supplied one. Audit events and
// log lines emitted downstream carry the same id, and the response echoes
// it back so callers can chase a run across systems.
func AttachCorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerCorrelationID))
		if id == "" {
			id = uuid.New().String()
		}
		ctx := ctxutil.WithCorrelationID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Set("correlation_id", id)
		c.Writer.Header().Set(headerCorrelationID, id)
		c.Next()
	}
}
