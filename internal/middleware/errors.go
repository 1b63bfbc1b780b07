package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/persistorai/auditdesk/internal/httputil"
	"github.com/persistorai/auditdesk/internal/metrics"
)

// respondError counts the error by type and writes the shared error body.
func respondError(c *gin.Context, code int, errType, message string) {
	metrics.ErrorsTotal.WithLabelValues(errType).Inc()
	httputil.RespondError(c, code, message)
}
