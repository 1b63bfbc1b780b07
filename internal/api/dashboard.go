package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/domain"
)

// DashboardHandler serves the dashboard counters.
type DashboardHandler struct {
	svc domain.DashboardService
	log *logrus.Logger
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(svc domain.DashboardService, log *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, log: log}
}

// Summary handles GET /dashboard.
func (h *DashboardHandler) Summary(c *gin.Context) {
	sum, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err, "Dashboard", "dashboard.summary")
		return
	}

	c.JSON(http.StatusOK, sum)
}
