package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/domain"
	"github.com/persistorai/auditdesk/internal/models"
)

// ActivityHandler serves the write-activity log.
type ActivityHandler struct {
	svc domain.ActivityService
	log *logrus.Logger
}

// NewActivityHandler creates an ActivityHandler.
func NewActivityHandler(svc domain.ActivityService, log *logrus.Logger) *ActivityHandler {
	return &ActivityHandler{svc: svc, log: log}
}

// Query handles GET /activity.
func (h *ActivityHandler) Query(c *gin.Context) {
	opts := models.ActivityQueryOpts{
		ResourceType: c.Query("resource_type"),
		ResourceID:   c.Query("resource_id"),
		Action:       c.Query("action"),
		Actor:        c.Query("actor"),
		Limit:        parseLimit(c.Query("limit")),
		Offset:       parseOffset(c.Query("offset")),
	}

	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid since format, use RFC3339")
			return
		}

		opts.Since = &t
	}

	entries, hasMore, err := h.svc.QueryActivity(c.Request.Context(), opts)
	if err != nil {
		respondServiceError(c, h.log, err, "Activity", "activity.query")
		return
	}

	if entries == nil {
		entries = []models.ActivityEntry{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     entries,
		"has_more": hasMore,
	})
}
