package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/domain"
	"github.com/persistorai/auditdesk/internal/models"
)

// RecommendationHandler serves recommendations nested under a finding.
type RecommendationHandler struct {
	findings domain.FindingService
	recs     domain.RecommendationService
	log      *logrus.Logger
}

// NewRecommendationHandler creates a RecommendationHandler.
func NewRecommendationHandler(
	findings domain.FindingService, recs domain.RecommendationService, log *logrus.Logger,
) *RecommendationHandler {
	return &RecommendationHandler{findings: findings, recs: recs, log: log}
}

// List handles GET /findings/:id/recommendations.
func (h *RecommendationHandler) List(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "Finding not found")
		return
	}

	if _, err := h.findings.Get(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.log, err, "Finding", "finding.get")
		return
	}

	rows, err := h.recs.List(c.Request.Context(), models.ListParams{Filters: map[string]string{"finding_id": id}})
	if err != nil {
		respondServiceError(c, h.log, err, "Recommendation", "recommendation.list")
		return
	}

	if rows == nil {
		rows = []models.Recommendation{}
	}

	c.JSON(http.StatusOK, rows)
}

// Create handles POST /findings/:id/recommendations.
func (h *RecommendationHandler) Create(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "Finding not found")
		return
	}

	var in models.RecommendationInput
	if !bindPayload(c, &in) {
		return
	}

	in.FindingID = id
	in.ApplyDefaults()

	r, err := h.recs.Create(c.Request.Context(), actorID(c), &in)
	if err != nil {
		respondServiceError(c, h.log, err, "Recommendation", "recommendation.create")
		return
	}

	h.log.WithFields(logrus.Fields{"action": "recommendation.create", "id": r.ID, "finding_id": id, "user_id": actorID(c)}).Info("activity")
	c.JSON(http.StatusCreated, r)
}
