package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/domain"
	"github.com/persistorai/auditdesk/internal/models"
)

// AuditTeamHandler serves the audit sub-resources: team members and findings.
type AuditTeamHandler struct {
	audits   domain.AuditService
	findings domain.FindingService
	log      *logrus.Logger
}

// NewAuditTeamHandler creates an AuditTeamHandler.
func NewAuditTeamHandler(audits domain.AuditService, findings domain.FindingService, log *logrus.Logger) *AuditTeamHandler {
	return &AuditTeamHandler{audits: audits, findings: findings, log: log}
}

// auditID resolves the :id path parameter and checks the audit exists.
func (h *AuditTeamHandler) auditID(c *gin.Context) (string, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "Audit not found")
		return "", false
	}

	if err := h.audits.Exists(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.log, err, "Audit", "audit.exists")
		return "", false
	}

	return id, true
}

// ListTeam handles GET /audits/:id/team. The store reports a missing audit.
func (h *AuditTeamHandler) ListTeam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "Audit not found")
		return
	}

	team, err := h.audits.ListTeam(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err, "Team member", "audit.team.list")
		return
	}

	if team == nil {
		team = []models.TeamMember{}
	}

	c.JSON(http.StatusOK, team)
}

// AssignTeamMember handles POST /audits/:id/team.
func (h *AuditTeamHandler) AssignTeamMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "Audit not found")
		return
	}

	var in models.TeamMemberInput
	if !bindPayload(c, &in) {
		return
	}

	tm, err := h.audits.AssignTeamMember(c.Request.Context(), actorID(c), id, in)
	if err != nil {
		respondServiceError(c, h.log, err, "Team member", "audit.team.assign")
		return
	}

	h.log.WithFields(logrus.Fields{"action": "audit.team.assign", "id": id, "member": tm.UserID, "user_id": actorID(c)}).Info("activity")
	c.JSON(http.StatusCreated, tm)
}

// ReplaceTeam handles PUT /audits/:id/team.
func (h *AuditTeamHandler) ReplaceTeam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "Audit not found")
		return
	}

	var in models.TeamInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "Valid team_members array is required")
		return
	}

	if !validatePayload(c, &in) {
		return
	}

	team, err := h.audits.ReplaceTeam(c.Request.Context(), actorID(c), id, *in.TeamMembers)
	if err != nil {
		respondServiceError(c, h.log, err, "Team member", "audit.team.replace")
		return
	}

	if team == nil {
		team = []models.TeamMember{}
	}

	h.log.WithFields(logrus.Fields{"action": "audit.team.replace", "id": id, "size": len(team), "user_id": actorID(c)}).Info("activity")
	c.JSON(http.StatusOK, team)
}

// RemoveTeamMember handles DELETE /audits/:id/team/:userId.
func (h *AuditTeamHandler) RemoveTeamMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "Audit not found")
		return
	}

	userID, ok := pathID(c, "userId")
	if !ok {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "Team member not found")
		return
	}

	if err := h.audits.RemoveTeamMember(c.Request.Context(), actorID(c), id, userID); err != nil {
		respondServiceError(c, h.log, err, "Team member", "audit.team.remove")
		return
	}

	c.Status(http.StatusNoContent)
}

// ListFindings handles GET /audits/:id/findings.
func (h *AuditTeamHandler) ListFindings(c *gin.Context) {
	id, ok := h.auditID(c)
	if !ok {
		return
	}

	rows, err := h.findings.List(c.Request.Context(), models.ListParams{Filters: map[string]string{"audit_id": id}})
	if err != nil {
		respondServiceError(c, h.log, err, "Finding", "finding.list")
		return
	}

	if rows == nil {
		rows = []models.Finding{}
	}

	c.JSON(http.StatusOK, rows)
}

// CreateFinding handles POST /audits/:id/findings. The audit comes from the path.
func (h *AuditTeamHandler) CreateFinding(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "Audit not found")
		return
	}

	var in models.FindingInput
	if !decodeJSON(c, &in) {
		return
	}

	in.AuditID = &id
	if !validatePayload(c, &in) {
		return
	}

	in.ApplyDefaults()

	f, err := h.findings.Create(c.Request.Context(), actorID(c), &in)
	var refErr *models.ReferenceError
	if errors.As(err, &refErr) && refErr.Field == "audit_id" {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "Audit not found")
		return
	}

	if err != nil {
		respondServiceError(c, h.log, err, "Finding", "finding.create")
		return
	}

	h.log.WithFields(logrus.Fields{"action": "finding.create", "id": f.ID, "audit_id": id, "user_id": actorID(c)}).Info("activity")
	c.JSON(http.StatusCreated, f)
}
