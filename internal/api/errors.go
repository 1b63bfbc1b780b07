package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/httputil"
	"github.com/persistorai/auditdesk/internal/metrics"
	"github.com/persistorai/auditdesk/internal/models"
)

// Error type labels used for the errors metric.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeValidationError = "validation_error"
	ErrCodeNotFound        = "not_found"
	ErrCodeConflict        = "conflict"
	ErrCodeUnauthorized    = "unauthorized"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeInternalError   = "internal_error"
)

// respondError counts the error and writes {"error": message}.
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, message)
}

// notFoundMessages are the client-facing texts for each lookup miss.
var notFoundMessages = []struct {
	err error
	msg string
}{
	{models.ErrEntityNotFound, "Entity not found"},
	{models.ErrPlanNotFound, "Plan not found"},
	{models.ErrAuditNotFound, "Audit not found"},
	{models.ErrFindingNotFound, "Finding not found"},
	{models.ErrRecommendationNotFound, "Recommendation not found"},
	{models.ErrTeamMemberNotFound, "Team member not found"},
	{models.ErrUserNotFound, "User not found"},
	{models.ErrRoleNotFound, "Role not found"},
}

func notFoundMessage(err error) string {
	for _, nf := range notFoundMessages {
		if errors.Is(err, nf.err) {
			return nf.msg
		}
	}

	return "Not found"
}

// respondServiceError maps a service error onto the HTTP error taxonomy.
// resource names the subject in conflict messages ("Entity has dependent records").
// Anything unrecognised is logged and passed through as a 500.
func respondServiceError(c *gin.Context, log *logrus.Logger, err error, resource, op string) {
	var refErr *models.ReferenceError

	switch {
	case models.IsValidation(err):
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
	case errors.As(err, &refErr):
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, refErr.Error())
	case errors.Is(err, models.ErrSelfParent), errors.Is(err, models.ErrParentCycle),
		errors.Is(err, models.ErrAlreadyAssigned), errors.Is(err, models.ErrRoleAlreadyAssigned):
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, notFoundMessage(err))
	case errors.Is(err, models.ErrHasDependents):
		respondError(c, http.StatusConflict, ErrCodeConflict, resource+" has dependent records")
	case errors.Is(err, models.ErrDuplicateKey):
		respondError(c, http.StatusConflict, ErrCodeConflict, resource+" already exists")
	case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, models.ErrInvalidToken):
		respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
	case errors.Is(err, models.ErrTooManyAttempts):
		var lockout *models.LockoutError
		if errors.As(err, &lockout) && lockout.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(lockout.RetryAfter.Seconds()))))
		}

		respondError(c, http.StatusTooManyRequests, ErrCodeRateLimited, err.Error())
	default:
		log.WithError(err).WithField("op", op).Error("request failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
	}
}
