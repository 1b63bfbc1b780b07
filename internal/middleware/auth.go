// Package middleware provides HTTP middleware for auditdesk: the auth gateway,
// request ids, metrics, rate limiting and response hardening.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/metrics"
	"github.com/persistorai/auditdesk/internal/models"
)

// authTimingFloor is the minimum response time for rejected tokens so
// failures cannot be told apart by latency.
const authTimingFloor = 50 * time.Millisecond

// Context keys set by Authenticate.
const (
	IdentityKey = "identity"
	UserIDKey   = "user_id"
)

// Authenticator verifies bearer tokens and resolves the caller's role.
type Authenticator interface {
	VerifyToken(ctx context.Context, token string) (*models.Identity, error)
	ResolveRole(ctx context.Context, userID string) (string, error)
}

// enforceTimingFloor sleeps if needed so the response takes at least authTimingFloor.
func enforceTimingFloor(start time.Time) {
	if elapsed := time.Since(start); elapsed < authTimingFloor {
		time.Sleep(authTimingFloor - elapsed)
	}
}

// Authenticate validates the bearer token, resolves the caller's role fresh
// from the store and attaches the identity to the request context.
func Authenticate(auth Authenticator, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if c.Writer.Status() == http.StatusUnauthorized {
				enforceTimingFloor(start)
			}
		}()

		header := c.GetHeader("Authorization")
		if header == "" {
			reject(c, log, "missing_header", "Authorization header missing")
			return
		}

		token := ExtractBearerToken(c)
		if token == "" {
			reject(c, log, "missing_token", "Bearer token missing")
			return
		}

		ident, err := auth.VerifyToken(c.Request.Context(), token)
		if err != nil {
			reject(c, log, "invalid_token", models.ErrInvalidToken.Error())
			return
		}

		role, err := auth.ResolveRole(c.Request.Context(), ident.ID)
		if err != nil {
			log.WithError(err).WithField("user_id", ident.ID).Error("resolving role")
			respondError(c, http.StatusInternalServerError, "internal_error", err.Error())

			return
		}

		ident.Role = role

		c.Set(IdentityKey, ident)
		c.Set(UserIDKey, ident.ID)
		c.Next()
	}
}

// RequireRoles rejects callers whose resolved role is not in roles. It must run
// after Authenticate.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		ident, ok := IdentityFrom(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, "unauthorized", "User not authenticated")
			return
		}

		if _, ok := allowed[ident.Role]; !ok {
			metrics.AuthFailuresTotal.WithLabelValues("forbidden").Inc()
			respondError(c, http.StatusForbidden, "forbidden", "Insufficient permissions")

			return
		}

		c.Next()
	}
}

// IdentityFrom returns the identity attached by Authenticate.
func IdentityFrom(c *gin.Context) (*models.Identity, bool) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return nil, false
	}

	ident, ok := v.(*models.Identity)

	return ident, ok && ident != nil
}

// ExtractBearerToken returns the token from an "Authorization: Bearer <token>"
// header, or "" when the scheme is wrong or the token is empty.
func ExtractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// reject logs and counts an authentication failure and replies 401.
func reject(c *gin.Context, log *logrus.Logger, reason, message string) {
	metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()

	log.WithFields(logrus.Fields{
		"client_ip":  c.ClientIP(),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"request_id": c.GetString(RequestIDKey),
		"reason":     reason,
	}).Warn("authentication failed")

	respondError(c, http.StatusUnauthorized, "unauthorized", message)
}
