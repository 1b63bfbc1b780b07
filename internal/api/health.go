// Package api provides the HTTP handlers and router for auditdesk.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/db"
	"github.com/persistorai/auditdesk/internal/dbpool"
)

// Pinger is an optional dependency probed by readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	pool      *dbpool.Pool
	redis     Pinger
	log       *logrus.Logger
	version   string
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler. redis may be nil when the
// denylist is held in memory.
func NewHealthHandler(pool *dbpool.Pool, redis Pinger, log *logrus.Logger, version string) *HealthHandler {
	return &HealthHandler{
		pool:      pool,
		redis:     redis,
		log:       log,
		version:   version,
		startTime: time.Now(),
	}
}

type readinessResponse struct {
	Status        string            `json:"status"`
	SchemaVersion int               `json:"schema_version"`
	Checks        map[string]string `json:"checks"`
}

type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(c *gin.Context) {
	resp := healthResponse{
		Status:        "ok",
		Version:       h.version,
		Database:      "connected",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	if h.pool != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.pool.HealthCheck(ctx); err != nil {
			resp.Database = "disconnected"
		}
	} else {
		resp.Database = "not_configured"
	}

	c.JSON(http.StatusOK, resp)
}

// Readiness handles GET /ready. It checks the database, that every embedded
// migration has been applied, and redis when configured.
func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := map[string]string{
		"database": "ok",
		"schema":   "ok",
		"redis":    "disabled",
	}
	ready := true

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if h.pool == nil {
		checks["database"] = "not_configured"
		checks["schema"] = "unknown"
		ready = false
	} else if err := h.pool.HealthCheck(ctx); err != nil {
		h.log.WithError(err).Error("readiness: database health check failed")
		checks["database"] = "error"
		checks["schema"] = "unknown"
		ready = false
	} else if err := h.checkSchema(ctx); err != nil {
		h.log.WithError(err).Error("readiness: schema check failed")
		checks["schema"] = "error"
		ready = false
	}

	if h.redis != nil {
		checks["redis"] = "ok"

		if err := h.redis.Ping(ctx); err != nil {
			h.log.WithError(err).Error("readiness: redis ping failed")
			checks["redis"] = "error"
			ready = false
		}
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	c.JSON(code, readinessResponse{
		Status:        status,
		SchemaVersion: db.SchemaVersion(),
		Checks:        checks,
	})
}

// checkSchema compares the applied goose version with the embedded migrations.
func (h *HealthHandler) checkSchema(ctx context.Context) error {
	var applied int

	err := h.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(version_id), 0) FROM goose_db_version WHERE is_applied`).Scan(&applied)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	if want := db.SchemaVersion(); applied < want {
		return fmt.Errorf("schema at version %d, binary expects %d", applied, want)
	}

	return nil
}
