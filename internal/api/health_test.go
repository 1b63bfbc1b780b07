package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/auditdesk/internal/api"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestLiveness_ReturnsOK(t *testing.T) {
	t.Parallel()

	h := api.NewHealthHandler(nil, nil, testLogger(), "test-v1")

	r := gin.New()
	r.GET("/health", h.Liveness)

	w := doRequest(r, http.MethodGet, "/health", "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if body["status"] != "ok" || body["version"] != "test-v1" {
		t.Errorf("unexpected body %v", body)
	}

	if body["database"] != "not_configured" {
		t.Errorf("database = %v, want not_configured", body["database"])
	}
}

func TestReadiness_NotReadyWithoutDatabase(t *testing.T) {
	t.Parallel()

	h := api.NewHealthHandler(nil, fakePinger{err: errors.New("down")}, testLogger(), "test-v1")

	r := gin.New()
	r.GET("/ready", h.Readiness)

	w := doRequest(r, http.MethodGet, "/ready", "", "")

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if body.Status != "not_ready" || body.Checks["redis"] != "error" {
		t.Errorf("unexpected readiness %+v", body)
	}
}

func TestNewRouter_WithoutCORSOrigins(t *testing.T) {
	t.Parallel()

	svc := newTestServices()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r := api.NewRouter(ctx, &api.RouterDeps{
		Log:             testLogger(),
		Entities:        svc.entities,
		Plans:           svc.plans,
		Audits:          svc.audits,
		Findings:        svc.findings,
		Recommendations: svc.recs,
		Auth:            svc.auth,
		Dashboard:       dashboardStub{},
		Activity:        svc.activity,
		Version:         "test",
	})

	w := doRequest(r, http.MethodGet, "/api/health", "", "")
	expectStatus(t, w, http.StatusOK)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected CORS header %q", got)
	}
}
