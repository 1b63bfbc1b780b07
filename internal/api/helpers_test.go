package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/api"
	"github.com/persistorai/auditdesk/internal/models"
)

// Bearer tokens accepted by mockAuth, one per role.
const (
	adminToken   = "admin-token"
	managerToken = "manager-token"
	leadToken    = "lead-token"
	memberToken  = "member-token"
	viewerToken  = "viewer-token"
	noRoleToken  = "norole-token"
)

const (
	testEntityID  = "11111111-1111-1111-1111-111111111111"
	testAuditID   = "22222222-2222-2222-2222-222222222222"
	testFindingID = "33333333-3333-3333-3333-333333333333"
	testUserID    = "44444444-4444-4444-4444-444444444444"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

// testServices bundles the mocks behind a full router.
type testServices struct {
	entities *mockResource[models.Entity, models.EntityInput, models.EntityInput]
	plans    *mockResource[models.Plan, models.PlanInput, models.PlanInput]
	audits   *mockAudits
	findings *mockResource[models.Finding, models.FindingInput, models.FindingUpdate]
	recs     *mockResource[models.Recommendation, models.RecommendationInput, models.RecommendationInput]
	auth     *mockAuth
	activity *mockActivity
}

func newTestServices() *testServices {
	return &testServices{
		entities: &mockResource[models.Entity, models.EntityInput, models.EntityInput]{},
		plans:    &mockResource[models.Plan, models.PlanInput, models.PlanInput]{},
		audits:   &mockAudits{},
		findings: &mockResource[models.Finding, models.FindingInput, models.FindingUpdate]{},
		recs:     &mockResource[models.Recommendation, models.RecommendationInput, models.RecommendationInput]{},
		auth:     newMockAuth(),
		activity: &mockActivity{},
	}
}

// router builds the production route table over the mocks.
func (s *testServices) router(t *testing.T) http.Handler {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return api.NewRouter(ctx, &api.RouterDeps{
		Log:             testLogger(),
		Entities:        s.entities,
		Plans:           s.plans,
		Audits:          s.audits,
		Findings:        s.findings,
		Recommendations: s.recs,
		Auth:            s.auth,
		Dashboard:       dashboardStub{},
		Activity:        s.activity,
		CORSOrigins:     []string{"http://localhost:5173"},
		Version:         "test",
	})
}

// doRequest performs an HTTP request and returns the recorder. An empty
// token sends no Authorization header.
func doRequest(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, http.NoBody)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

// errorMessage decodes the {"error": "..."} body.
func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error body %q: %v", w.Body.String(), err)
	}

	if body.Error == "" {
		t.Fatalf("missing error field in %s", w.Body.String())
	}

	return body.Error
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()

	if w.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, w.Code, w.Body.String())
	}
}
