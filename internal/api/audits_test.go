package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/persistorai/auditdesk/internal/models"
)

func existingAudit(svc *testServices) {
	svc.audits.getFn = func(_ context.Context, id string) (*models.Audit, error) {
		if id != testAuditID {
			return nil, models.ErrAuditNotFound
		}

		return &models.Audit{ID: testAuditID, Title: "Payroll"}, nil
	}
}

func TestAudits_DeleteWithFindings(t *testing.T) {
	t.Parallel()

	svc := newTestServices()
	svc.audits.deleteFn = func(context.Context, string) error {
		return models.ErrHasDependents
	}
	r := svc.router(t)

	w := doRequest(r, http.MethodDelete, "/api/audits/"+testAuditID, "", managerToken)
	expectStatus(t, w, http.StatusForbidden)

	w = doRequest(r, http.MethodDelete, "/api/audits/"+testAuditID, "", adminToken)
	expectStatus(t, w, http.StatusConflict)

	if msg := errorMessage(t, w); msg != "Audit has dependent records" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestAudits_AssignDuplicateMember(t *testing.T) {
	t.Parallel()

	svc := newTestServices()
	svc.audits.assignFn = func(context.Context, string, models.TeamMemberInput) (*models.TeamMember, error) {
		return nil, models.ErrAlreadyAssigned
	}
	r := svc.router(t)

	body := `{"user_id":"` + testUserID + `","role":"auditor"}`

	w := doRequest(r, http.MethodPost, "/api/audits/"+testAuditID+"/team", body, memberToken)
	expectStatus(t, w, http.StatusForbidden)

	w = doRequest(r, http.MethodPost, "/api/audits/"+testAuditID+"/team", body, leadToken)
	expectStatus(t, w, http.StatusBadRequest)

	if msg := errorMessage(t, w); msg != "User is already assigned to this audit" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestAudits_AssignMember(t *testing.T) {
	t.Parallel()

	svc := newTestServices()
	svc.audits.assignFn = func(_ context.Context, auditID string, in models.TeamMemberInput) (*models.TeamMember, error) {
		return &models.TeamMember{AuditID: auditID, UserID: in.UserID, Role: in.Role}, nil
	}
	r := svc.router(t)

	w := doRequest(r, http.MethodPost, "/api/audits/"+testAuditID+"/team",
		`{"user_id":"`+testUserID+`","role":"auditor"}`, adminToken)
	expectStatus(t, w, http.StatusCreated)

	var tm models.TeamMember
	if err := json.Unmarshal(w.Body.Bytes(), &tm); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if tm.AuditID != testAuditID || tm.Role != "auditor" {
		t.Fatalf("unexpected member %+v", tm)
	}

	w = doRequest(r, http.MethodPost, "/api/audits/"+testAuditID+"/team", `{"role":"auditor"}`, adminToken)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestAudits_ReplaceTeamRequiresArray(t *testing.T) {
	t.Parallel()

	svc := newTestServices()

	var replaced []models.TeamMemberInput
	svc.audits.replaceFn = func(_ context.Context, _ string, members []models.TeamMemberInput) ([]models.TeamMember, error) {
		replaced = members
		return []models.TeamMember{}, nil
	}
	r := svc.router(t)

	for _, body := range []string{`{}`, `{"team_members":"x"}`} {
		w := doRequest(r, http.MethodPut, "/api/audits/"+testAuditID+"/team", body, adminToken)
		expectStatus(t, w, http.StatusBadRequest)

		if msg := errorMessage(t, w); msg != "Valid team_members array is required" {
			t.Fatalf("body %s: unexpected message %q", body, msg)
		}
	}

	w := doRequest(r, http.MethodPut, "/api/audits/"+testAuditID+"/team", `{"team_members":[]}`, adminToken)
	expectStatus(t, w, http.StatusOK)

	if replaced == nil || len(replaced) != 0 {
		t.Fatalf("expected an empty replacement, got %#v", replaced)
	}
}

func TestAudits_RemoveMissingMember(t *testing.T) {
	t.Parallel()

	svc := newTestServices()
	svc.audits.removeFn = func(context.Context, string, string) error {
		return models.ErrTeamMemberNotFound
	}
	r := svc.router(t)

	w := doRequest(r, http.MethodDelete, "/api/audits/"+testAuditID+"/team/"+testUserID, "", adminToken)
	expectStatus(t, w, http.StatusNotFound)

	if msg := errorMessage(t, w); msg != "Team member not found" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestAudits_CreateFindingUnderAudit(t *testing.T) {
	t.Parallel()

	svc := newTestServices()
	existingAudit(svc)

	var got models.FindingInput
	svc.findings.createFn = func(_ context.Context, in *models.FindingInput) (*models.Finding, error) {
		got = *in
		return &models.Finding{ID: testFindingID, AuditID: *in.AuditID, Title: in.Title, Status: *in.Status}, nil
	}
	r := svc.router(t)

	w := doRequest(r, http.MethodPost, "/api/audits/"+testAuditID+"/findings", `{"title":"Missing approvals"}`, viewerToken)
	expectStatus(t, w, http.StatusForbidden)

	w = doRequest(r, http.MethodPost, "/api/audits/"+testAuditID+"/findings", `{"title":"Missing approvals"}`, memberToken)
	expectStatus(t, w, http.StatusCreated)

	if got.AuditID == nil || *got.AuditID != testAuditID {
		t.Fatalf("audit id not taken from path: %+v", got.AuditID)
	}

	if *got.Status != models.FindingStatusDraft || *got.RiskLevel != models.RiskMedium {
		t.Fatalf("defaults not applied: status=%s risk=%s", *got.Status, *got.RiskLevel)
	}
}

func TestAudits_FindingsOfMissingAudit(t *testing.T) {
	t.Parallel()

	svc := newTestServices()
	existingAudit(svc)
	r := svc.router(t)

	w := doRequest(r, http.MethodGet, "/api/audits/"+testEntityID+"/findings", "", viewerToken)
	expectStatus(t, w, http.StatusNotFound)

	if msg := errorMessage(t, w); msg != "Audit not found" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestFindings_CreateRecommendation(t *testing.T) {
	t.Parallel()

	svc := newTestServices()
	svc.findings.getFn = func(_ context.Context, id string) (*models.Finding, error) {
		if id != testFindingID {
			return nil, models.ErrFindingNotFound
		}

		return &models.Finding{ID: id}, nil
	}

	var got models.RecommendationInput
	svc.recs.createFn = func(_ context.Context, in *models.RecommendationInput) (*models.Recommendation, error) {
		got = *in
		return &models.Recommendation{FindingID: in.FindingID, Description: in.Description, Status: *in.Status}, nil
	}
	r := svc.router(t)

	path := "/api/findings/" + testFindingID + "/recommendations"

	w := doRequest(r, http.MethodPost, path, `{}`, memberToken)
	expectStatus(t, w, http.StatusBadRequest)

	if msg := errorMessage(t, w); msg != "Description is required" {
		t.Fatalf("unexpected message %q", msg)
	}

	w = doRequest(r, http.MethodPost, path, `{"description":"Add dual approval"}`, memberToken)
	expectStatus(t, w, http.StatusCreated)

	if got.FindingID != testFindingID || *got.Status != models.RecommendationStatusOpen {
		t.Fatalf("unexpected input %+v", got)
	}

	w = doRequest(r, http.MethodGet, "/api/findings/"+testAuditID+"/recommendations", "", memberToken)
	expectStatus(t, w, http.StatusNotFound)

	if msg := errorMessage(t, w); msg != "Finding not found" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestAudits_GetAlwaysCarriesRelations(t *testing.T) {
	t.Parallel()

	svc := newTestServices()
	svc.audits.getFn = func(_ context.Context, id string) (*models.Audit, error) {
		return &models.Audit{ID: id, TeamMembers: []models.TeamMember{}, Findings: []models.FindingSummary{}}, nil
	}
	svc.findings.getFn = func(_ context.Context, id string) (*models.Finding, error) {
		return &models.Finding{ID: id, Recommendations: []models.Recommendation{}}, nil
	}
	r := svc.router(t)

	tests := []struct {
		path string
		keys []string
	}{
		{path: "/api/audits/" + testAuditID, keys: []string{"team_members", "findings"}},
		{path: "/api/findings/" + testFindingID, keys: []string{"recommendations"}},
	}

	for _, tc := range tests {
		w := doRequest(r, http.MethodGet, tc.path, "", viewerToken)
		expectStatus(t, w, http.StatusOK)

		var body map[string]json.RawMessage
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}

		for _, key := range tc.keys {
			if got := string(body[key]); got != "[]" {
				t.Errorf("%s: %s = %q, want []", tc.path, key, got)
			}
		}
	}
}

func TestAudits_ListTeamSkipsDetailLoad(t *testing.T) {
	t.Parallel()

	svc := newTestServices()
	svc.audits.team = []models.TeamMember{{AuditID: testAuditID, UserID: testUserID, Role: "auditor"}}
	svc.audits.getFn = func(context.Context, string) (*models.Audit, error) {
		t.Error("team listing loaded the full audit")
		return nil, models.ErrAuditNotFound
	}
	r := svc.router(t)

	w := doRequest(r, http.MethodGet, "/api/audits/"+testAuditID+"/team", "", viewerToken)
	expectStatus(t, w, http.StatusOK)

	var team []models.TeamMember
	if err := json.Unmarshal(w.Body.Bytes(), &team); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(team) != 1 || team[0].UserID != testUserID {
		t.Fatalf("unexpected team %+v", team)
	}
}

func TestAudits_CreateFindingForMissingAudit(t *testing.T) {
	t.Parallel()

	svc := newTestServices()
	svc.findings.createFn = func(context.Context, *models.FindingInput) (*models.Finding, error) {
		return nil, &models.ReferenceError{Field: "audit_id"}
	}
	r := svc.router(t)

	w := doRequest(r, http.MethodPost, "/api/audits/"+testAuditID+"/findings", `{"title":"Missing approvals"}`, memberToken)
	expectStatus(t, w, http.StatusNotFound)

	if msg := errorMessage(t, w); msg != "Audit not found" {
		t.Fatalf("unexpected message %q", msg)
	}
}
