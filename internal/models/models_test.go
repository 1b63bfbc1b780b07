package models_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/persistorai/auditdesk/internal/models"
)

const testUUID = "6f1c2a4e-8b3d-4c55-9e21-0a7b3c9d1e2f"

func ptr[T any](v T) *T { return &v }

func assertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func assertErrorContains(t *testing.T, err error, want string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error containing %q, got nil", want)
	}

	if !strings.Contains(err.Error(), want) {
		t.Errorf("expected error containing %q, got %q", want, err.Error())
	}

	if !models.IsValidation(err) {
		t.Errorf("expected *ValidationError, got %T", err)
	}
}

func TestEntityInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     models.EntityInput
		wantErr string
	}{
		{name: "valid minimal", req: models.EntityInput{Name: "Treasury"}},
		{name: "valid full", req: models.EntityInput{Name: "Treasury", RiskLevel: ptr("high"), ParentID: ptr(testUUID)}},
		{name: "missing name", req: models.EntityInput{}, wantErr: "Name is required"},
		{name: "blank name", req: models.EntityInput{Name: "   "}, wantErr: "Name is required"},
		{name: "name too long", req: models.EntityInput{Name: strings.Repeat("x", 256)}, wantErr: "exceeds maximum length"},
		{name: "bad risk level", req: models.EntityInput{Name: "a", RiskLevel: ptr("extreme")}, wantErr: "risk_level must be one of: low, medium, high"},
		{name: "critical not allowed for entities", req: models.EntityInput{Name: "a", RiskLevel: ptr("critical")}, wantErr: "risk_level must be one of"},
		{name: "bad parent id", req: models.EntityInput{Name: "a", ParentID: ptr("nope")}, wantErr: "parent_id must be a valid id"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr != "" {
				assertErrorContains(t, err, tc.wantErr)
				return
			}
			assertNoError(t, err)
		})
	}
}

func TestEntityInput_Validate_EmptyOptionalsBecomeNull(t *testing.T) {
	req := models.EntityInput{Name: " Ops ", RiskLevel: ptr(""), ParentID: ptr("  ")}
	assertNoError(t, req.Validate())

	if req.Name != "Ops" {
		t.Errorf("Name = %q, want trimmed", req.Name)
	}

	if req.RiskLevel != nil || req.ParentID != nil {
		t.Errorf("expected empty optionals to be nil, got %v %v", req.RiskLevel, req.ParentID)
	}
}

func TestPlanInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     models.PlanInput
		wantErr string
	}{
		{name: "valid", req: models.PlanInput{Title: "FY plan", Year: ptr(2025)}},
		{name: "valid extended", req: models.PlanInput{
			Title: "FY plan", Year: ptr(2025), AuditType: ptr("risk-based"), Frequency: ptr("annually"),
			StartDate: ptr("2025-01-01"), EndDate: ptr("2025-12-31"), Entities: []string{testUUID},
		}},
		{name: "missing title", req: models.PlanInput{Year: ptr(2025)}, wantErr: "Title and year are required"},
		{name: "missing year", req: models.PlanInput{Title: "x"}, wantErr: "Title and year are required"},
		{name: "year out of range", req: models.PlanInput{Title: "x", Year: ptr(1200)}, wantErr: "year must be between"},
		{name: "bad status", req: models.PlanInput{Title: "x", Year: ptr(2025), Status: ptr("done")}, wantErr: "status must be one of"},
		{name: "bad date", req: models.PlanInput{Title: "x", Year: ptr(2025), StartDate: ptr("01/02/2025")}, wantErr: "start_date must be a date in YYYY-MM-DD format"},
		{name: "end before start", req: models.PlanInput{
			Title: "x", Year: ptr(2025), StartDate: ptr("2025-06-01"), EndDate: ptr("2025-05-01"),
		}, wantErr: "end_date must not be before start_date"},
		{name: "bad entity id", req: models.PlanInput{Title: "x", Year: ptr(2025), Entities: []string{"abc"}}, wantErr: "must be a valid id"},
		{name: "owner too long", req: models.PlanInput{Title: "x", Year: ptr(2025), Owner: ptr(strings.Repeat("o", 501))}, wantErr: "owner exceeds maximum length"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr != "" {
				assertErrorContains(t, err, tc.wantErr)
				return
			}
			assertNoError(t, err)
		})
	}
}

func TestAuditInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     models.AuditInput
		wantErr string
	}{
		{name: "valid", req: models.AuditInput{Title: "Cash count", EntityID: ptr(testUUID)}},
		{name: "valid with team", req: models.AuditInput{
			Title: "Cash count", EntityID: ptr(testUUID),
			TeamMembers: []models.TeamMemberInput{{UserID: testUUID, Role: "lead"}},
		}},
		{name: "missing title", req: models.AuditInput{EntityID: ptr(testUUID)}, wantErr: "Title and entity_id are required"},
		{name: "missing entity", req: models.AuditInput{Title: "x"}, wantErr: "Title and entity_id are required"},
		{name: "blank entity", req: models.AuditInput{Title: "x", EntityID: ptr("")}, wantErr: "Title and entity_id are required"},
		{name: "bad status", req: models.AuditInput{Title: "x", EntityID: ptr(testUUID), Status: ptr("open")}, wantErr: "status must be one of"},
		{name: "bad plan id", req: models.AuditInput{Title: "x", EntityID: ptr(testUUID), PlanID: ptr("p1")}, wantErr: "plan_id must be a valid id"},
		{name: "team member missing role", req: models.AuditInput{
			Title: "x", EntityID: ptr(testUUID),
			TeamMembers: []models.TeamMemberInput{{UserID: testUUID}},
		}, wantErr: "User ID and role are required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr != "" {
				assertErrorContains(t, err, tc.wantErr)
				return
			}
			assertNoError(t, err)
		})
	}
}

func TestTeamInput_Validate(t *testing.T) {
	other := "0b7e9d1c-2f3a-4e5b-8c6d-7e8f9a0b1c2d"

	tests := []struct {
		name    string
		req     models.TeamInput
		wantErr string
	}{
		{name: "empty team clears", req: models.TeamInput{TeamMembers: &[]models.TeamMemberInput{}}},
		{name: "valid", req: models.TeamInput{TeamMembers: &[]models.TeamMemberInput{
			{UserID: testUUID, Role: "lead"}, {UserID: other, Role: "auditor"},
		}}},
		{name: "missing array", req: models.TeamInput{}, wantErr: "Valid team_members array is required"},
		{name: "duplicate user", req: models.TeamInput{TeamMembers: &[]models.TeamMemberInput{
			{UserID: testUUID, Role: "lead"}, {UserID: strings.ToUpper(testUUID), Role: "auditor"},
		}}, wantErr: "duplicate user_id"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr != "" {
				assertErrorContains(t, err, tc.wantErr)
				return
			}
			assertNoError(t, err)
		})
	}
}

func TestFindingInputs_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     interface{ Validate() error }
		wantErr string
	}{
		{name: "create valid", req: &models.FindingInput{AuditID: ptr(testUUID), Title: "Missing approvals"}},
		{name: "create missing audit", req: &models.FindingInput{Title: "x"}, wantErr: "Audit ID and title are required"},
		{name: "create missing title", req: &models.FindingInput{AuditID: ptr(testUUID)}, wantErr: "Audit ID and title are required"},
		{name: "create bad risk", req: &models.FindingInput{AuditID: ptr(testUUID), Title: "x", RiskLevel: ptr("severe")}, wantErr: "risk_level must be one of"},
		{name: "update valid", req: &models.FindingUpdate{Title: "x", Status: ptr("open")}},
		{name: "update missing title", req: &models.FindingUpdate{}, wantErr: "Title is required"},
		{name: "recommendation valid", req: &models.RecommendationInput{Description: "Rotate keys", DueDate: ptr("2025-03-31")}},
		{name: "recommendation missing description", req: &models.RecommendationInput{}, wantErr: "Description is required"},
		{name: "recommendation bad assignee", req: &models.RecommendationInput{Description: "x", AssignedTo: ptr("bob")}, wantErr: "assigned_to must be a valid id"},
		{name: "recommendation bad status", req: &models.RecommendationInput{Description: "x", Status: ptr("done")}, wantErr: "status must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr != "" {
				assertErrorContains(t, err, tc.wantErr)
				return
			}
			assertNoError(t, err)
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	audit := models.AuditInput{}
	audit.ApplyDefaults()
	if audit.Status == nil || *audit.Status != models.AuditStatusPlanned {
		t.Errorf("audit status default = %v", audit.Status)
	}

	finding := models.FindingInput{}
	finding.ApplyDefaults()
	if *finding.Status != models.FindingStatusDraft || *finding.RiskLevel != models.RiskMedium {
		t.Errorf("finding defaults = %s/%s", *finding.Status, *finding.RiskLevel)
	}

	rec := models.RecommendationInput{Status: ptr("closed")}
	rec.ApplyDefaults()
	if *rec.Status != "closed" {
		t.Errorf("explicit recommendation status overwritten: %s", *rec.Status)
	}

	plan := models.PlanInput{}
	plan.ApplyDefaults()
	if *plan.Status != models.PlanStatusDraft {
		t.Errorf("plan status default = %s", *plan.Status)
	}
}

func TestAuthRequests_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     interface{ Validate() error }
		wantErr string
	}{
		{name: "signup valid", req: &models.SignUpRequest{Email: "A@Example.com", Password: "correct-horse"}},
		{name: "signup missing password", req: &models.SignUpRequest{Email: "a@example.com"}, wantErr: "Email and password are required"},
		{name: "signup short password", req: &models.SignUpRequest{Email: "a@example.com", Password: "short"}, wantErr: "at least 8 characters"},
		{name: "signup bad email", req: &models.SignUpRequest{Email: "not-an-email", Password: "correct-horse"}, wantErr: "email must be a valid email address"},
		{name: "login valid", req: &models.LoginRequest{Email: "a@example.com", Password: "x"}},
		{name: "login missing email", req: &models.LoginRequest{Password: "x"}, wantErr: "Email and password are required"},
		{name: "profile missing email", req: &models.UpdateProfileRequest{}, wantErr: "Email is required"},
		{name: "assign role missing", req: &models.AssignRoleRequest{}, wantErr: "Role ID is required"},
		{name: "assign role zero", req: &models.AssignRoleRequest{RoleID: ptr(0)}, wantErr: "positive integer"},
		{name: "create user valid", req: &models.CreateUserRequest{Email: "b@example.com", Password: "correct-horse", Role: ptr("auditor")}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr != "" {
				assertErrorContains(t, err, tc.wantErr)
				return
			}
			assertNoError(t, err)
		})
	}
}

func TestSignUpRequest_NormalizesEmail(t *testing.T) {
	req := models.SignUpRequest{Email: "  Alice@Example.COM ", Password: "correct-horse"}
	assertNoError(t, req.Validate())

	if req.Email != "alice@example.com" {
		t.Errorf("Email = %q", req.Email)
	}
}

func TestPrimaryRole(t *testing.T) {
	roles := []models.Role{
		{Name: "viewer", Rank: 70},
		{Name: "manager", Rank: 20},
		{Name: "auditor", Rank: 40},
	}

	if got := models.PrimaryRole(roles); got != "manager" {
		t.Errorf("PrimaryRole = %q, want manager", got)
	}

	if got := models.PrimaryRole(nil); got != models.RoleUser {
		t.Errorf("PrimaryRole(nil) = %q, want %q", got, models.RoleUser)
	}
}

func TestHasPermission(t *testing.T) {
	admin := []models.Role{{Name: "admin", Permissions: []string{"*"}}}
	viewer := []models.Role{{Name: "viewer", Permissions: []string{"audits:read"}}}

	if !models.HasPermission(admin, "anything") {
		t.Error("wildcard should grant every permission")
	}

	if !models.HasPermission(viewer, "audits:read") {
		t.Error("viewer should read audits")
	}

	if models.HasPermission(viewer, "audits:write") {
		t.Error("viewer should not write audits")
	}
}

func TestNotFoundErrorsWrapRoot(t *testing.T) {
	for _, err := range []error{
		models.ErrEntityNotFound, models.ErrPlanNotFound, models.ErrAuditNotFound,
		models.ErrFindingNotFound, models.ErrRecommendationNotFound, models.ErrUserNotFound,
	} {
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("%v does not wrap ErrNotFound", err)
		}
	}
}
