package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/persistorai/auditdesk/internal/models"
	"github.com/persistorai/auditdesk/internal/store"
)

func newAudit(t *testing.T, base store.Base, team []models.TeamMemberInput) *models.Audit {
	t.Helper()

	entity := newEntity(t, store.NewEntityStore(base), nil)
	audits := store.NewAuditStore(base)

	in := &models.AuditInput{Title: uniqueName("audit"), EntityID: &entity.ID, TeamMembers: team}
	if err := in.Validate(); err != nil {
		t.Fatalf("validating audit: %v", err)
	}

	a, err := audits.CreateAudit(context.Background(), "", in)
	if err != nil {
		t.Fatalf("CreateAudit: %v", err)
	}

	// Registered after newEntity, so it runs first.
	t.Cleanup(func() {
		ctx := context.Background()
		base.Pool.Exec(ctx, "DELETE FROM findings WHERE audit_id = $1", a.ID) //nolint:errcheck // best-effort cleanup
		base.Pool.Exec(ctx, "DELETE FROM audits WHERE id = $1", a.ID)         //nolint:errcheck // best-effort cleanup
	})

	return a
}

func TestAuditStore_CreateDefaultsAndRefs(t *testing.T) {
	base := setupTestBase(t)
	ctx := context.Background()

	a := newAudit(t, base, nil)
	if a.Status != models.AuditStatusPlanned {
		t.Errorf("Status = %q, want %q", a.Status, models.AuditStatusPlanned)
	}

	got, err := store.NewAuditStore(base).GetAudit(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAudit: %v", err)
	}

	if got.Entity == nil || got.Entity.ID != a.EntityID {
		t.Errorf("expected embedded entity %s, got %+v", a.EntityID, got.Entity)
	}

	if got.Plan != nil {
		t.Errorf("expected no plan, got %+v", got.Plan)
	}
}

func TestAuditStore_DanglingEntity(t *testing.T) {
	audits := store.NewAuditStore(setupTestBase(t))

	missing := "00000000-0000-0000-0000-000000000000"
	_, err := audits.CreateAudit(context.Background(), "", &models.AuditInput{Title: "x", EntityID: &missing})

	var ref *models.ReferenceError
	if !errors.As(err, &ref) || ref.Field != "entity_id" {
		t.Errorf("expected entity_id reference error, got %v", err)
	}
}

func TestAuditStore_EmptyRelationsAndExists(t *testing.T) {
	base := setupTestBase(t)
	ctx := context.Background()
	audits := store.NewAuditStore(base)

	a := newAudit(t, base, nil)

	got, err := audits.GetAudit(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAudit: %v", err)
	}

	if got.TeamMembers == nil || len(got.TeamMembers) != 0 {
		t.Errorf("TeamMembers = %#v, want empty slice", got.TeamMembers)
	}

	if got.Findings == nil || len(got.Findings) != 0 {
		t.Errorf("Findings = %#v, want empty slice", got.Findings)
	}

	if err := audits.AuditExists(ctx, a.ID); err != nil {
		t.Errorf("AuditExists(existing): %v", err)
	}

	if err := audits.AuditExists(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, models.ErrAuditNotFound) {
		t.Errorf("AuditExists(missing) = %v, want ErrAuditNotFound", err)
	}

	findings := store.NewFindingStore(base)

	in := &models.FindingInput{AuditID: &a.ID, Title: uniqueName("finding")}
	if err := in.Validate(); err != nil {
		t.Fatalf("validating finding: %v", err)
	}

	f, err := findings.CreateFinding(ctx, "", in)
	if err != nil {
		t.Fatalf("CreateFinding: %v", err)
	}

	gotF, err := findings.GetFinding(ctx, f.ID)
	if err != nil {
		t.Fatalf("GetFinding: %v", err)
	}

	if gotF.Recommendations == nil || len(gotF.Recommendations) != 0 {
		t.Errorf("Recommendations = %#v, want empty slice", gotF.Recommendations)
	}
}

func TestAuditStore_Team(t *testing.T) {
	base := setupTestBase(t)
	ctx := context.Background()
	audits := store.NewAuditStore(base)

	lead := createTestUser(t, base, models.RoleLead)
	member := createTestUser(t, base, models.RoleMember)

	a := newAudit(t, base, []models.TeamMemberInput{{UserID: lead, Role: "lead auditor"}})
	if len(a.TeamMembers) != 1 || a.TeamMembers[0].UserID != lead {
		t.Fatalf("expected initial team with %s, got %+v", lead, a.TeamMembers)
	}

	if _, err := audits.AssignTeamMember(ctx, a.ID, models.TeamMemberInput{UserID: lead, Role: "again"}); !errors.Is(err, models.ErrAlreadyAssigned) {
		t.Errorf("duplicate assignment: expected ErrAlreadyAssigned, got %v", err)
	}

	tm, err := audits.AssignTeamMember(ctx, a.ID, models.TeamMemberInput{UserID: member, Role: "fieldwork"})
	if err != nil {
		t.Fatalf("AssignTeamMember: %v", err)
	}

	if tm.User == nil || tm.User.Email == "" {
		t.Errorf("expected embedded user on team member, got %+v", tm.User)
	}

	team, err := audits.ReplaceTeam(ctx, a.ID, []models.TeamMemberInput{{UserID: member, Role: "owner"}})
	if err != nil {
		t.Fatalf("ReplaceTeam: %v", err)
	}

	if len(team) != 1 || team[0].UserID != member || team[0].Role != "owner" {
		t.Errorf("unexpected team after replace: %+v", team)
	}

	if err := audits.RemoveTeamMember(ctx, a.ID, lead); !errors.Is(err, models.ErrTeamMemberNotFound) {
		t.Errorf("removing non-member: expected ErrTeamMemberNotFound, got %v", err)
	}

	if err := audits.RemoveTeamMember(ctx, a.ID, member); err != nil {
		t.Errorf("RemoveTeamMember: %v", err)
	}

	if _, err := audits.ListTeam(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, models.ErrAuditNotFound) {
		t.Errorf("ListTeam(missing): expected ErrAuditNotFound, got %v", err)
	}
}

func TestAuditStore_DeleteBlockedByFindings(t *testing.T) {
	base := setupTestBase(t)
	ctx := context.Background()
	audits := store.NewAuditStore(base)
	findings := store.NewFindingStore(base)

	a := newAudit(t, base, nil)

	f, err := findings.CreateFinding(ctx, "", &models.FindingInput{AuditID: &a.ID, Title: "Segregation of duties"})
	if err != nil {
		t.Fatalf("CreateFinding: %v", err)
	}

	if f.RiskLevel != models.RiskMedium || f.Status != models.FindingStatusDraft {
		t.Errorf("unexpected finding defaults: risk=%q status=%q", f.RiskLevel, f.Status)
	}

	if err := audits.DeleteAudit(ctx, a.ID); !errors.Is(err, models.ErrHasDependents) {
		t.Fatalf("expected ErrHasDependents, got %v", err)
	}

	if err := findings.DeleteFinding(ctx, f.ID); err != nil {
		t.Fatalf("DeleteFinding: %v", err)
	}

	if err := audits.DeleteAudit(ctx, a.ID); err != nil {
		t.Errorf("DeleteAudit after clearing findings: %v", err)
	}
}

func TestFindingStore_Recommendations(t *testing.T) {
	base := setupTestBase(t)
	ctx := context.Background()
	findings := store.NewFindingStore(base)

	a := newAudit(t, base, nil)
	assignee := createTestUser(t, base, models.RoleMember)

	f, err := findings.CreateFinding(ctx, "", &models.FindingInput{AuditID: &a.ID, Title: "Stale access reviews"})
	if err != nil {
		t.Fatalf("CreateFinding: %v", err)
	}

	rec, err := findings.CreateRecommendation(ctx, "", &models.RecommendationInput{
		FindingID:   f.ID,
		Description: "Run quarterly access reviews",
		AssignedTo:  &assignee,
	})
	if err != nil {
		t.Fatalf("CreateRecommendation: %v", err)
	}

	if rec.Status != models.RecommendationStatusOpen {
		t.Errorf("Status = %q, want open", rec.Status)
	}

	list, err := findings.ListFindings(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListFindings: %v", err)
	}

	if len(list) != 1 || len(list[0].Recommendations) != 1 {
		t.Fatalf("expected one finding with one recommendation, got %+v", list)
	}

	if u := list[0].Recommendations[0].AssignedUser; u == nil || u.ID != assignee {
		t.Errorf("expected assigned user %s, got %+v", assignee, u)
	}

	_, err = findings.CreateRecommendation(ctx, "", &models.RecommendationInput{
		FindingID:   "00000000-0000-0000-0000-000000000000",
		Description: "orphan",
	})
	if !errors.Is(err, models.ErrFindingNotFound) {
		t.Errorf("orphan recommendation: expected ErrFindingNotFound, got %v", err)
	}

	if err := findings.DeleteFinding(ctx, f.ID); err != nil {
		t.Fatalf("DeleteFinding: %v", err)
	}

	if _, err := findings.GetRecommendation(ctx, rec.ID); !errors.Is(err, models.ErrRecommendationNotFound) {
		t.Errorf("recommendation should cascade with its finding, got %v", err)
	}
}
