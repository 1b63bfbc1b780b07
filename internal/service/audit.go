package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/domain"
	"github.com/persistorai/auditdesk/internal/models"
)

// AuditStore is the data-access interface AuditService depends on.
type AuditStore interface {
	ListAudits(ctx context.Context) ([]models.Audit, error)
	GetAudit(ctx context.Context, id string) (*models.Audit, error)
	AuditExists(ctx context.Context, id string) error
	CreateAudit(ctx context.Context, actorID string, in *models.AuditInput) (*models.Audit, error)
	UpdateAudit(ctx context.Context, id string, in *models.AuditInput) (*models.Audit, error)
	DeleteAudit(ctx context.Context, id string) error
	ListTeam(ctx context.Context, auditID string) ([]models.TeamMember, error)
	AssignTeamMember(ctx context.Context, auditID string, in models.TeamMemberInput) (*models.TeamMember, error)
	ReplaceTeam(ctx context.Context, auditID string, members []models.TeamMemberInput) ([]models.TeamMember, error)
	RemoveTeamMember(ctx context.Context, auditID, userID string) error
}

// Compile-time check: *AuditService must satisfy domain.AuditService.
var _ domain.AuditService = (*AuditService)(nil)

// AuditService wraps AuditStore with activity recording.
type AuditService struct {
	store    AuditStore
	activity ActivityEnqueuer
	log      *logrus.Logger
}

// NewAuditService creates an AuditService.
func NewAuditService(store AuditStore, activity ActivityEnqueuer, log *logrus.Logger) *AuditService {
	return &AuditService{store: store, activity: activity, log: log}
}

// List returns every audit with its plan and entity (pass-through).
func (s *AuditService) List(ctx context.Context, _ models.ListParams) ([]models.Audit, error) {
	return s.store.ListAudits(ctx)
}

// Get returns one audit with team and findings (pass-through).
func (s *AuditService) Get(ctx context.Context, id string) (*models.Audit, error) {
	return s.store.GetAudit(ctx, id)
}

// Exists returns models.ErrAuditNotFound when no audit has the ID.
func (s *AuditService) Exists(ctx context.Context, id string) error {
	return s.store.AuditExists(ctx, id)
}

// Create inserts an audit and its initial team atomically.
func (s *AuditService) Create(ctx context.Context, actorID string, in *models.AuditInput) (*models.Audit, error) {
	a, err := s.store.CreateAudit(ctx, actorID, in)
	if err != nil {
		return nil, err
	}

	recordAsync(s.activity, actorID, "audit.create", "audit", a.ID, map[string]any{
		"title":     a.Title,
		"entity_id": a.EntityID,
		"team_size": len(a.TeamMembers),
	})

	return a, nil
}

// Update replaces an audit's mutable fields. The team is managed separately.
func (s *AuditService) Update(ctx context.Context, actorID, id string, in *models.AuditInput) (*models.Audit, error) {
	a, err := s.store.UpdateAudit(ctx, id, in)
	if err != nil {
		return nil, err
	}

	recordAsync(s.activity, actorID, "audit.update", "audit", a.ID, map[string]any{"status": a.Status})

	return a, nil
}

// Delete removes an audit and its team.
func (s *AuditService) Delete(ctx context.Context, actorID, id string) error {
	if err := s.store.DeleteAudit(ctx, id); err != nil {
		return err
	}

	logDelete(s.log, actorID, "audit", id)
	recordAsync(s.activity, actorID, "audit.delete", "audit", id, nil)

	return nil
}

// ListTeam returns an audit's team (pass-through).
func (s *AuditService) ListTeam(ctx context.Context, auditID string) ([]models.TeamMember, error) {
	return s.store.ListTeam(ctx, auditID)
}

// AssignTeamMember adds one user to an audit's team.
func (s *AuditService) AssignTeamMember(
	ctx context.Context, actorID, auditID string, in models.TeamMemberInput,
) (*models.TeamMember, error) {
	tm, err := s.store.AssignTeamMember(ctx, auditID, in)
	if err != nil {
		return nil, err
	}

	recordAsync(s.activity, actorID, "audit.team.assign", "audit", auditID, map[string]any{
		"user_id": tm.UserID,
		"role":    tm.Role,
	})

	return tm, nil
}

// ReplaceTeam swaps an audit's whole team in one transaction.
func (s *AuditService) ReplaceTeam(
	ctx context.Context, actorID, auditID string, members []models.TeamMemberInput,
) ([]models.TeamMember, error) {
	team, err := s.store.ReplaceTeam(ctx, auditID, members)
	if err != nil {
		return nil, err
	}

	recordAsync(s.activity, actorID, "audit.team.replace", "audit", auditID, map[string]any{"team_size": len(team)})

	return team, nil
}

// RemoveTeamMember drops one user from an audit's team.
func (s *AuditService) RemoveTeamMember(ctx context.Context, actorID, auditID, userID string) error {
	if err := s.store.RemoveTeamMember(ctx, auditID, userID); err != nil {
		return err
	}

	recordAsync(s.activity, actorID, "audit.team.remove", "audit", auditID, map[string]any{"user_id": userID})

	return nil
}
