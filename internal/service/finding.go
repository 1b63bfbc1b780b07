package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/domain"
	"github.com/persistorai/auditdesk/internal/models"
)

// FindingStore is the data-access interface FindingService and
// RecommendationService depend on.
type FindingStore interface {
	ListFindings(ctx context.Context, auditID string) ([]models.Finding, error)
	GetFinding(ctx context.Context, id string) (*models.Finding, error)
	CreateFinding(ctx context.Context, actorID string, in *models.FindingInput) (*models.Finding, error)
	UpdateFinding(ctx context.Context, id string, in *models.FindingUpdate) (*models.Finding, error)
	DeleteFinding(ctx context.Context, id string) error

	ListRecommendations(ctx context.Context, findingID string) ([]models.Recommendation, error)
	GetRecommendation(ctx context.Context, id string) (*models.Recommendation, error)
	CreateRecommendation(ctx context.Context, actorID string, in *models.RecommendationInput) (*models.Recommendation, error)
	UpdateRecommendation(ctx context.Context, id string, in *models.RecommendationInput) (*models.Recommendation, error)
	DeleteRecommendation(ctx context.Context, id string) error
}

// Compile-time checks.
var (
	_ domain.FindingService        = (*FindingService)(nil)
	_ domain.RecommendationService = (*RecommendationService)(nil)
)

// FindingService wraps the finding half of FindingStore with activity recording.
type FindingService struct {
	store    FindingStore
	activity ActivityEnqueuer
	log      *logrus.Logger
}

// NewFindingService creates a FindingService.
func NewFindingService(store FindingStore, activity ActivityEnqueuer, log *logrus.Logger) *FindingService {
	return &FindingService{store: store, activity: activity, log: log}
}

// List returns findings, optionally restricted by the audit_id filter.
func (s *FindingService) List(ctx context.Context, params models.ListParams) ([]models.Finding, error) {
	return s.store.ListFindings(ctx, params.Filter("audit_id"))
}

// Get returns one finding with its recommendations (pass-through).
func (s *FindingService) Get(ctx context.Context, id string) (*models.Finding, error) {
	return s.store.GetFinding(ctx, id)
}

// Create inserts a finding stamped with the actor.
func (s *FindingService) Create(ctx context.Context, actorID string, in *models.FindingInput) (*models.Finding, error) {
	f, err := s.store.CreateFinding(ctx, actorID, in)
	if err != nil {
		return nil, err
	}

	recordAsync(s.activity, actorID, "finding.create", "finding", f.ID, map[string]any{
		"audit_id":   f.AuditID,
		"risk_level": f.RiskLevel,
	})

	return f, nil
}

// Update replaces a finding's mutable fields.
func (s *FindingService) Update(ctx context.Context, actorID, id string, in *models.FindingUpdate) (*models.Finding, error) {
	f, err := s.store.UpdateFinding(ctx, id, in)
	if err != nil {
		return nil, err
	}

	recordAsync(s.activity, actorID, "finding.update", "finding", f.ID, map[string]any{
		"status":     f.Status,
		"risk_level": f.RiskLevel,
	})

	return f, nil
}

// Delete removes a finding and its recommendations.
func (s *FindingService) Delete(ctx context.Context, actorID, id string) error {
	if err := s.store.DeleteFinding(ctx, id); err != nil {
		return err
	}

	logDelete(s.log, actorID, "finding", id)
	recordAsync(s.activity, actorID, "finding.delete", "finding", id, nil)

	return nil
}

// RecommendationService wraps the recommendation half of FindingStore.
type RecommendationService struct {
	store    FindingStore
	activity ActivityEnqueuer
	log      *logrus.Logger
}

// NewRecommendationService creates a RecommendationService.
func NewRecommendationService(store FindingStore, activity ActivityEnqueuer, log *logrus.Logger) *RecommendationService {
	return &RecommendationService{store: store, activity: activity, log: log}
}

// List returns the recommendations of the finding named by the finding_id filter.
func (s *RecommendationService) List(ctx context.Context, params models.ListParams) ([]models.Recommendation, error) {
	findingID := params.Filter("finding_id")
	if findingID == "" {
		return nil, models.NewValidationError("finding_id is required")
	}

	return s.store.ListRecommendations(ctx, findingID)
}

// Get returns one recommendation (pass-through).
func (s *RecommendationService) Get(ctx context.Context, id string) (*models.Recommendation, error) {
	return s.store.GetRecommendation(ctx, id)
}

// Create attaches a recommendation to the finding named in the input.
func (s *RecommendationService) Create(
	ctx context.Context, actorID string, in *models.RecommendationInput,
) (*models.Recommendation, error) {
	if in.FindingID == "" {
		return nil, models.ErrFindingNotFound
	}

	r, err := s.store.CreateRecommendation(ctx, actorID, in)
	if err != nil {
		return nil, err
	}

	recordAsync(s.activity, actorID, "recommendation.create", "recommendation", r.ID, map[string]any{"finding_id": r.FindingID})

	return r, nil
}

// Update replaces a recommendation's mutable fields.
func (s *RecommendationService) Update(
	ctx context.Context, actorID, id string, in *models.RecommendationInput,
) (*models.Recommendation, error) {
	r, err := s.store.UpdateRecommendation(ctx, id, in)
	if err != nil {
		return nil, err
	}

	recordAsync(s.activity, actorID, "recommendation.update", "recommendation", r.ID, map[string]any{"status": r.Status})

	return r, nil
}

// Delete removes a recommendation.
func (s *RecommendationService) Delete(ctx context.Context, actorID, id string) error {
	if err := s.store.DeleteRecommendation(ctx, id); err != nil {
		return err
	}

	logDelete(s.log, actorID, "recommendation", id)
	recordAsync(s.activity, actorID, "recommendation.delete", "recommendation", id, nil)

	return nil
}
