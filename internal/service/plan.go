package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/domain"
	"github.com/persistorai/auditdesk/internal/models"
)

// PlanStore is the data-access interface PlanService depends on.
type PlanStore interface {
	ListPlans(ctx context.Context) ([]models.Plan, error)
	GetPlan(ctx context.Context, id string) (*models.Plan, error)
	CreatePlan(ctx context.Context, actorID string, in *models.PlanInput) (*models.Plan, error)
	UpdatePlan(ctx context.Context, id string, in *models.PlanInput) (*models.Plan, error)
	DeletePlan(ctx context.Context, id string) error
}

// Compile-time check: *PlanService must satisfy domain.PlanService.
var _ domain.PlanService = (*PlanService)(nil)

// PlanService wraps PlanStore with activity recording.
type PlanService struct {
	store    PlanStore
	activity ActivityEnqueuer
	log      *logrus.Logger
}

// NewPlanService creates a PlanService.
func NewPlanService(store PlanStore, activity ActivityEnqueuer, log *logrus.Logger) *PlanService {
	return &PlanService{store: store, activity: activity, log: log}
}

// List returns every plan, newest year first (pass-through).
func (s *PlanService) List(ctx context.Context, _ models.ListParams) ([]models.Plan, error) {
	return s.store.ListPlans(ctx)
}

// Get returns a single plan (pass-through).
func (s *PlanService) Get(ctx context.Context, id string) (*models.Plan, error) {
	return s.store.GetPlan(ctx, id)
}

// Create inserts a plan stamped with the actor.
func (s *PlanService) Create(ctx context.Context, actorID string, in *models.PlanInput) (*models.Plan, error) {
	p, err := s.store.CreatePlan(ctx, actorID, in)
	if err != nil {
		return nil, err
	}

	recordAsync(s.activity, actorID, "plan.create", "plan", p.ID, map[string]any{"title": p.Title, "year": p.Year})

	return p, nil
}

// Update replaces a plan.
func (s *PlanService) Update(ctx context.Context, actorID, id string, in *models.PlanInput) (*models.Plan, error) {
	p, err := s.store.UpdatePlan(ctx, id, in)
	if err != nil {
		return nil, err
	}

	recordAsync(s.activity, actorID, "plan.update", "plan", p.ID, map[string]any{"status": p.Status})

	return p, nil
}

// Delete removes a plan; its audits keep existing without a plan.
func (s *PlanService) Delete(ctx context.Context, actorID, id string) error {
	if err := s.store.DeletePlan(ctx, id); err != nil {
		return err
	}

	logDelete(s.log, actorID, "plan", id)
	recordAsync(s.activity, actorID, "plan.delete", "plan", id, nil)

	return nil
}
