package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/domain"
	"github.com/persistorai/auditdesk/internal/models"
)

// EntityStore is the data-access interface EntityService depends on.
type EntityStore interface {
	ListEntities(ctx context.Context) ([]models.Entity, error)
	GetEntity(ctx context.Context, id string) (*models.Entity, error)
	CreateEntity(ctx context.Context, actorID string, in *models.EntityInput) (*models.Entity, error)
	UpdateEntity(ctx context.Context, id string, in *models.EntityInput) (*models.Entity, error)
	DeleteEntity(ctx context.Context, id string) error
}

// Compile-time check: *EntityService must satisfy domain.EntityService.
var _ domain.EntityService = (*EntityService)(nil)

// EntityService wraps EntityStore with hierarchy rules and activity recording.
type EntityService struct {
	store    EntityStore
	activity ActivityEnqueuer
	log      *logrus.Logger
}

// NewEntityService creates an EntityService.
func NewEntityService(store EntityStore, activity ActivityEnqueuer, log *logrus.Logger) *EntityService {
	return &EntityService{store: store, activity: activity, log: log}
}

// List returns every entity (pass-through).
func (s *EntityService) List(ctx context.Context, _ models.ListParams) ([]models.Entity, error) {
	return s.store.ListEntities(ctx)
}

// Get returns a single entity (pass-through).
func (s *EntityService) Get(ctx context.Context, id string) (*models.Entity, error) {
	return s.store.GetEntity(ctx, id)
}

// Create inserts an entity stamped with the actor.
func (s *EntityService) Create(ctx context.Context, actorID string, in *models.EntityInput) (*models.Entity, error) {
	e, err := s.store.CreateEntity(ctx, actorID, in)
	if err != nil {
		return nil, err
	}

	recordAsync(s.activity, actorID, "entity.create", "entity", e.ID, map[string]any{"name": e.Name})

	return e, nil
}

// Update replaces an entity. An entity may not become its own parent.
func (s *EntityService) Update(ctx context.Context, actorID, id string, in *models.EntityInput) (*models.Entity, error) {
	if in.ParentID != nil && *in.ParentID == id {
		return nil, models.ErrSelfParent
	}

	e, err := s.store.UpdateEntity(ctx, id, in)
	if err != nil {
		return nil, err
	}

	recordAsync(s.activity, actorID, "entity.update", "entity", e.ID, map[string]any{"name": e.Name})

	return e, nil
}

// Delete removes an entity.
func (s *EntityService) Delete(ctx context.Context, actorID, id string) error {
	if err := s.store.DeleteEntity(ctx, id); err != nil {
		return err
	}

	logDelete(s.log, actorID, "entity", id)
	recordAsync(s.activity, actorID, "entity.delete", "entity", id, nil)

	return nil
}
