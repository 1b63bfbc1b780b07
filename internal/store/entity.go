package store

import (
	"context"
	"fmt"

	"github.com/persistorai/auditdesk/internal/models"
)

// EntityStore handles auditable entity CRUD.
type EntityStore struct {
	Base
}

// NewEntityStore creates a new EntityStore.
func NewEntityStore(base Base) *EntityStore {
	return &EntityStore{Base: base}
}

// ListEntities returns every entity ordered by name.
func (s *EntityStore) ListEntities(ctx context.Context) ([]models.Entity, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, `SELECT `+entityColumns+` FROM entities e ORDER BY lower(e.name), e.id`)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}

	entities, err := collect(rows, scanEntity)
	if err != nil {
		return nil, fmt.Errorf("scanning entity rows: %w", err)
	}

	return entities, nil
}

// GetEntity retrieves a single entity by ID.
func (s *EntityStore) GetEntity(ctx context.Context, id string) (*models.Entity, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, `SELECT `+entityColumns+` FROM entities e WHERE e.id = $1`, id)

	e, err := scanEntity(row.Scan)
	if err != nil {
		return nil, mapReadErr(err, models.ErrEntityNotFound, "scanning entity")
	}

	return e, nil
}

// CreateEntity inserts a new entity and returns the created record.
func (s *EntityStore) CreateEntity(ctx context.Context, actorID string, in *models.EntityInput) (*models.Entity, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, `
		INSERT INTO entities AS e (name, description, risk_level, parent_id, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+entityColumns,
		in.Name, in.Description, in.RiskLevel, in.ParentID, nullIfEmpty(actorID),
	)

	e, err := scanEntity(row.Scan)
	if err != nil {
		return nil, mapWriteErr(err, models.ErrEntityNotFound, "creating entity")
	}

	return e, nil
}

// UpdateEntity replaces the mutable fields of an entity. Reparenting under one
// of the entity's own descendants is rejected with models.ErrParentCycle.
func (s *EntityStore) UpdateEntity(ctx context.Context, id string, in *models.EntityInput) (*models.Entity, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("updating entity: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if in.ParentID != nil {
		// Lock the target so a concurrent reparent cannot slip a cycle past the check.
		if _, err := tx.Exec(ctx, `SELECT 1 FROM entities WHERE id = $1 FOR UPDATE`, id); err != nil {
			return nil, mapReadErr(err, models.ErrEntityNotFound, "locking entity")
		}

		var cycle bool

		err := tx.QueryRow(ctx, `
			WITH RECURSIVE ancestors (id, parent_id) AS (
				SELECT id, parent_id FROM entities WHERE id = $1
				UNION
				SELECT e.id, e.parent_id FROM entities e JOIN ancestors a ON e.id = a.parent_id
			)
			SELECT EXISTS (SELECT 1 FROM ancestors WHERE id = $2)`,
			*in.ParentID, id,
		).Scan(&cycle)
		if err != nil {
			return nil, mapReadErr(err, models.ErrEntityNotFound, "checking entity ancestry")
		}

		if cycle {
			return nil, models.ErrParentCycle
		}
	}

	row := tx.QueryRow(ctx, `
		UPDATE entities AS e
		SET name = $1, description = $2, risk_level = $3, parent_id = $4
		WHERE e.id = $5
		RETURNING `+entityColumns,
		in.Name, in.Description, in.RiskLevel, in.ParentID, id,
	)

	e, err := scanEntity(row.Scan)
	if err != nil {
		return nil, mapWriteErr(err, models.ErrEntityNotFound, "updating entity")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing update entity: %w", err)
	}

	return e, nil
}

// DeleteEntity removes an entity. Entities still referenced by audits or
// child entities return models.ErrHasDependents.
func (s *EntityStore) DeleteEntity(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `DELETE FROM entities WHERE id = $1`, id)
	if err != nil {
		return mapDeleteErr(err, models.ErrEntityNotFound, "deleting entity")
	}

	if tag.RowsAffected() == 0 {
		return models.ErrEntityNotFound
	}

	return nil
}
