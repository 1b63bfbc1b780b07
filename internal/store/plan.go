package store

import (
	"context"
	"fmt"

	"github.com/persistorai/auditdesk/internal/models"
)

// PlanStore handles audit plan CRUD.
type PlanStore struct {
	Base
}

// NewPlanStore creates a new PlanStore.
func NewPlanStore(base Base) *PlanStore {
	return &PlanStore{Base: base}
}

// planArgs returns the positional values for planWriteColumns in order.
func planArgs(in *models.PlanInput) []any {
	return []any{
		in.Title, in.Description, *in.Year, in.Status,
		in.ProjectName, in.AuditType, in.Owner, in.Location, in.Frequency, in.Processes, in.Units,
		in.Personnel, in.Entities,
		in.StartDate, in.EndDate, in.PeriodStartDate, in.PeriodEndDate,
	}
}

// ListPlans returns every plan, newest year first.
func (s *PlanStore) ListPlans(ctx context.Context) ([]models.Plan, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, `SELECT `+planColumns+` FROM audit_plans p ORDER BY p.year DESC, p.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}

	plans, err := collect(rows, scanPlan)
	if err != nil {
		return nil, fmt.Errorf("scanning plan rows: %w", err)
	}

	return plans, nil
}

// GetPlan retrieves a single plan by ID.
func (s *PlanStore) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, `SELECT `+planColumns+` FROM audit_plans p WHERE p.id = $1`, id)

	p, err := scanPlan(row.Scan)
	if err != nil {
		return nil, mapReadErr(err, models.ErrPlanNotFound, "scanning plan")
	}

	return p, nil
}

// CreatePlan inserts a new plan and returns the created record.
func (s *PlanStore) CreatePlan(ctx context.Context, actorID string, in *models.PlanInput) (*models.Plan, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	args := append(planArgs(in), nullIfEmpty(actorID))

	row := s.Pool.QueryRow(ctx, `
		INSERT INTO audit_plans AS p (
			title, description, year, status,
			project_name, audit_type, owner, location, frequency, processes, units,
			personnel, entities,
			start_date, end_date, period_start_date, period_end_date,
			created_by
		) VALUES (
			$1, $2, $3, COALESCE($4, 'draft'),
			$5, $6, $7, $8, $9, $10, $11,
			COALESCE($12::text[], '{}'), COALESCE($13::text[], '{}')::uuid[],
			$14, $15, $16, $17,
			$18
		)
		RETURNING `+planColumns,
		args...,
	)

	p, err := scanPlan(row.Scan)
	if err != nil {
		return nil, mapWriteErr(err, models.ErrPlanNotFound, "creating plan")
	}

	return p, nil
}

// UpdatePlan replaces the mutable fields of a plan. A nil status keeps the
// current one.
func (s *PlanStore) UpdatePlan(ctx context.Context, id string, in *models.PlanInput) (*models.Plan, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	args := append(planArgs(in), id)

	row := s.Pool.QueryRow(ctx, `
		UPDATE audit_plans AS p SET
			title = $1, description = $2, year = $3, status = COALESCE($4, p.status),
			project_name = $5, audit_type = $6, owner = $7, location = $8,
			frequency = $9, processes = $10, units = $11,
			personnel = COALESCE($12::text[], '{}'), entities = COALESCE($13::text[], '{}')::uuid[],
			start_date = $14, end_date = $15, period_start_date = $16, period_end_date = $17
		WHERE p.id = $18
		RETURNING `+planColumns,
		args...,
	)

	p, err := scanPlan(row.Scan)
	if err != nil {
		return nil, mapWriteErr(err, models.ErrPlanNotFound, "updating plan")
	}

	return p, nil
}

// DeletePlan removes a plan; audits under it keep existing with plan_id nulled.
func (s *PlanStore) DeletePlan(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `DELETE FROM audit_plans WHERE id = $1`, id)
	if err != nil {
		return mapDeleteErr(err, models.ErrPlanNotFound, "deleting plan")
	}

	if tag.RowsAffected() == 0 {
		return models.ErrPlanNotFound
	}

	return nil
}
