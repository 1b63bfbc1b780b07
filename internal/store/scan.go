package store

import (
	"github.com/jackc/pgx/v5"

	"github.com/persistorai/auditdesk/internal/models"
)

// UUID columns are selected as text and dates through to_char so rows scan
// straight into the string-typed model fields.

// entityColumns lists the columns selected for entity queries (alias e).
const entityColumns = `e.id::text, e.name, e.description, e.risk_level, e.parent_id::text,
	e.created_by::text, e.created_at, e.updated_at`

// planColumns lists the columns selected for plan queries (alias p).
const planColumns = `p.id::text, p.title, p.description, p.year, p.status,
	p.project_name, p.audit_type, p.owner, p.location, p.frequency, p.processes, p.units,
	p.personnel, p.entities::text[],
	to_char(p.start_date, 'YYYY-MM-DD'), to_char(p.end_date, 'YYYY-MM-DD'),
	to_char(p.period_start_date, 'YYYY-MM-DD'), to_char(p.period_end_date, 'YYYY-MM-DD'),
	p.created_by::text, p.created_at, p.updated_at`

// auditColumns lists the columns selected for audit queries (alias a).
const auditColumns = `a.id::text, a.title, a.description, a.status,
	to_char(a.start_date, 'YYYY-MM-DD'), to_char(a.end_date, 'YYYY-MM-DD'),
	a.entity_id::text, a.plan_id::text, a.created_by::text, a.created_at, a.updated_at`

// findingColumns lists the columns selected for finding queries (alias f).
const findingColumns = `f.id::text, f.audit_id::text, f.title, f.description, f.risk_level, f.status,
	f.created_by::text, f.created_at, f.updated_at`

// recommendationColumns lists the columns selected for recommendation queries (alias r).
const recommendationColumns = `r.id::text, r.finding_id::text, r.description, r.status,
	r.assigned_to::text, to_char(r.due_date, 'YYYY-MM-DD'), r.created_by::text, r.created_at, r.updated_at`

// teamColumns lists the columns selected for team member queries (alias tm, joined user u).
const teamColumns = `tm.id::text, tm.audit_id::text, tm.user_id::text, tm.role, tm.created_at,
	u.email, pr.full_name`

// scanEntity scans a single row into a models.Entity.
func scanEntity(scan func(dest ...any) error) (*models.Entity, error) {
	var e models.Entity

	err := scan(
		&e.ID,
		&e.Name,
		&e.Description,
		&e.RiskLevel,
		&e.ParentID,
		&e.CreatedBy,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &e, nil
}

// scanPlan scans a single row into a models.Plan.
func scanPlan(scan func(dest ...any) error) (*models.Plan, error) {
	var p models.Plan

	err := scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Year,
		&p.Status,
		&p.ProjectName,
		&p.AuditType,
		&p.Owner,
		&p.Location,
		&p.Frequency,
		&p.Processes,
		&p.Units,
		&p.Personnel,
		&p.Entities,
		&p.StartDate,
		&p.EndDate,
		&p.PeriodStartDate,
		&p.PeriodEndDate,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.Personnel == nil {
		p.Personnel = []string{}
	}

	if p.Entities == nil {
		p.Entities = []string{}
	}

	return &p, nil
}

// auditDest returns scan destinations for auditColumns.
func auditDest(a *models.Audit) []any {
	return []any{
		&a.ID,
		&a.Title,
		&a.Description,
		&a.Status,
		&a.StartDate,
		&a.EndDate,
		&a.EntityID,
		&a.PlanID,
		&a.CreatedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	}
}

// scanAudit scans a single row into a models.Audit.
func scanAudit(scan func(dest ...any) error) (*models.Audit, error) {
	a := models.Audit{TeamMembers: []models.TeamMember{}, Findings: []models.FindingSummary{}}
	if err := scan(auditDest(&a)...); err != nil {
		return nil, err
	}

	return &a, nil
}

// findingDest returns scan destinations for findingColumns.
func findingDest(f *models.Finding) []any {
	return []any{
		&f.ID,
		&f.AuditID,
		&f.Title,
		&f.Description,
		&f.RiskLevel,
		&f.Status,
		&f.CreatedBy,
		&f.CreatedAt,
		&f.UpdatedAt,
	}
}

// scanFinding scans a single row into a models.Finding.
func scanFinding(scan func(dest ...any) error) (*models.Finding, error) {
	f := models.Finding{Recommendations: []models.Recommendation{}}
	if err := scan(findingDest(&f)...); err != nil {
		return nil, err
	}

	return &f, nil
}

// recommendationDest returns scan destinations for recommendationColumns.
func recommendationDest(r *models.Recommendation) []any {
	return []any{
		&r.ID,
		&r.FindingID,
		&r.Description,
		&r.Status,
		&r.AssignedTo,
		&r.DueDate,
		&r.CreatedBy,
		&r.CreatedAt,
		&r.UpdatedAt,
	}
}

// scanRecommendation scans a single row into a models.Recommendation.
func scanRecommendation(scan func(dest ...any) error) (*models.Recommendation, error) {
	var r models.Recommendation
	if err := scan(recommendationDest(&r)...); err != nil {
		return nil, err
	}

	return &r, nil
}

// scanTeamMember scans a single row into a models.TeamMember with its user.
func scanTeamMember(scan func(dest ...any) error) (*models.TeamMember, error) {
	var tm models.TeamMember
	var user models.UserRef

	err := scan(
		&tm.ID,
		&tm.AuditID,
		&tm.UserID,
		&tm.Role,
		&tm.CreatedAt,
		&user.Email,
		&user.FullName,
	)
	if err != nil {
		return nil, err
	}

	user.ID = tm.UserID
	tm.User = &user

	return &tm, nil
}

// collect drains rows through scanFn into a non-nil slice.
func collect[T any](rows pgx.Rows, scanFn func(scan func(dest ...any) error) (*T, error)) ([]T, error) {
	defer rows.Close()

	out := make([]T, 0)

	for rows.Next() {
		v, err := scanFn(rows.Scan)
		if err != nil {
			return nil, err
		}

		out = append(out, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
