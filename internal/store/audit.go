package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/auditdesk/internal/models"
)

// AuditStore handles audit CRUD and team membership.
type AuditStore struct {
	Base
}

// NewAuditStore creates a new AuditStore.
func NewAuditStore(base Base) *AuditStore {
	return &AuditStore{Base: base}
}

// auditListQuery embeds the plan and entity each audit points at.
const auditListQuery = `SELECT ` + auditColumns + `,
	p.id::text, p.title, p.year,
	e.id::text, e.name, e.risk_level
	FROM audits a
	JOIN entities e ON e.id = a.entity_id
	LEFT JOIN audit_plans p ON p.id = a.plan_id`

// scanAuditWithRefs scans an auditListQuery row.
func scanAuditWithRefs(scan func(dest ...any) error) (*models.Audit, error) {
	a := models.Audit{TeamMembers: []models.TeamMember{}, Findings: []models.FindingSummary{}}
	var planID, planTitle *string
	var planYear *int
	var entity models.EntityRef

	dest := append(auditDest(&a), &planID, &planTitle, &planYear, &entity.ID, &entity.Name, &entity.RiskLevel)
	if err := scan(dest...); err != nil {
		return nil, err
	}

	if planID != nil {
		a.Plan = &models.PlanRef{ID: *planID, Title: derefOr(planTitle, ""), Year: derefOr(planYear, 0)}
	}

	a.Entity = &entity

	return &a, nil
}

// ListAudits returns every audit, newest first, with plan and entity embedded.
func (s *AuditStore) ListAudits(ctx context.Context) ([]models.Audit, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, auditListQuery+` ORDER BY a.created_at DESC, a.id`)
	if err != nil {
		return nil, fmt.Errorf("querying audits: %w", err)
	}

	audits, err := collect(rows, scanAuditWithRefs)
	if err != nil {
		return nil, fmt.Errorf("scanning audit rows: %w", err)
	}

	return audits, nil
}

// GetAudit retrieves one audit with its plan, entity, team and findings summary.
func (s *AuditStore) GetAudit(ctx context.Context, id string) (*models.Audit, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting audit: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	a, err := scanAuditWithRefs(tx.QueryRow(ctx, auditListQuery+` WHERE a.id = $1`, id).Scan)
	if err != nil {
		return nil, mapReadErr(err, models.ErrAuditNotFound, "scanning audit")
	}

	if a.TeamMembers, err = listTeam(ctx, tx, id); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT f.id::text, f.title, f.risk_level, f.status
		FROM findings f WHERE f.audit_id = $1
		ORDER BY f.created_at DESC, f.id`, id)
	if err != nil {
		return nil, fmt.Errorf("querying audit findings: %w", err)
	}

	a.Findings, err = collect(rows, func(scan func(dest ...any) error) (*models.FindingSummary, error) {
		var f models.FindingSummary
		if err := scan(&f.ID, &f.Title, &f.RiskLevel, &f.Status); err != nil {
			return nil, err
		}

		return &f, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning audit findings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing get audit: %w", err)
	}

	return a, nil
}

// CreateAudit inserts an audit and its initial team in one transaction.
func (s *AuditStore) CreateAudit(ctx context.Context, actorID string, in *models.AuditInput) (*models.Audit, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating audit: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	row := tx.QueryRow(ctx, `
		INSERT INTO audits AS a (title, description, status, start_date, end_date, entity_id, plan_id, created_by)
		VALUES ($1, $2, COALESCE($3, 'planned'), $4, $5, $6, $7, $8)
		RETURNING `+auditColumns,
		in.Title, in.Description, in.Status, in.StartDate, in.EndDate, in.EntityID, in.PlanID, nullIfEmpty(actorID),
	)

	a, err := scanAudit(row.Scan)
	if err != nil {
		return nil, mapWriteErr(err, models.ErrAuditNotFound, "inserting audit")
	}

	if len(in.TeamMembers) > 0 {
		if err := insertTeam(ctx, tx, a.ID, in.TeamMembers); err != nil {
			return nil, err
		}

		if a.TeamMembers, err = listTeam(ctx, tx, a.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing create audit: %w", err)
	}

	return a, nil
}

// UpdateAudit replaces the mutable fields of an audit. A nil status keeps the
// current one.
func (s *AuditStore) UpdateAudit(ctx context.Context, id string, in *models.AuditInput) (*models.Audit, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, `
		UPDATE audits AS a SET
			title = $1, description = $2, status = COALESCE($3, a.status),
			start_date = $4, end_date = $5, entity_id = $6, plan_id = $7
		WHERE a.id = $8
		RETURNING `+auditColumns,
		in.Title, in.Description, in.Status, in.StartDate, in.EndDate, in.EntityID, in.PlanID, id,
	)

	a, err := scanAudit(row.Scan)
	if err != nil {
		return nil, mapWriteErr(err, models.ErrAuditNotFound, "updating audit")
	}

	return a, nil
}

// DeleteAudit removes an audit and its team. Audits with findings return
// models.ErrHasDependents.
func (s *AuditStore) DeleteAudit(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `DELETE FROM audits WHERE id = $1`, id)
	if err != nil {
		return mapDeleteErr(err, models.ErrAuditNotFound, "deleting audit")
	}

	if tag.RowsAffected() == 0 {
		return models.ErrAuditNotFound
	}

	return nil
}

// AuditExists returns models.ErrAuditNotFound when no audit has the ID.
func (s *AuditStore) AuditExists(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var one int
	if err := s.Pool.QueryRow(ctx, `SELECT 1 FROM audits WHERE id = $1`, id).Scan(&one); err != nil {
		return mapReadErr(err, models.ErrAuditNotFound, "checking audit")
	}

	return nil
}

// ListTeam returns the team of an audit with user emails.
func (s *AuditStore) ListTeam(ctx context.Context, auditID string) ([]models.TeamMember, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing team: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if err := auditExists(ctx, tx, auditID, false); err != nil {
		return nil, err
	}

	team, err := listTeam(ctx, tx, auditID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing list team: %w", err)
	}

	return team, nil
}

// AssignTeamMember adds one user to an audit's team. A repeated
// (audit, user) pairing returns models.ErrAlreadyAssigned.
func (s *AuditStore) AssignTeamMember(ctx context.Context, auditID string, in models.TeamMemberInput) (*models.TeamMember, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("assigning team member: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if err := auditExists(ctx, tx, auditID, false); err != nil {
		return nil, err
	}

	var memberID string

	err = tx.QueryRow(ctx, `
		INSERT INTO audit_team_members (audit_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING id::text`,
		auditID, in.UserID, in.Role,
	).Scan(&memberID)
	if err != nil {
		mapped := mapWriteErr(err, models.ErrAuditNotFound, "inserting team member")
		if errors.Is(mapped, models.ErrDuplicateKey) {
			return nil, models.ErrAlreadyAssigned
		}

		return nil, mapped
	}

	tm, err := scanTeamMember(tx.QueryRow(ctx, teamQuery+` WHERE tm.id = $1`, memberID).Scan)
	if err != nil {
		return nil, fmt.Errorf("scanning team member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing assign team member: %w", err)
	}

	return tm, nil
}

// ReplaceTeam swaps an audit's whole team in one transaction.
func (s *AuditStore) ReplaceTeam(ctx context.Context, auditID string, members []models.TeamMemberInput) ([]models.TeamMember, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("replacing team: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if err := auditExists(ctx, tx, auditID, true); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM audit_team_members WHERE audit_id = $1`, auditID); err != nil {
		return nil, fmt.Errorf("clearing team: %w", err)
	}

	if err := insertTeam(ctx, tx, auditID, members); err != nil {
		return nil, err
	}

	team, err := listTeam(ctx, tx, auditID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing replace team: %w", err)
	}

	return team, nil
}

// RemoveTeamMember removes one user from an audit's team.
func (s *AuditStore) RemoveTeamMember(ctx context.Context, auditID, userID string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx,
		`DELETE FROM audit_team_members WHERE audit_id = $1 AND user_id = $2`, auditID, userID)
	if err != nil {
		return mapDeleteErr(err, models.ErrTeamMemberNotFound, "removing team member")
	}

	if tag.RowsAffected() == 0 {
		return models.ErrTeamMemberNotFound
	}

	return nil
}

// teamQuery selects team members joined with their account and profile.
const teamQuery = `SELECT ` + teamColumns + `
	FROM audit_team_members tm
	JOIN users u ON u.id = tm.user_id
	LEFT JOIN profiles pr ON pr.user_id = tm.user_id`

func listTeam(ctx context.Context, tx pgx.Tx, auditID string) ([]models.TeamMember, error) {
	rows, err := tx.Query(ctx, teamQuery+` WHERE tm.audit_id = $1 ORDER BY tm.created_at, u.email`, auditID)
	if err != nil {
		return nil, fmt.Errorf("querying team: %w", err)
	}

	team, err := collect(rows, scanTeamMember)
	if err != nil {
		return nil, fmt.Errorf("scanning team rows: %w", err)
	}

	return team, nil
}

// insertTeam bulk-inserts members with a single statement.
func insertTeam(ctx context.Context, tx pgx.Tx, auditID string, members []models.TeamMemberInput) error {
	if len(members) == 0 {
		return nil
	}

	userIDs := make([]string, len(members))
	roles := make([]string, len(members))

	for i, m := range members {
		userIDs[i] = m.UserID
		roles[i] = m.Role
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO audit_team_members (audit_id, user_id, role)
		SELECT $1, u, r FROM unnest($2::text[]::uuid[], $3::text[]) AS t (u, r)`,
		auditID, userIDs, roles,
	)
	if err != nil {
		mapped := mapWriteErr(err, models.ErrAuditNotFound, "inserting team")
		if errors.Is(mapped, models.ErrDuplicateKey) {
			return models.ErrAlreadyAssigned
		}

		return mapped
	}

	return nil
}

// auditExists returns models.ErrAuditNotFound when no audit has the ID. With
// lock set the row is held FOR UPDATE until the transaction ends.
func auditExists(ctx context.Context, tx pgx.Tx, auditID string, lock bool) error {
	query := `SELECT 1 FROM audits WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var one int
	if err := tx.QueryRow(ctx, query, auditID).Scan(&one); err != nil {
		return mapReadErr(err, models.ErrAuditNotFound, "checking audit")
	}

	return nil
}

func derefOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}

	return *p
}
