package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/auditdesk/internal/models"
)

// FindingStore handles finding and recommendation CRUD.
type FindingStore struct {
	Base
}

// NewFindingStore creates a new FindingStore.
func NewFindingStore(base Base) *FindingStore {
	return &FindingStore{Base: base}
}

// findingListQuery embeds the owning audit's title.
const findingListQuery = `SELECT ` + findingColumns + `, a.title
	FROM findings f
	JOIN audits a ON a.id = f.audit_id`

// recommendationQuery selects recommendations with their assignee.
const recommendationQuery = `SELECT ` + recommendationColumns + `, u.email, pr.full_name
	FROM recommendations r
	LEFT JOIN users u ON u.id = r.assigned_to
	LEFT JOIN profiles pr ON pr.user_id = r.assigned_to`

func scanFindingWithAudit(scan func(dest ...any) error) (*models.Finding, error) {
	f := models.Finding{Recommendations: []models.Recommendation{}}
	var auditTitle string

	if err := scan(append(findingDest(&f), &auditTitle)...); err != nil {
		return nil, err
	}

	f.Audit = &models.AuditRef{ID: f.AuditID, Title: auditTitle}

	return &f, nil
}

func scanRecommendationWithAssignee(scan func(dest ...any) error) (*models.Recommendation, error) {
	var r models.Recommendation
	var email, fullName *string

	if err := scan(append(recommendationDest(&r), &email, &fullName)...); err != nil {
		return nil, err
	}

	if r.AssignedTo != nil && email != nil {
		r.AssignedUser = &models.UserRef{ID: *r.AssignedTo, Email: *email, FullName: fullName}
	}

	return &r, nil
}

// ListFindings returns findings newest first with their audit and
// recommendations embedded. A non-empty auditID restricts to one audit.
func (s *FindingStore) ListFindings(ctx context.Context, auditID string) ([]models.Finding, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing findings: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	query := findingListQuery
	args := []any{}

	if auditID != "" {
		query += ` WHERE f.audit_id = $1`
		args = append(args, auditID)
	}

	rows, err := tx.Query(ctx, query+` ORDER BY f.created_at DESC, f.id`, args...)
	if err != nil {
		return nil, mapReadErr(err, models.ErrAuditNotFound, "querying findings")
	}

	findings, err := collect(rows, scanFindingWithAudit)
	if err != nil {
		return nil, mapReadErr(err, models.ErrAuditNotFound, "scanning finding rows")
	}

	if err := attachRecommendations(ctx, tx, findings); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing list findings: %w", err)
	}

	return findings, nil
}

// attachRecommendations loads recommendations for all findings in one query.
func attachRecommendations(ctx context.Context, tx pgx.Tx, findings []models.Finding) error {
	if len(findings) == 0 {
		return nil
	}

	ids := make([]string, len(findings))
	index := make(map[string]int, len(findings))

	for i := range findings {
		ids[i] = findings[i].ID
		index[findings[i].ID] = i
	}

	rows, err := tx.Query(ctx,
		recommendationQuery+` WHERE r.finding_id = ANY($1::text[]::uuid[]) ORDER BY r.created_at, r.id`, ids)
	if err != nil {
		return fmt.Errorf("querying recommendations: %w", err)
	}

	recs, err := collect(rows, scanRecommendationWithAssignee)
	if err != nil {
		return fmt.Errorf("scanning recommendation rows: %w", err)
	}

	for _, r := range recs {
		i := index[r.FindingID]
		findings[i].Recommendations = append(findings[i].Recommendations, r)
	}

	return nil
}

// GetFinding retrieves one finding with its audit and recommendations.
func (s *FindingStore) GetFinding(ctx context.Context, id string) (*models.Finding, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting finding: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	f, err := scanFindingWithAudit(tx.QueryRow(ctx, findingListQuery+` WHERE f.id = $1`, id).Scan)
	if err != nil {
		return nil, mapReadErr(err, models.ErrFindingNotFound, "scanning finding")
	}

	one := []models.Finding{*f}
	if err := attachRecommendations(ctx, tx, one); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing get finding: %w", err)
	}

	return &one[0], nil
}

// CreateFinding inserts a finding and returns the created record.
func (s *FindingStore) CreateFinding(ctx context.Context, actorID string, in *models.FindingInput) (*models.Finding, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, `
		INSERT INTO findings AS f (audit_id, title, description, risk_level, status, created_by)
		VALUES ($1, $2, $3, COALESCE($4, 'medium'), COALESCE($5, 'draft'), $6)
		RETURNING `+findingColumns,
		in.AuditID, in.Title, in.Description, in.RiskLevel, in.Status, nullIfEmpty(actorID),
	)

	f, err := scanFinding(row.Scan)
	if err != nil {
		return nil, mapWriteErr(err, models.ErrFindingNotFound, "creating finding")
	}

	return f, nil
}

// UpdateFinding replaces the mutable fields of a finding. Nil risk level or
// status keep the current values.
func (s *FindingStore) UpdateFinding(ctx context.Context, id string, in *models.FindingUpdate) (*models.Finding, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, `
		UPDATE findings AS f SET
			title = $1, description = $2,
			risk_level = COALESCE($3, f.risk_level), status = COALESCE($4, f.status)
		WHERE f.id = $5
		RETURNING `+findingColumns,
		in.Title, in.Description, in.RiskLevel, in.Status, id,
	)

	f, err := scanFinding(row.Scan)
	if err != nil {
		return nil, mapWriteErr(err, models.ErrFindingNotFound, "updating finding")
	}

	return f, nil
}

// DeleteFinding removes a finding and its recommendations.
func (s *FindingStore) DeleteFinding(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `DELETE FROM findings WHERE id = $1`, id)
	if err != nil {
		return mapDeleteErr(err, models.ErrFindingNotFound, "deleting finding")
	}

	if tag.RowsAffected() == 0 {
		return models.ErrFindingNotFound
	}

	return nil
}
