package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/persistorai/auditdesk/internal/models"
)

// ListRecommendations returns the recommendations of one finding. An unknown
// finding returns models.ErrFindingNotFound.
func (s *FindingStore) ListRecommendations(ctx context.Context, findingID string) ([]models.Recommendation, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing recommendations: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	var one int
	if err := tx.QueryRow(ctx, `SELECT 1 FROM findings WHERE id = $1`, findingID).Scan(&one); err != nil {
		return nil, mapReadErr(err, models.ErrFindingNotFound, "checking finding")
	}

	rows, err := tx.Query(ctx, recommendationQuery+` WHERE r.finding_id = $1 ORDER BY r.created_at, r.id`, findingID)
	if err != nil {
		return nil, fmt.Errorf("querying recommendations: %w", err)
	}

	recs, err := collect(rows, scanRecommendationWithAssignee)
	if err != nil {
		return nil, fmt.Errorf("scanning recommendation rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing list recommendations: %w", err)
	}

	return recs, nil
}

// GetRecommendation retrieves one recommendation with its assignee.
func (s *FindingStore) GetRecommendation(ctx context.Context, id string) (*models.Recommendation, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, recommendationQuery+` WHERE r.id = $1`, id)

	r, err := scanRecommendationWithAssignee(row.Scan)
	if err != nil {
		return nil, mapReadErr(err, models.ErrRecommendationNotFound, "scanning recommendation")
	}

	return r, nil
}

// CreateRecommendation inserts a recommendation under in.FindingID.
func (s *FindingStore) CreateRecommendation(
	ctx context.Context, actorID string, in *models.RecommendationInput,
) (*models.Recommendation, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, `
		INSERT INTO recommendations AS r (finding_id, description, status, assigned_to, due_date, created_by)
		VALUES ($1, $2, COALESCE($3, 'open'), $4, $5, $6)
		RETURNING `+recommendationColumns,
		in.FindingID, in.Description, in.Status, in.AssignedTo, in.DueDate, nullIfEmpty(actorID),
	)

	r, err := scanRecommendation(row.Scan)
	if err != nil {
		mapped := mapWriteErr(err, models.ErrFindingNotFound, "creating recommendation")

		// The parent comes from the URL, so a dangling finding_id is a 404.
		var refErr *models.ReferenceError
		if errors.As(mapped, &refErr) && refErr.Field == "finding_id" {
			return nil, models.ErrFindingNotFound
		}

		return nil, mapped
	}

	return r, nil
}

// UpdateRecommendation replaces the mutable fields of a recommendation. A nil
// status keeps the current one.
func (s *FindingStore) UpdateRecommendation(
	ctx context.Context, id string, in *models.RecommendationInput,
) (*models.Recommendation, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, `
		UPDATE recommendations AS r SET
			description = $1, status = COALESCE($2, r.status), assigned_to = $3, due_date = $4
		WHERE r.id = $5
		RETURNING `+recommendationColumns,
		in.Description, in.Status, in.AssignedTo, in.DueDate, id,
	)

	r, err := scanRecommendation(row.Scan)
	if err != nil {
		return nil, mapWriteErr(err, models.ErrRecommendationNotFound, "updating recommendation")
	}

	return r, nil
}

// DeleteRecommendation removes a recommendation.
func (s *FindingStore) DeleteRecommendation(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `DELETE FROM recommendations WHERE id = $1`, id)
	if err != nil {
		return mapDeleteErr(err, models.ErrRecommendationNotFound, "deleting recommendation")
	}

	if tag.RowsAffected() == 0 {
		return models.ErrRecommendationNotFound
	}

	return nil
}
