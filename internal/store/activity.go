package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/models"
)

const defaultActivityLimit = 50

// ActivityStore provides data access for the activity_log table.
type ActivityStore struct {
	Base
}

// NewActivityStore creates an ActivityStore.
func NewActivityStore(base Base) *ActivityStore {
	return &ActivityStore{Base: base}
}

// RecordActivity inserts an activity log entry.
func (s *ActivityStore) RecordActivity(
	ctx context.Context,
	action, resourceType, resourceID, actor string,
	detail map[string]any,
) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var detailJSON []byte
	if detail != nil {
		var err error

		detailJSON, err = json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("marshaling activity detail: %w", err)
		}
	}

	_, err := s.Pool.Exec(ctx, `
		INSERT INTO activity_log (action, resource_type, resource_id, actor, detail)
		VALUES ($1, $2, $3, $4, $5)`,
		action, resourceType, resourceID, nullIfEmpty(actor), detailJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting activity entry: %w", err)
	}

	return nil
}

// buildActivityFilter builds the WHERE clause and args from ActivityQueryOpts.
func buildActivityFilter(opts models.ActivityQueryOpts) (where string, args []any, nextArg int) {
	var conditions []string
	argIdx := 1

	add := func(column string, value any) {
		conditions = append(conditions, column+" = $"+strconv.Itoa(argIdx))
		args = append(args, value)
		argIdx++
	}

	if opts.ResourceType != "" {
		add("resource_type", opts.ResourceType)
	}

	if opts.ResourceID != "" {
		add("resource_id", opts.ResourceID)
	}

	if opts.Action != "" {
		add("action", opts.Action)
	}

	if opts.Actor != "" {
		add("actor", opts.Actor)
	}

	if opts.Since != nil {
		conditions = append(conditions, "created_at >= $"+strconv.Itoa(argIdx))
		args = append(args, *opts.Since)
		argIdx++
	}

	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	return where, args, argIdx
}

// QueryActivity returns entries matching the filters, newest first, and
// whether more entries exist past the page.
func (s *ActivityStore) QueryActivity(
	ctx context.Context, opts models.ActivityQueryOpts,
) ([]models.ActivityEntry, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	where, args, argIdx := buildActivityFilter(opts)

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}

	query := fmt.Sprintf(
		"SELECT id, action, resource_type, resource_id, actor, detail, created_at FROM activity_log %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		where, argIdx, argIdx+1,
	)
	args = append(args, limit+1, opts.Offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("querying activity log: %w", err)
	}

	entries, err := scanActivityRows(rows, s.Log)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	return entries, hasMore, nil
}

// scanActivityRows drains rows into activity entries. Undecodable detail
// payloads are logged and dropped rather than failing the page.
func scanActivityRows(rows pgx.Rows, log *logrus.Logger) ([]models.ActivityEntry, error) {
	defer rows.Close()

	entries := make([]models.ActivityEntry, 0)

	for rows.Next() {
		var e models.ActivityEntry
		var detailJSON []byte
		var actor *string

		if err := rows.Scan(&e.ID, &e.Action, &e.ResourceType, &e.ResourceID, &actor, &detailJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}

		if actor != nil {
			e.Actor = *actor
		}

		if detailJSON != nil {
			if err := json.Unmarshal(detailJSON, &e.Detail); err != nil {
				log.WithError(err).WithField("id", e.ID).Warn("failed to unmarshal activity detail")
			}
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity rows: %w", err)
	}

	return entries, nil
}

// purgeBatchSize limits the rows deleted per statement to keep locks short.
const purgeBatchSize = 5000

// PurgeOlderThan deletes entries created before cutoff in batches and returns
// the number deleted.
func (s *ActivityStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	var total int

	for {
		batchCtx, cancel := withTimeout(ctx)
		deleted, err := s.purgeBatch(batchCtx, cutoff)
		cancel()

		if err != nil {
			return total, err
		}

		total += deleted
		if deleted < purgeBatchSize {
			return total, nil
		}
	}
}

func (s *ActivityStore) purgeBatch(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.Pool.Exec(ctx,
		`DELETE FROM activity_log WHERE id IN (
			SELECT id FROM activity_log WHERE created_at < $1 LIMIT $2
		)`,
		cutoff, purgeBatchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("purging activity entries: %w", err)
	}

	return int(tag.RowsAffected()), nil
}
