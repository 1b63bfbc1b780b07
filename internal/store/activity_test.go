package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/persistorai/auditdesk/internal/models"
	"github.com/persistorai/auditdesk/internal/store"
)

func TestActivityStore_RecordAndQuery(t *testing.T) {
	base := setupTestBase(t)
	s := store.NewActivityStore(base)
	ctx := context.Background()

	resourceID := uuid.NewString()
	t.Cleanup(func() {
		base.Pool.Exec(context.Background(), "DELETE FROM activity_log WHERE resource_id = $1", resourceID) //nolint:errcheck // best-effort cleanup
	})

	for _, action := range []string{"create", "update", "delete"} {
		if err := s.RecordActivity(ctx, action, "entity", resourceID, "tester", map[string]any{"name": "HQ"}); err != nil {
			t.Fatalf("RecordActivity(%s): %v", action, err)
		}
	}

	entries, hasMore, err := s.QueryActivity(ctx, models.ActivityQueryOpts{ResourceID: resourceID, Limit: 2})
	if err != nil {
		t.Fatalf("QueryActivity: %v", err)
	}

	if len(entries) != 2 || !hasMore {
		t.Fatalf("expected 2 entries with more, got %d hasMore=%v", len(entries), hasMore)
	}

	if entries[0].Action != "delete" {
		t.Errorf("expected newest first, got %q", entries[0].Action)
	}

	if entries[0].Detail["name"] != "HQ" {
		t.Errorf("detail not decoded: %+v", entries[0].Detail)
	}

	filtered, _, err := s.QueryActivity(ctx, models.ActivityQueryOpts{ResourceID: resourceID, Action: "update"})
	if err != nil {
		t.Fatalf("QueryActivity(action): %v", err)
	}

	if len(filtered) != 1 || filtered[0].Actor != "tester" {
		t.Errorf("unexpected filtered entries: %+v", filtered)
	}
}

func TestActivityStore_PurgeOlderThan(t *testing.T) {
	base := setupTestBase(t)
	s := store.NewActivityStore(base)
	ctx := context.Background()

	resourceID := uuid.NewString()
	if err := s.RecordActivity(ctx, "create", "plan", resourceID, "", nil); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}

	if _, err := base.Pool.Exec(ctx,
		"UPDATE activity_log SET created_at = now() - interval '400 days' WHERE resource_id = $1", resourceID,
	); err != nil {
		t.Fatalf("backdating entry: %v", err)
	}

	deleted, err := s.PurgeOlderThan(ctx, time.Now().AddDate(0, 0, -365))
	if err != nil {
		t.Fatalf("PurgeOlderThan: %v", err)
	}

	if deleted < 1 {
		t.Errorf("expected at least one purged entry, got %d", deleted)
	}

	entries, _, err := s.QueryActivity(ctx, models.ActivityQueryOpts{ResourceID: resourceID})
	if err != nil {
		t.Fatalf("QueryActivity: %v", err)
	}

	if len(entries) != 0 {
		t.Errorf("expected entry purged, got %+v", entries)
	}
}

func TestDashboardStore_Summary(t *testing.T) {
	base := setupTestBase(t)
	ctx := context.Background()

	before, err := store.NewDashboardStore(base).Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	high := models.RiskHigh
	entities := store.NewEntityStore(base)

	e, err := entities.CreateEntity(ctx, "", &models.EntityInput{Name: uniqueName("dash"), RiskLevel: &high})
	if err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}

	t.Cleanup(func() {
		base.Pool.Exec(context.Background(), "DELETE FROM entities WHERE id = $1", e.ID) //nolint:errcheck // best-effort cleanup
	})

	after, err := store.NewDashboardStore(base).Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	// Other tests may run concurrently against the same database.
	if after.Entities < before.Entities+1 || after.HighRisk < before.HighRisk+1 {
		t.Errorf("counters did not grow: before=%+v after=%+v", before, after)
	}
}
