package store

import (
	"context"
	"fmt"

	"github.com/persistorai/auditdesk/internal/models"
)

// DashboardStore computes the dashboard counters.
type DashboardStore struct {
	Base
}

// NewDashboardStore creates a DashboardStore.
func NewDashboardStore(base Base) *DashboardStore {
	return &DashboardStore{Base: base}
}

// Summary counts audits, open findings, entities and high-risk entities in a
// single statement so the numbers come from one snapshot.
func (s *DashboardStore) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var sum models.DashboardSummary

	err := s.Pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM audits),
			(SELECT count(*) FROM findings WHERE status NOT IN ('closed', 'accepted')),
			(SELECT count(*) FROM entities),
			(SELECT count(*) FROM entities WHERE risk_level = 'high')`,
	).Scan(&sum.Audits, &sum.OpenFindings, &sum.Entities, &sum.HighRisk)
	if err != nil {
		return nil, fmt.Errorf("computing dashboard summary: %w", err)
	}

	return &sum, nil
}
