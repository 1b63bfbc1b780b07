package service

import (
	"context"

	"github.com/persistorai/auditdesk/internal/domain"
	"github.com/persistorai/auditdesk/internal/models"
)

// DashboardStore is the data-access interface DashboardService depends on.
type DashboardStore = domain.DashboardService

// Compile-time check: *DashboardService must satisfy domain.DashboardService.
var _ domain.DashboardService = (*DashboardService)(nil)

// DashboardService serves the dashboard counters.
type DashboardService struct {
	store DashboardStore
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(store DashboardStore) *DashboardService {
	return &DashboardService{store: store}
}

// Summary returns the headline counters (pass-through).
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	return s.store.Summary(ctx)
}
