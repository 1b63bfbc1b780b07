package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/domain"
	"github.com/persistorai/auditdesk/internal/models"
)

const maxActivityPage = 500

// ActivityStore is the data-access interface ActivityService depends on.
// The method sets are identical, so it aliases the domain interface.
type ActivityStore = domain.ActivityService

// Compile-time check: *ActivityService must satisfy domain.ActivityService.
var _ domain.ActivityService = (*ActivityService)(nil)

// ActivityService wraps ActivityStore with paging limits and purge logging.
type ActivityService struct {
	store ActivityStore
	log   *logrus.Logger
}

// NewActivityService creates an ActivityService.
func NewActivityService(store ActivityStore, log *logrus.Logger) *ActivityService {
	return &ActivityService{store: store, log: log}
}

// RecordActivity inserts an activity entry (pass-through).
func (s *ActivityService) RecordActivity(
	ctx context.Context, action, resourceType, resourceID, actor string, detail map[string]any,
) error {
	return s.store.RecordActivity(ctx, action, resourceType, resourceID, actor, detail)
}

// QueryActivity returns entries matching the filters with the page size clamped.
func (s *ActivityService) QueryActivity(
	ctx context.Context, opts models.ActivityQueryOpts,
) ([]models.ActivityEntry, bool, error) {
	if opts.Limit > maxActivityPage {
		opts.Limit = maxActivityPage
	}

	if opts.Offset < 0 {
		opts.Offset = 0
	}

	return s.store.QueryActivity(ctx, opts)
}

// PurgeOlderThan deletes entries created before cutoff and logs the result.
func (s *ActivityService) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	deleted, err := s.store.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return deleted, err
	}

	s.log.WithFields(logrus.Fields{
		"cutoff":  cutoff.UTC().Format(time.RFC3339),
		"deleted": deleted,
	}).Info("activity.purge")

	return deleted, nil
}
