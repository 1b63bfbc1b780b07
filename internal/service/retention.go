package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Purger deletes activity entries older than a cutoff.
type Purger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// RetentionScheduler purges expired activity entries on a cron schedule.
type RetentionScheduler struct {
	purger    Purger
	log       *logrus.Logger
	retention time.Duration
	cron      *cron.Cron
	now       func() time.Time
}

// NewRetentionScheduler parses schedule (standard five-field spec or a
// descriptor such as "@daily") and registers the purge job.
func NewRetentionScheduler(
	purger Purger, log *logrus.Logger, schedule string, retentionDays int,
) (*RetentionScheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	s := &RetentionScheduler{
		purger:    purger,
		log:       log,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		cron:      cron.New(cron.WithParser(parser)),
		now:       time.Now,
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("parsing purge schedule %q: %w", schedule, err)
	}

	return s, nil
}

// RunOnce purges entries older than the retention window.
func (s *RetentionScheduler) RunOnce(ctx context.Context) {
	cutoff := s.now().Add(-s.retention)

	if _, err := s.purger.PurgeOlderThan(ctx, cutoff); err != nil {
		s.log.WithError(err).Error("activity purge failed")
	}
}

// Run starts the scheduler and blocks until ctx is cancelled, then waits for
// a running purge to finish.
func (s *RetentionScheduler) Run(ctx context.Context) {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
}
