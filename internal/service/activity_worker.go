package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/domain"
	"github.com/persistorai/auditdesk/internal/metrics"
)

const defaultActivityQueueSize = 1000

// ActivityRecorder is an alias for the canonical domain.ActivityRecorder interface.
type ActivityRecorder = domain.ActivityRecorder

// ActivityJob is a single activity entry waiting to be recorded.
type ActivityJob struct {
	Action       string
	ResourceType string
	ResourceID   string
	Actor        string
	Detail       map[string]any
}

// ActivityWorker buffers activity entries and writes them from one goroutine
// so request handlers never wait on the log table.
type ActivityWorker struct {
	recorder ActivityRecorder
	log      *logrus.Logger
	jobs     chan *ActivityJob
}

// NewActivityWorker creates an ActivityWorker with the given queue capacity.
func NewActivityWorker(recorder ActivityRecorder, log *logrus.Logger, queueSize int) *ActivityWorker {
	if queueSize <= 0 {
		queueSize = defaultActivityQueueSize
	}

	return &ActivityWorker{
		recorder: recorder,
		log:      log,
		jobs:     make(chan *ActivityJob, queueSize),
	}
}

// Enqueue adds a job without blocking; the job is dropped when the queue is full.
func (w *ActivityWorker) Enqueue(job *ActivityJob) {
	select {
	case w.jobs <- job:
	default:
		metrics.ActivityDropped.Inc()
		w.log.WithField("action", job.Action).Warn("activity queue full, dropping entry")
	}
}

// Run records jobs until ctx is cancelled, then drains what is left.
func (w *ActivityWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case job := <-w.jobs:
			w.process(job)
		}
	}
}

func (w *ActivityWorker) drain() {
	for {
		select {
		case job := <-w.jobs:
			w.process(job)
		default:
			return
		}
	}
}

func (w *ActivityWorker) process(job *ActivityJob) {
	// Detached from the request so a finished request cannot cancel the write.
	if err := w.recorder.RecordActivity(
		context.Background(), job.Action, job.ResourceType, job.ResourceID, job.Actor, job.Detail,
	); err != nil {
		w.log.WithError(err).WithField("action", job.Action).Warn("activity record failed")
	}
}
