// Package service provides business logic between API handlers and data stores.
package service

import "github.com/sirupsen/logrus"

// ActivityEnqueuer accepts activity jobs for asynchronous recording.
type ActivityEnqueuer interface {
	Enqueue(job *ActivityJob)
}

// recordAsync enqueues an activity entry (best-effort, non-blocking).
func recordAsync(w ActivityEnqueuer, actor, action, resourceType, resourceID string, detail map[string]any) {
	if w == nil {
		return
	}

	w.Enqueue(&ActivityJob{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Actor:        actor,
		Detail:       detail,
	})
}

// logDelete emits the warn line every hard delete leaves behind.
func logDelete(log *logrus.Logger, actor, resourceType, id string) {
	log.WithFields(logrus.Fields{
		"actor":    actor,
		"resource": resourceType,
		"id":       id,
	}).Warn("hard delete")
}
