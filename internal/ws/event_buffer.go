package ws

import (
	"sort"
	"sync"
	"time"
)

const (
	defaultBufferMaxLen = 100
	defaultBufferMaxAge = 30 * time.Minute
)

// EventBuffer keeps each user's recent events for replay on reconnect.
type EventBuffer struct {
	mu     sync.RWMutex
	events map[string][]Event
	maxAge time.Duration
	maxLen int
	now    func() time.Time
}

// NewEventBuffer creates an EventBuffer holding at most maxLen events per user,
// none older than maxAge.
func NewEventBuffer(maxLen int, maxAge time.Duration) *EventBuffer {
	return &EventBuffer{
		events: make(map[string][]Event),
		maxAge: maxAge,
		maxLen: maxLen,
		now:    time.Now,
	}
}

// Append stores an event and trims expired or excess entries for its user.
func (eb *EventBuffer) Append(evt *Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	buf := eb.trim(eb.events[evt.UserID])
	buf = append(buf, *evt)

	if len(buf) > eb.maxLen {
		buf = buf[len(buf)-eb.maxLen:]
	}

	eb.events[evt.UserID] = buf
}

// EvictStale drops users whose newest event has expired.
func (eb *EventBuffer) EvictStale() {
	cutoff := eb.now().Add(-eb.maxAge)

	eb.mu.Lock()
	defer eb.mu.Unlock()

	for userID, buf := range eb.events {
		if len(buf) == 0 || buf[len(buf)-1].Time.Before(cutoff) {
			delete(eb.events, userID)
		}
	}
}

func (eb *EventBuffer) trim(buf []Event) []Event {
	cutoff := eb.now().Add(-eb.maxAge)

	start := 0
	for start < len(buf) && buf[start].Time.Before(cutoff) {
		start++
	}

	return buf[start:]
}

// Since returns a copy of the user's events with ID > lastEventID.
func (eb *EventBuffer) Since(userID string, lastEventID uint64) []Event {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	buf := eb.events[userID]
	i := sort.Search(len(buf), func(i int) bool { return buf[i].ID > lastEventID })

	if i >= len(buf) {
		return nil
	}

	out := make([]Event, len(buf)-i)
	copy(out, buf[i:])

	return out
}

// OldestID returns the oldest buffered id for a user, or 0 if none.
func (eb *EventBuffer) OldestID(userID string) uint64 {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if buf := eb.events[userID]; len(buf) > 0 {
		return buf[0].ID
	}

	return 0
}
