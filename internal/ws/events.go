package ws

import (
	"encoding/json"
	"sync"
	"time"
)

// Event is the structured message sent to WebSocket clients.
type Event struct {
	Type   string          `json:"type"`
	ID     uint64          `json:"id"`
	UserID string          `json:"-"`
	Data   json.RawMessage `json:"data"`
	Time   time.Time       `json:"time"`
}

// SubscribeMsg is sent by the client after connecting to replay events it
// missed while disconnected.
type SubscribeMsg struct {
	Type        string `json:"type"`
	LastEventID uint64 `json:"last_event_id"`
}

// ResetMsg tells the client to refetch its session because the requested
// events are no longer buffered.
type ResetMsg struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// EventSequence hands out monotonic event ids per user.
type EventSequence struct {
	mu       sync.Mutex
	counters map[string]uint64
}

// NewEventSequence creates an empty EventSequence.
func NewEventSequence() *EventSequence {
	return &EventSequence{counters: make(map[string]uint64)}
}

// Next returns the next id for userID, starting at 1.
func (es *EventSequence) Next(userID string) uint64 {
	es.mu.Lock()
	defer es.mu.Unlock()

	es.counters[userID]++

	return es.counters[userID]
}
