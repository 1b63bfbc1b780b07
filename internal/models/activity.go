package models

import "time"

// ActivityEntry is one row of the write-activity log.
type ActivityEntry struct {
	ID           int64          `json:"id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Actor        string         `json:"actor,omitempty"`
	Detail       map[string]any `json:"detail,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ActivityQueryOpts holds filters for querying the activity log.
type ActivityQueryOpts struct {
	ResourceType string
	ResourceID   string
	Action       string
	Actor        string
	Since        *time.Time
	Limit        int
	Offset       int
}
