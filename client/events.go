package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Server-sent control event types.
const (
	EventReset    = "reset"
	EventShutdown = "shutdown"
)

// ErrStreamClosed is returned by EventStream.Next after the server ends the stream.
var ErrStreamClosed = errors.New("auditdesk: event stream closed")

// Event is one message on the session event stream.
type Event struct {
	Type string          `json:"type"`
	ID   uint64          `json:"id"`
	Data json.RawMessage `json:"data"`
	Time time.Time       `json:"time"`
}

// SessionEvent decodes the session change carried by a session.* event.
func (e *Event) SessionEvent() (*SessionEvent, error) {
	var se SessionEvent
	if len(e.Data) == 0 || string(e.Data) == "null" {
		se.Type = e.Type
		return &se, nil
	}

	if err := json.Unmarshal(e.Data, &se); err != nil {
		return nil, fmt.Errorf("decode session event: %w", err)
	}

	if se.Type == "" {
		se.Type = e.Type
	}

	return &se, nil
}

// EventStream is an open websocket subscription to the caller's session events.
type EventStream struct {
	conn   *websocket.Conn
	lastID uint64
}

// Events dials /api/auth/events with the client's bearer token. When
// lastEventID is non-zero the server replays newer buffered events, or sends a
// reset event if they are gone.
func (c *Client) Events(ctx context.Context, lastEventID uint64) (*EventStream, error) {
	u, err := url.Parse(c.baseURL + "/api/auth/events")
	if err != nil {
		return nil, fmt.Errorf("parse events url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	header := http.Header{}
	if tok := c.tokens.Token(); tok != "" {
		header.Set("Authorization", "Bearer "+tok)
	}

	// The stream is long-lived; only ctx bounds it.
	hc := *c.httpClient
	hc.Timeout = 0

	conn, resp, err := websocket.Dial(ctx, u.String(), &websocket.DialOptions{
		HTTPClient: &hc,
		HTTPHeader: header,
	})
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}

		return nil, fmt.Errorf("dial events: %w", err)
	}

	s := &EventStream{conn: conn, lastID: lastEventID}

	if lastEventID > 0 {
		msg := map[string]any{"type": "subscribe", "last_event_id": lastEventID}
		if err := wsjson.Write(ctx, conn, msg); err != nil {
			conn.CloseNow() //nolint:errcheck // best-effort close after failed subscribe.
			return nil, fmt.Errorf("subscribe: %w", err)
		}
	}

	return s, nil
}

// Next blocks until the next event arrives or ctx is cancelled.
func (s *EventStream) Next(ctx context.Context) (*Event, error) {
	var evt Event
	if err := wsjson.Read(ctx, s.conn, &evt); err != nil {
		if websocket.CloseStatus(err) != -1 {
			return nil, ErrStreamClosed
		}

		return nil, err
	}

	if evt.ID > s.lastID {
		s.lastID = evt.ID
	}

	return &evt, nil
}

// LastEventID is the highest event id seen, for resuming after a reconnect.
func (s *EventStream) LastEventID() uint64 {
	return s.lastID
}

// Close ends the subscription.
func (s *EventStream) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "")
}
