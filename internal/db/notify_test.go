package db

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

type sentEvent struct {
	userID    string
	eventType string
	data      json.RawMessage
}

type fakeBroadcaster struct {
	sent []sentEvent
}

func (f *fakeBroadcaster) SendToUser(userID, eventType string, data json.RawMessage) {
	f.sent = append(f.sent, sentEvent{userID: userID, eventType: eventType, data: data})
}

func newTestBridge() (*NotifyBridge, *fakeBroadcaster) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	hub := &fakeBroadcaster{}

	return NewNotifyBridge(log, nil, hub), hub
}

func TestHandleNotification_ForwardsToUser(t *testing.T) {
	b, hub := newTestBridge()

	payload := `{"user_id":"u1","type":"session.signed_out"}`
	b.handleNotification(&pgconn.Notification{Channel: SessionChannel, Payload: payload})

	if len(hub.sent) != 1 {
		t.Fatalf("expected 1 event, got %d", len(hub.sent))
	}

	got := hub.sent[0]
	if got.userID != "u1" || got.eventType != "session.signed_out" {
		t.Errorf("unexpected event: %+v", got)
	}

	if string(got.data) != payload {
		t.Errorf("payload = %s", got.data)
	}
}

func TestHandleNotification_DefaultsType(t *testing.T) {
	b, hub := newTestBridge()

	b.handleNotification(&pgconn.Notification{Payload: `{"user_id":"u2"}`})

	if len(hub.sent) != 1 || hub.sent[0].eventType != "session.updated" {
		t.Fatalf("unexpected events: %+v", hub.sent)
	}
}

func TestHandleNotification_DropsInvalid(t *testing.T) {
	b, hub := newTestBridge()

	for _, payload := range []string{`not json`, `{}`, `{"type":"session.updated"}`} {
		b.handleNotification(&pgconn.Notification{Payload: payload})
	}

	if len(hub.sent) != 0 {
		t.Errorf("expected no events, got %+v", hub.sent)
	}
}

func TestNextBackoff_Capped(t *testing.T) {
	d := initialBackoff
	for range 20 {
		d = nextBackoff(d)
		if d > maxBackoff*5/4 {
			t.Fatalf("backoff %s exceeds cap with jitter", d)
		}
	}

	if d < maxBackoff*3/4 {
		t.Errorf("backoff %s never approached cap", d)
	}
}

func TestSchemaVersion(t *testing.T) {
	if v := SchemaVersion(); v < 2 {
		t.Errorf("SchemaVersion() = %d, want at least 2", v)
	}
}

