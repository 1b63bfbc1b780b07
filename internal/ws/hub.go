// Package ws delivers session-change events to users' WebSocket connections.
package ws

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/metrics"
	"github.com/persistorai/auditdesk/internal/models"
)

// Hub channel buffer sizes and connection caps.
const (
	sendBuffer     = 256
	registerBuffer = 64
	maxClients     = 1000
	maxPerUser     = 10
)

// maxEventPayload is the largest event body the hub forwards.
const maxEventPayload = 8000

// drainTimeout is how long the hub waits for clients to flush on shutdown.
const drainTimeout = 3 * time.Second

// userMessage is handed to the Run goroutine for delivery.
// When direct is set only that client receives msg.
type userMessage struct {
	userID string
	direct *Client
	msg    []byte
	close  bool
}

// Hub tracks connected clients by user. All map mutations happen in Run.
type Hub struct {
	clients    map[*Client]struct{}
	perUser    map[string]int
	register   chan *Client
	unregister chan *Client
	outbound   chan userMessage
	shutdown   chan struct{}
	done       chan struct{}
	count      atomic.Int64
	log        *logrus.Logger
	seq        *EventSequence
	buffer     *EventBuffer
}

// NewHub creates a Hub. Call Run to start it.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		perUser:    make(map[string]int),
		register:   make(chan *Client, registerBuffer),
		unregister: make(chan *Client, registerBuffer),
		outbound:   make(chan userMessage, sendBuffer),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		log:        log,
		seq:        NewEventSequence(),
		buffer:     NewEventBuffer(defaultBufferMaxLen, defaultBufferMaxAge),
	}
}

// Run is the hub event loop. It exits when ctx is cancelled or Shutdown is called.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	evict := time.NewTicker(10 * time.Minute)
	defer evict.Stop()

	for {
		select {
		case <-ctx.Done():
			h.drainClients()
			return
		case <-h.shutdown:
			h.drainClients()
			return
		case <-evict.C:
			h.buffer.EvictStale()
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case m := <-h.outbound:
			h.deliver(m)
		}
	}
}

func (h *Hub) add(c *Client) {
	if len(h.clients) >= maxClients {
		h.log.Warn("global connection limit reached, dropping client")
		c.closeSend()

		return
	}

	if h.perUser[c.UserID] >= maxPerUser {
		h.log.WithField("user_id", c.UserID).Warn("per-user connection limit reached, dropping client")
		c.closeSend()

		return
	}

	h.clients[c] = struct{}{}
	h.perUser[c.UserID]++
	h.updateCount()
	h.log.WithFields(logrus.Fields{"user_id": c.UserID, "total": len(h.clients)}).Debug("client registered")
}

func (h *Hub) remove(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	delete(h.clients, c)
	c.closeSend()

	if h.perUser[c.UserID]--; h.perUser[c.UserID] <= 0 {
		delete(h.perUser, c.UserID)
	}

	h.updateCount()
}

// deliver queues msg on every client of the user. Slow clients are dropped.
// When close is set the clients are disconnected after the message flushes.
func (h *Hub) deliver(m userMessage) {
	for c := range h.clients {
		if c.UserID != m.userID || (m.direct != nil && m.direct != c) {
			continue
		}

		select {
		case c.send <- m.msg:
			if m.close {
				h.remove(c)
			}
		default:
			h.log.WithField("user_id", c.UserID).Warn("client send buffer full, disconnecting")
			h.remove(c)
		}
	}
}

func (h *Hub) updateCount() {
	h.count.Store(int64(len(h.clients)))
	metrics.WSConnections.Set(float64(len(h.clients)))
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	default:
		h.log.Warn("register channel full, dropping client")
		c.closeSend()
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// SendToUser stamps an event id, buffers the event for replay and delivers
// it to every connection of userID. A sign-out event also closes them.
func (h *Hub) SendToUser(userID, eventType string, data json.RawMessage) {
	if len(data) > maxEventPayload {
		h.log.WithFields(logrus.Fields{
			"user_id":      userID,
			"payload_size": len(data),
		}).Warn("dropping oversized session event")

		return
	}

	evt := Event{
		Type:   eventType,
		ID:     h.seq.Next(userID),
		UserID: userID,
		Data:   data,
		Time:   time.Now().UTC(),
	}

	msg, err := json.Marshal(evt)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal event")
		return
	}

	h.buffer.Append(&evt)

	h.enqueue(userMessage{userID: userID, msg: msg, close: eventType == models.SessionSignedOut})
}

// Shutdown drains clients and blocks until Run has exited.
func (h *Hub) Shutdown() {
	close(h.shutdown)
	<-h.done
}

// drainClients sends a shutdown frame to every client, waits briefly for the
// send buffers to empty, then closes them all.
func (h *Hub) drainClients() {
	if len(h.clients) == 0 {
		return
	}

	h.log.WithField("clients", len(h.clients)).Info("draining WebSocket clients")

	shutdownMsg := []byte(`{"type":"shutdown","data":null}`)
	for c := range h.clients {
		select {
		case c.send <- shutdownMsg:
		default:
		}
	}

	deadline := time.Now().Add(drainTimeout)
	for time.Now().Before(deadline) && h.pending() {
		time.Sleep(50 * time.Millisecond)
	}

	for c := range h.clients {
		c.closeSend()
		delete(h.clients, c)
	}

	h.perUser = make(map[string]int)
	h.updateCount()
}

func (h *Hub) pending() bool {
	for c := range h.clients {
		if len(c.send) > 0 {
			return true
		}
	}

	return false
}

func (h *Hub) enqueue(m userMessage) {
	select {
	case h.outbound <- m:
	default:
		h.log.Warn("outbound channel full, dropping event")
	}
}

// replay queues the user's buffered events after lastEventID for c. When
// lastEventID has already been evicted it queues a reset instead.
func (h *Hub) replay(c *Client, lastEventID uint64) {
	oldest := h.buffer.OldestID(c.UserID)
	if oldest > 0 && lastEventID > 0 && lastEventID < oldest-1 {
		msg, err := json.Marshal(ResetMsg{
			Type:   "reset",
			Reason: "requested events no longer available, refetch the session",
		})
		if err == nil {
			h.enqueue(userMessage{userID: c.UserID, direct: c, msg: msg})
		}

		return
	}

	for _, evt := range h.buffer.Since(c.UserID, lastEventID) {
		msg, err := json.Marshal(evt)
		if err != nil {
			continue
		}

		h.enqueue(userMessage{userID: c.UserID, direct: c, msg: msg})
	}
}
