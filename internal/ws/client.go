package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/models"
)

const (
	writeTimeout         = 10 * time.Second
	wsReadLimit          = 1024
	clientSendBuffer     = 64
	tokenRefreshInterval = 5 * time.Minute
	tokenRefreshTimeout  = 10 * time.Second
	pingInterval         = 30 * time.Second
	pingTimeout          = 10 * time.Second
	maxMissedPongs       = int32(2)
)

// TokenChecker re-validates the bearer token a connection was opened with.
type TokenChecker interface {
	VerifyToken(ctx context.Context, token string) (*models.Identity, error)
}

// Client is one WebSocket connection owned by a user.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	log       *logrus.Logger
	UserID    string
	token     string
	expiresAt time.Time
	checker   TokenChecker
	closeOnce sync.Once
}

// NewClient wraps conn for the authenticated identity. token is re-checked
// periodically so revoked sessions are disconnected.
func NewClient(hub *Hub, conn *websocket.Conn, checker TokenChecker, ident *models.Identity, token string) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, clientSendBuffer),
		log:       hub.log,
		UserID:    ident.ID,
		token:     token,
		expiresAt: ident.ExpiresAt,
		checker:   checker,
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// ReadPump reads client messages until the connection closes. The only
// message understood is a subscribe request asking for replay.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.CloseNow() //nolint:errcheck // best-effort close on teardown
	}()

	c.conn.SetReadLimit(wsReadLimit)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				c.log.WithField("status", status).Debug("client disconnected")
			}

			return
		}

		var msg SubscribeMsg
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "subscribe" {
			continue
		}

		c.hub.replay(c, msg.LastEventID)
	}
}

// WritePump writes queued messages, pings the peer, and closes the connection
// when the token expires or is revoked.
func (c *Client) WritePump(ctx context.Context) {
	defer c.conn.CloseNow() //nolint:errcheck // best-effort close on teardown

	lifetime := time.Until(c.expiresAt)
	if c.expiresAt.IsZero() {
		lifetime = 4 * time.Hour
	}

	expiry := time.NewTimer(lifetime)
	defer expiry.Stop()

	refresh := time.NewTicker(tokenRefreshInterval)
	defer refresh.Stop()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	var missedPongs atomic.Int32

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "") //nolint:errcheck // best-effort
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()

			if err != nil {
				c.log.WithError(err).Debug("write failed")
				return
			}
		case <-ping.C:
			if c.missedPing(ctx, &missedPongs) {
				return
			}
		case <-refresh.C:
			if !c.tokenValid(ctx) {
				c.conn.Close(websocket.StatusPolicyViolation, "session expired") //nolint:errcheck // best-effort
				return
			}
		case <-expiry.C:
			c.conn.Close(websocket.StatusPolicyViolation, "session expired") //nolint:errcheck // best-effort
			return
		}
	}
}

// missedPing pings the peer and reports whether too many pongs were missed.
func (c *Client) missedPing(ctx context.Context, missed *atomic.Int32) bool {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := c.conn.Ping(pingCtx)
	cancel()

	if err == nil {
		missed.Store(0)
		return false
	}

	return missed.Add(1) >= maxMissedPongs
}

func (c *Client) tokenValid(ctx context.Context) bool {
	if c.checker == nil {
		return true
	}

	checkCtx, cancel := context.WithTimeout(ctx, tokenRefreshTimeout)
	defer cancel()

	_, err := c.checker.VerifyToken(checkCtx, c.token)
	if err != nil {
		c.log.WithField("user_id", c.UserID).Info("closing WebSocket: token no longer valid")
	}

	return err == nil
}
