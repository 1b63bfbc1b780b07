package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/middleware"
	"github.com/persistorai/auditdesk/internal/ws"
)

// Pagination bounds for the activity log.
const (
	defaultPageSize     = 50
	maxPaginationLimit  = 500
	maxPaginationOffset = 100000
)

func parseLimit(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return defaultPageSize
	}

	return min(v, maxPaginationLimit)
}

func parseOffset(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}

	return min(v, maxPaginationOffset)
}

// pathID returns the named path parameter as a canonical lowercase UUID.
// Anything that is not a UUID cannot match a row, so the caller answers 404.
func pathID(c *gin.Context, name string) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		return "", false
	}

	return id.String(), true
}

// actorID returns the authenticated caller's id, or "" on public routes.
func actorID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

func ginLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}
		if rid, exists := c.Get(middleware.RequestIDKey); exists {
			fields["request_id"] = rid
		}
		if uid := actorID(c); uid != "" {
			fields["user_id"] = uid
		}
		log.WithFields(fields).Info("request")
	}
}

// eventsHandler upgrades GET /auth/events to a WebSocket carrying the
// caller's session-change events.
func eventsHandler(appCtx context.Context, log *logrus.Logger, hub *ws.Hub, checker ws.TokenChecker, origins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := middleware.IdentityFrom(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "User not authenticated")
			return
		}

		token := middleware.ExtractBearerToken(c)

		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			OriginPatterns: originHosts(origins),
		})
		if err != nil {
			log.WithError(err).Warn("websocket accept failed")
			return
		}

		client := ws.NewClient(hub, conn, checker, ident, token)
		hub.Register(client)

		// Cancel when either the server shuts down or the request ends.
		wsCtx, wsCancel := context.WithCancel(appCtx)
		defer wsCancel()

		go func() {
			select {
			case <-c.Request.Context().Done():
				wsCancel()
			case <-wsCtx.Done():
			}
		}()

		go client.WritePump(wsCtx)
		client.ReadPump(wsCtx)
	}
}

// originHosts turns CORS origins ("http://host:port") into the host patterns
// websocket.Accept expects.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))

	for _, o := range origins {
		o = strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://")
		if o != "" {
			hosts = append(hosts, o)
		}
	}

	return hosts
}
