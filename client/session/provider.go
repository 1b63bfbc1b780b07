package session

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/client"
)

// Reconnect backoff bounds for the event stream.
const (
	minReconnect = time.Second
	maxReconnect = 30 * time.Second
)

// ClientProvider adapts an auditdesk *client.Client to Provider.
type ClientProvider struct {
	c   *client.Client
	log *logrus.Logger
}

// NewClientProvider wraps c.
func NewClientProvider(c *client.Client, log *logrus.Logger) *ClientProvider {
	return &ClientProvider{c: c, log: log}
}

// Session implements Provider. Without a token there is no session to fetch.
func (p *ClientProvider) Session(ctx context.Context) (*client.Session, error) {
	if p.c.Token() == "" {
		return nil, nil
	}

	return p.c.Auth.Session(ctx)
}

// Login implements Provider.
func (p *ClientProvider) Login(ctx context.Context, email, password string) (*client.Session, error) {
	return p.c.Auth.Login(ctx, email, password)
}

// SignUp implements Provider.
func (p *ClientProvider) SignUp(ctx context.Context, req *client.SignUpRequest) (*client.Session, error) {
	return p.c.Auth.SignUp(ctx, req)
}

// Logout implements Provider.
func (p *ClientProvider) Logout(ctx context.Context) error {
	return p.c.Auth.Logout(ctx)
}

// CreateUser implements Provider.
func (p *ClientProvider) CreateUser(ctx context.Context, req *client.CreateUserRequest) (*client.User, error) {
	return p.c.Users.Create(ctx, req)
}

// Watch implements Provider over the websocket event stream. It reconnects
// with backoff, resumes from the last event id, and refetches the session
// when the server reports that events were lost. A 401 ends the watch with
// a signed-out notification.
func (p *ClientProvider) Watch(ctx context.Context, onChange func(user *client.User, signedOut bool)) error {
	var lastID uint64

	backoff := minReconnect

	for ctx.Err() == nil {
		stream, err := p.c.Events(ctx, lastID)
		if client.IsUnauthorized(err) {
			onChange(nil, true)
			return nil
		}

		if err != nil {
			p.log.WithError(err).Debug("event stream unavailable, retrying")

			if !sleep(ctx, backoff) {
				return nil
			}

			backoff = min(backoff*2, maxReconnect)

			continue
		}

		backoff = minReconnect

		err = p.consume(ctx, stream, onChange)
		lastID = stream.LastEventID()
		stream.Close() //nolint:errcheck // reconnecting or done.

		if errors.Is(err, errSignedOut) {
			return nil
		}

		if !sleep(ctx, minReconnect) {
			return nil
		}
	}

	return nil
}

var errSignedOut = errors.New("signed out")

// consume reads one stream until it ends.
func (p *ClientProvider) consume(ctx context.Context, stream *client.EventStream, onChange func(*client.User, bool)) error {
	for {
		evt, err := stream.Next(ctx)
		if err != nil {
			return err
		}

		switch evt.Type {
		case client.SessionSignedOut:
			onChange(nil, true)
			return errSignedOut
		case client.SessionUpdated:
			se, err := evt.SessionEvent()
			if err != nil {
				p.log.WithError(err).Warn("ignoring malformed session event")
				continue
			}

			onChange(se.User, false)
		case client.EventReset:
			sess, err := p.c.Auth.Session(ctx)
			if client.IsUnauthorized(err) {
				onChange(nil, true)
				return errSignedOut
			}

			if err == nil && sess.User != nil {
				onChange(sess.User, false)
			}
		case client.EventShutdown:
			return client.ErrStreamClosed
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
