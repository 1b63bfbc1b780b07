// Package session tracks the signed-in user of an auditdesk client and keeps
// it current as the server publishes session changes.
//
// A Context is created once by the application root and passed by reference
// to everything that needs to know who is signed in.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/client"
	"github.com/persistorai/auditdesk/internal/models"
)

// State is the authentication state of a Context.
type State int

// Authentication states. A new Context starts in Loading.
const (
	Loading State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Provider is the identity backend a Context talks to.
type Provider interface {
	Session(ctx context.Context) (*client.Session, error)
	Login(ctx context.Context, email, password string) (*client.Session, error)
	SignUp(ctx context.Context, req *client.SignUpRequest) (*client.Session, error)
	Logout(ctx context.Context) error
	CreateUser(ctx context.Context, req *client.CreateUserRequest) (*client.User, error)
	// Watch delivers session changes for the signed-in user until ctx is
	// cancelled. A nil user means the session ended.
	Watch(ctx context.Context, onChange func(user *client.User, signedOut bool)) error
}

// Listener is called after every state change.
type Listener func(state State, user *client.User)

// Context holds the current user and notifies listeners when it changes.
type Context struct {
	provider Provider
	log      *logrus.Logger

	mu         sync.RWMutex
	state      State
	user       *client.User
	lifetime   context.Context
	stopWatch  context.CancelFunc
	listeners  map[uint64]Listener
	nextListen uint64
}

// New creates a Context in the Loading state.
func New(provider Provider, log *logrus.Logger) *Context {
	return &Context{
		provider:  provider,
		log:       log,
		state:     Loading,
		listeners: make(map[uint64]Listener),
	}
}

// Start resolves the current session and, when signed in, follows session
// changes for the lifetime of ctx. A 401 leaves the Context unauthenticated;
// other failures do too, and are logged and returned.
func (c *Context) Start(ctx context.Context) error {
	c.mu.Lock()
	c.lifetime = ctx
	c.mu.Unlock()

	sess, err := c.provider.Session(ctx)

	switch {
	case err == nil && sess != nil && sess.User != nil:
		c.setUser(sess.User)
		c.watch()

		return nil
	case err == nil || client.IsUnauthorized(err):
		c.setUser(nil)

		return nil
	default:
		c.log.WithError(err).Warn("could not restore session")
		c.setUser(nil)

		return err
	}
}

// State returns the current authentication state.
func (c *Context) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state
}

// User returns the signed-in user, or nil.
func (c *Context) User() *client.User {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.user
}

// SignIn authenticates with e-mail and password.
func (c *Context) SignIn(ctx context.Context, email, password string) error {
	sess, err := c.provider.Login(ctx, email, password)
	if err != nil {
		return err
	}

	c.setUser(sess.User)
	c.watch()

	return nil
}

// SignUp registers a new account and signs it in.
func (c *Context) SignUp(ctx context.Context, req *client.SignUpRequest) error {
	sess, err := c.provider.SignUp(ctx, req)
	if err != nil {
		return err
	}

	c.setUser(sess.User)
	c.watch()

	return nil
}

// SignOut ends the session. The local user is cleared even when the server
// call fails; the error is still returned.
func (c *Context) SignOut(ctx context.Context) error {
	err := c.provider.Logout(ctx)

	c.mu.Lock()
	if c.stopWatch != nil {
		c.stopWatch()
		c.stopWatch = nil
	}
	c.mu.Unlock()

	c.setUser(nil)

	if err != nil {
		c.log.WithError(err).Warn("sign-out request failed")
	}

	return err
}

// CreateUser provisions another account (admin only). The account, its
// profile and its role are created in one server-side transaction.
func (c *Context) CreateUser(ctx context.Context, req *client.CreateUserRequest) (*client.User, error) {
	if c.State() != Authenticated {
		return nil, errors.New("session: not signed in")
	}

	return c.provider.CreateUser(ctx, req)
}

// HasRole reports whether the user's resolved role is one of roles.
func (c *Context) HasRole(roles ...string) bool {
	u := c.User()

	return u != nil && slices.Contains(roles, u.Role)
}

// HasPermission reports whether any of the user's roles grants perm.
func (c *Context) HasPermission(perm string) bool {
	u := c.User()

	return u != nil && models.HasPermission(u.Roles, perm)
}

// Subscription is a registered Listener.
type Subscription struct {
	c  *Context
	id uint64
}

// Cancel unregisters the listener. It is safe to call more than once.
func (s *Subscription) Cancel() {
	s.c.mu.Lock()
	delete(s.c.listeners, s.id)
	s.c.mu.Unlock()
}

// Subscribe registers fn to run after every state change.
func (c *Context) Subscribe(fn Listener) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextListen++
	c.listeners[c.nextListen] = fn

	return &Subscription{c: c, id: c.nextListen}
}

// setUser applies a new user (nil means signed out) and notifies listeners
// outside the lock.
func (c *Context) setUser(u *client.User) {
	c.mu.Lock()

	c.user = u
	if u != nil {
		c.state = Authenticated
	} else {
		c.state = Unauthenticated
	}

	state := c.state
	fns := make([]Listener, 0, len(c.listeners))

	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}

	c.mu.Unlock()

	for _, fn := range fns {
		fn(state, u)
	}
}

// watch follows session changes until the Start context ends or the user
// signs out. Without a Start context nothing is watched.
func (c *Context) watch() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lifetime == nil {
		return
	}

	if c.stopWatch != nil {
		c.stopWatch()
	}

	ctx, cancel := context.WithCancel(c.lifetime)
	c.stopWatch = cancel

	go func() {
		err := c.provider.Watch(ctx, func(user *client.User, signedOut bool) {
			if ctx.Err() != nil {
				return
			}

			if signedOut {
				c.setUser(nil)
				return
			}

			c.setUser(user)
		})
		if err != nil && ctx.Err() == nil {
			c.log.WithError(err).Warn("session watch stopped")
		}
	}()
}
