// Package security holds in-process defences for the login endpoint.
package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Default login guard limits: 5 failures within 15 minutes lock the account
// name for 15 minutes.
const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 15 * time.Minute
	DefaultLockout     = 15 * time.Minute
	cleanupInterval    = 60 * time.Second
	maxTrackedKeys     = 10000
)

type failureRecord struct {
	attempts  int
	firstFail time.Time
	lockedAt  time.Time
}

// LoginGuard tracks failed sign-ins per account name and locks out names that
// exceed the failure threshold within the tracking window. Names are hashed so
// e-mail addresses never sit in memory in clear text.
type LoginGuard struct {
	mu          sync.Mutex
	records     map[string]*failureRecord
	log         *logrus.Logger
	now         func() time.Time
	maxAttempts int
	window      time.Duration
	lockout     time.Duration
}

// NewLoginGuard creates a guard with the default limits and starts a cleanup
// goroutine that stops when ctx is cancelled.
func NewLoginGuard(ctx context.Context, log *logrus.Logger) *LoginGuard {
	g := &LoginGuard{
		records:     make(map[string]*failureRecord),
		log:         log,
		now:         time.Now,
		maxAttempts: DefaultMaxAttempts,
		window:      DefaultWindow,
		lockout:     DefaultLockout,
	}

	go g.cleanupLoop(ctx)

	return g
}

func keyHash(name string) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(name))))
	return hex.EncodeToString(h[:])
}

// RetryAfter returns how long name stays locked out, or zero when it may try.
func (g *LoginGuard) RetryAfter(name string) time.Duration {
	kh := keyHash(name)

	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[kh]
	if !ok || rec.lockedAt.IsZero() {
		return 0
	}

	if left := g.lockout - g.now().Sub(rec.lockedAt); left > 0 {
		return left
	}

	return 0
}

// IsBlocked reports whether name is currently locked out.
func (g *LoginGuard) IsBlocked(name string) bool {
	return g.RetryAfter(name) > 0
}

// RecordFailure counts a failed sign-in for name.
func (g *LoginGuard) RecordFailure(name string) {
	kh := keyHash(name)
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[kh]
	if !ok || now.Sub(rec.firstFail) > g.window {
		g.records[kh] = &failureRecord{attempts: 1, firstFail: now}
		return
	}

	rec.attempts++
	if rec.attempts >= g.maxAttempts && rec.lockedAt.IsZero() {
		rec.lockedAt = now
		g.log.WithField("key_hash", kh[:16]).Warn("login locked out after repeated failures")
	}
}

// Reset clears failure tracking for name after a successful sign-in.
func (g *LoginGuard) Reset(name string) {
	kh := keyHash(name)

	g.mu.Lock()
	delete(g.records, kh)
	g.mu.Unlock()
}

func (g *LoginGuard) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sweep()
		}
	}
}

// sweep drops expired records and caps the map size.
func (g *LoginGuard) sweep() {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	for k, rec := range g.records {
		switch {
		case !rec.lockedAt.IsZero() && now.Sub(rec.lockedAt) >= g.lockout:
			delete(g.records, k)
		case rec.lockedAt.IsZero() && now.Sub(rec.firstFail) >= g.window:
			delete(g.records, k)
		}
	}

	if len(g.records) > maxTrackedKeys {
		g.evictOldest(len(g.records) - maxTrackedKeys)
	}
}

// evictOldest removes the n records with the oldest first failure.
// Caller must hold g.mu.
func (g *LoginGuard) evictOldest(n int) {
	type entry struct {
		key  string
		time time.Time
	}

	entries := make([]entry, 0, len(g.records))
	for k, rec := range g.records {
		entries = append(entries, entry{k, rec.firstFail})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].time.Before(entries[j].time)
	})

	for i := range n {
		delete(g.records, entries[i].key)
	}
}
