package security

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestGuard(t *testing.T) (*LoginGuard, *time.Time) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	g := NewLoginGuard(ctx, log)
	clock := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return clock }

	return g, &clock
}

func TestLoginGuard_ResetClearsFailures(t *testing.T) {
	g, _ := newTestGuard(t)

	g.RecordFailure("ada@example.com")
	g.RecordFailure("ada@example.com")
	g.Reset("ada@example.com")

	if g.IsBlocked("ada@example.com") {
		t.Fatal("name should not be blocked after reset")
	}
}

func TestLoginGuard_BlocksAtThreshold(t *testing.T) {
	g, _ := newTestGuard(t)

	for range DefaultMaxAttempts - 1 {
		g.RecordFailure("bob@example.com")
	}

	if g.IsBlocked("bob@example.com") {
		t.Fatal("name should not be blocked before the threshold")
	}

	g.RecordFailure("bob@example.com")

	if !g.IsBlocked("bob@example.com") {
		t.Fatal("name should be blocked at the threshold")
	}
}

func TestLoginGuard_NameIsCaseInsensitive(t *testing.T) {
	g, _ := newTestGuard(t)

	for range DefaultMaxAttempts {
		g.RecordFailure("Carol@Example.com")
	}

	if !g.IsBlocked(" carol@example.com ") {
		t.Fatal("lockout should apply regardless of case and whitespace")
	}
}

func TestLoginGuard_LockoutExpires(t *testing.T) {
	g, clock := newTestGuard(t)

	for range DefaultMaxAttempts {
		g.RecordFailure("dan@example.com")
	}

	*clock = clock.Add(DefaultLockout - time.Minute)
	if got := g.RetryAfter("dan@example.com"); got != time.Minute {
		t.Errorf("RetryAfter = %v, want 1m", got)
	}

	*clock = clock.Add(2 * time.Minute)
	if g.IsBlocked("dan@example.com") {
		t.Fatal("lockout should have expired")
	}

	g.sweep()

	if len(g.records) != 0 {
		t.Errorf("expected sweep to drop expired record, %d left", len(g.records))
	}
}

func TestLoginGuard_WindowResetsCount(t *testing.T) {
	g, clock := newTestGuard(t)

	for range DefaultMaxAttempts - 1 {
		g.RecordFailure("eve@example.com")
	}

	*clock = clock.Add(DefaultWindow + time.Second)
	g.RecordFailure("eve@example.com")

	if g.IsBlocked("eve@example.com") {
		t.Fatal("failures outside the window should not accumulate")
	}
}
