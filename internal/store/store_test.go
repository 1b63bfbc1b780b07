package store_test

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/db"
	"github.com/persistorai/auditdesk/internal/db/migrations"
	"github.com/persistorai/auditdesk/internal/dbpool"
	"github.com/persistorai/auditdesk/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var (
	sharedEnv *testEnv
	envOnce   sync.Once
	envErr    error
)

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	envOnce.Do(func() {
		ctx := context.Background()

		pool, err := dbpool.NewPool(ctx, dbURL, 5)
		if err != nil {
			envErr = err
			return
		}

		log := logrus.New()
		log.SetLevel(logrus.ErrorLevel)

		if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
			envErr = err
			return
		}

		sharedEnv = &testEnv{pool: pool, log: log}
	})

	if envErr != nil {
		t.Fatalf("setting up test DB: %v", envErr)
	}

	return sharedEnv
}

// setupTestBase returns a Base bound to the shared test pool.
func setupTestBase(t *testing.T) store.Base {
	t.Helper()

	env := getTestEnv(t)

	return store.Base{Pool: env.pool, Log: env.log}
}

// uniqueName returns a name that cannot collide with other test runs.
func uniqueName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// createTestUser inserts a user with the given role and removes it afterwards.
func createTestUser(t *testing.T, base store.Base, role string) string {
	t.Helper()

	users := store.NewUserStore(base)
	email := strings.ToLower(uniqueName("user")) + "@example.com"

	u, err := users.CreateAccount(context.Background(), email, "not-a-real-hash", nil, role)
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}

	t.Cleanup(func() {
		base.Pool.Exec(context.Background(), "DELETE FROM users WHERE id = $1", u.ID) //nolint:errcheck // best-effort cleanup
	})

	return u.ID
}
