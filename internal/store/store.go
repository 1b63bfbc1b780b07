// Package store provides focused, single-concern PostgreSQL data access for
// auditdesk resources.
//
// Each store owns one resource (entities, plans, audits, findings, users,
// activity) and embeds shared helpers via the Base struct. Stores never import
// each other; shared logic lives in this file or in errors.go and scan.go.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/db"
	"github.com/persistorai/auditdesk/internal/dbpool"
	"github.com/persistorai/auditdesk/internal/models"
)

const defaultQueryTimeout = 30 * time.Second

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// beginTx starts a read-write transaction.
func (b *Base) beginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return tx, nil
}

// beginReadTx starts a read-only transaction so multi-query reads see one snapshot.
func (b *Base) beginReadTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}

	return tx, nil
}

// notifySession publishes a session change on db.SessionChannel
// (best-effort, post-commit).
func (b *Base) notifySession(userID, eventType string, user *models.User) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload, err := json.Marshal(models.SessionEvent{UserID: userID, Type: eventType, User: user})
	if err != nil {
		b.Log.WithError(err).Warn("failed to encode session notification")
		return
	}

	if _, err := b.Pool.Exec(ctx, "SELECT pg_notify($1, $2)", db.SessionChannel, string(payload)); err != nil {
		b.Log.WithError(err).WithField("type", eventType).Warn("failed to send session notification")
	}
}

// nullIfEmpty maps "" to SQL NULL for optional UUID references.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
