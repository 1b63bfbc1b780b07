package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/persistorai/auditdesk/internal/models"
)

// PostgreSQL SQLSTATE codes the stores translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgInvalidText         = "22P02"
)

// fkTables lists tables whose auto-generated constraint names prefix the
// column name, longest first so "audit_plans" wins over "audits".
var fkTables = []string{
	"audit_team_members",
	"recommendations",
	"audit_plans",
	"user_roles",
	"findings",
	"entities",
	"profiles",
	"audits",
}

// fkField recovers the column from a "<table>_<column>_fkey" constraint name.
func fkField(constraint string) string {
	name := strings.TrimSuffix(constraint, "_fkey")
	for _, table := range fkTables {
		if rest, ok := strings.CutPrefix(name, table+"_"); ok {
			return rest
		}
	}

	return name
}

// mapWriteErr translates insert/update failures. notFound is returned for
// pgx.ErrNoRows (an UPDATE ... RETURNING that matched nothing).
func mapWriteErr(err, notFound error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return models.ErrDuplicateKey
		case pgForeignKeyViolation:
			return &models.ReferenceError{Field: fkField(pgErr.ConstraintName)}
		case pgCheckViolation:
			if pgErr.ConstraintName == "entities_not_own_parent" {
				return models.ErrSelfParent
			}

			return models.NewValidationError("value violates constraint " + pgErr.ConstraintName)
		case pgInvalidText:
			return notFound
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}

// mapDeleteErr translates delete failures; a foreign key violation means the
// row is still referenced by a RESTRICT relation.
func mapDeleteErr(err, notFound error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return models.ErrHasDependents
		case pgInvalidText:
			return notFound
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}

// mapReadErr translates single-row lookups.
func mapReadErr(err, notFound error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgInvalidText {
		return notFound
	}

	return fmt.Errorf("%s: %w", op, err)
}
