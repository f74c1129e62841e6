package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of *pgxpool.Pool used by repositories. pgx.Tx and
// pgxmock pools satisfy it too, so repositories run unchanged inside a
// transaction or against a mock.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// WithTx runs fn inside a transaction started on db. The transaction commits
// when fn returns nil and rolls back otherwise.
func WithTx(ctx context.Context, db DBTX, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique_violation,
// optionally restricted to the named constraint.
func IsUniqueViolation(err error, constraint ...string) bool {
	return hasCode(err, "23505", constraint...)
}

// IsForeignKeyViolation reports whether err is a PostgreSQL
// foreign_key_violation, optionally restricted to the named constraint.
func IsForeignKeyViolation(err error, constraint ...string) bool {
	return hasCode(err, "23503", constraint...)
}

func hasCode(err error, code string, constraint ...string) bool {
	pgErr, ok := asPgError(err)
	if !ok || pgErr.Code != code {
		return false
	}
	if len(constraint) == 0 {
		return true
	}
	return pgErr.ConstraintName == constraint[0]
}
