// Package store persists users and their voucher history. Queries use $N
// placeholders in order of first appearance and pass every timestamp as an
// argument, so the same SQL runs on postgres (lib/pq) and sqlite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
	"github.com/vouchersplit/backend/internal/errs"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

// notFound converts sql.ErrNoRows into errs.ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errs.Markf(errs.ErrNotFound, "%s not found", what)
	}
	return errs.Wrapf(err, "load %s", what)
}

// expectOneRow maps a zero-row optimistic update to ErrVersionMismatch.
func expectOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errs.Wrapf(err, "update %s", what)
	}
	if n == 0 {
		return errs.Markf(errs.ErrVersionMismatch, "optimistic lock failed for %s", what)
	}
	return nil
}
