// Package pgerr classifies database errors into the common taxonomy. Driver
// details are copied into the oops context; the driver error itself is not
// kept in the returned chain.
package pgerr

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/dmitrijs2005/kbcenter/internal/common"
)

// SQLState returns the SQLSTATE of err, or "" when err is not a server error.
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool {
	return SQLState(err) == pgerrcode.UniqueViolation
}

func IsForeignKeyViolation(err error) bool {
	return SQLState(err) == pgerrcode.ForeignKeyViolation
}

// Query wraps err as common.ErrQuery under code, or as common.ErrNotFound
// when err is sql.ErrNoRows. Context cancellation is kept in the chain so
// callers can tell an abandoned request from a storage failure.
func Query(err error, code string, op string, kv ...any) error {
	b := oops.Code(code).With("operation", op).With(kv...)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return b.Wrap(common.ErrNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return b.Wrap(errors.Join(common.ErrQuery, err))
	}

	if state := SQLState(err); state != "" {
		b = b.With("sqlstate", state)
	}
	return b.With("db_error", err.Error()).Wrap(common.ErrQuery)
}
