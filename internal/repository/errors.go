package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound means the referenced row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a unique key is already taken.
	ErrConflict = errors.New("record conflicts with an existing one")
	// ErrPreconditionFailed means a conditional write found its guard false.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrOutOfRange means a value does not fit its column.
	ErrOutOfRange = errors.New("value out of range")
)

const (
	uniqueViolation        = "23505"
	numericValueOutOfRange = "22003"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// isOutOfRange reports a numeric overflow, such as a price wider than
// NUMERIC(12,2) or a restock pushing quantity past BIGINT.
func isOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == numericValueOutOfRange
}
