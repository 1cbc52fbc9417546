package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrStaleStatus means the row was missing or no longer in the expected status.
	ErrStaleStatus = errors.New("appointment not found or status changed")
	ErrNotFound    = errors.New("not found")
	// ErrInvalid wraps input the store refuses to write.
	ErrInvalid   = errors.New("invalid input")
	ErrDuplicate = errors.New("already exists")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
