package domain

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrInvalidArgument marks caller-supplied data that fails a precondition.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrValidationFailed marks an item rejected by a configured business validator.
	ErrValidationFailed = errors.New("validation failed")
	// ErrNotFound marks an update against an id that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPersistence marks a failure reported by the backing store.
	ErrPersistence = errors.New("persistence error")
)

// PersistenceError wraps a store failure together with the repository
// operation that produced it.
type PersistenceError struct {
	Op   string
	Code string // SQLSTATE when the store is PostgreSQL
	Err  error
}

func NewPersistenceError(op string, err error) *PersistenceError {
	pe := &PersistenceError{Op: op, Err: err}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		pe.Code = pgErr.Code
	}
	return pe
}

func (e *PersistenceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (sqlstate %s): %v", ErrPersistence, e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Constraint reports whether the store rejected the write with an integrity
// constraint violation (SQLSTATE class 23).
func (e *PersistenceError) Constraint() bool {
	return len(e.Code) == 5 && e.Code[:2] == "23"
}
