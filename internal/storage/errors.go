package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"kratzbaum/internal/model"
)

var ErrDisabled = errors.New("storage disabled")

// Error carries the failed operation and table alongside the cause.
type Error struct {
	Op    string
	Table string
	Err   error
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, "storage: "+e.Op)
	if e.Table != "" {
		parts = append(parts, "table="+e.Table)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error { return e.Err }

// wrap classifies driver errors into model error kinds.
func wrap(err error, op, table string) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return &Error{Op: op, Table: table, Err: model.ErrNotFound}
	case isUniqueViolation(err):
		return &Error{Op: op, Table: table, Err: fmt.Errorf("%w: %s", model.ErrConflict, err.Error())}
	default:
		return &Error{Op: op, Table: table, Err: err}
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func notFound(op, table string) error {
	return &Error{Op: op, Table: table, Err: model.ErrNotFound}
}
