package sqlx

import (
	"errors"
	"fmt"
)

// ErrNoRows is returned by fetch operations that require at least one row
// when the statement produced none.
var ErrNoRows = errors.New("sqlx: no rows in result set")

// ErrWorkerCrashed reports that the delivery channel between a backend's
// execution worker and the consuming stream broke before the statement
// finished. It is a backend execution failure, never treated as a normal end
// of the sequence.
var ErrWorkerCrashed = errors.New("sqlx: execution worker exited unexpectedly")

// UnsupportedTypeError is returned when a concrete type descriptor has no
// erased equivalent.
type UnsupportedTypeError struct {
	// Backend is the name of the driver that produced the type.
	Backend string
	// Type is the concrete type's debug description.
	Type string
}

func (e UnsupportedTypeError) Error() string {
	return fmt.Sprintf("the %s driver does not support the type %s", e.Backend, e.Type)
}

// UnsupportedArgumentError is returned when an erased value's kind has no
// concrete mapping in the backend. Unmapped kinds are a reportable error,
// never a silent default and never a panic.
type UnsupportedArgumentError struct {
	Backend string
	Kind    Kind
}

func (e UnsupportedArgumentError) Error() string {
	return fmt.Sprintf("the %s driver has no argument mapping for values of kind %s", e.Backend, e.Kind)
}

// ColumnDecodeError reports a cell-level conversion failure, identifying the
// column by name.
type ColumnDecodeError struct {
	Column string
	Err    error
}

func (e ColumnDecodeError) Error() string {
	return fmt.Sprintf("error decoding column %q: %v", e.Column, e.Err)
}

func (e ColumnDecodeError) Unwrap() error { return e.Err }
