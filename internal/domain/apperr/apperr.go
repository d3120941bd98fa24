// Package apperr holds the error kinds shared by every operation and the
// wrapper that carries them across layers.
package apperr

import (
	"errors"
	"fmt"
)

// Kinds. Callers match with errors.Is.
var (
	ErrValidation       = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrInvalidState     = errors.New("invalid state")
	ErrConflict         = errors.New("conflict")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrInternal         = errors.New("internal error")
)

var kinds = []error{
	ErrValidation,
	ErrUnauthorized,
	ErrForbidden,
	ErrNotFound,
	ErrInvalidState,
	ErrConflict,
	ErrCapacityExceeded,
	ErrInternal,
}

// Error is an operation failure of a known kind.
type Error struct {
	Op   string
	Kind error
	// Msg is safe to show to callers. Empty means use the kind's text.
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.kindText(), e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message())
}

// Message is the caller-facing text. Internal errors never expose the cause.
func (e *Error) Message() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Err != nil && e.Kind != ErrInternal:
		return e.kindText() + ": " + e.Err.Error()
	default:
		return e.kindText()
	}
}

func (e *Error) kindText() string {
	if e.Kind == nil {
		return ErrInternal.Error()
	}
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.Error()
}

// Is reports kind membership so errors.Is(err, ErrConflict) works.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error { return e.Err }

// NewKind returns an error of kind with no cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Newf returns an error of kind with a caller-facing message.
func Newf(op string, kind error, format string, args ...any) error {
	return &Error{Op: op, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapKind wraps err as kind. A nil err returns nil.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// Internal wraps an unexpected failure. The cause is kept for logs only.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Op: op, Kind: ErrInternal, Err: err}
}

// KindOf returns the kind carried by err, ErrInternal when it has none.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}

// Message returns the caller-facing text for err.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Kind == ErrInternal && ae.Msg == "" {
			return ErrInternal.Error()
		}
		return ae.Message()
	}
	if KindOf(err) == ErrInternal {
		return ErrInternal.Error()
	}
	return err.Error()
}
