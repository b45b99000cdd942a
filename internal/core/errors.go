package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the services wraps exactly one of
// these so the transport layer can map it with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid argument")
)

var (
	ErrInvalidAmount = &Error{Kind: ErrInvalidArgument, Msg: "amount must be greater than 0"}
	ErrInvalidPeriod = &Error{Kind: ErrInvalidArgument, Msg: "period must be in MM-YYYY format"}
	ErrInvalidDate   = &Error{Kind: ErrInvalidArgument, Msg: "invalid date"}
	ErrEmptyTitle    = &Error{Kind: ErrInvalidArgument, Msg: "title is required"}
	ErrEmptyName     = &Error{Kind: ErrInvalidArgument, Msg: "name is required"}
	ErrDateRange     = &Error{Kind: ErrInvalidArgument, Msg: "start date must not be after end date"}
)

// Error is a domain error with a kind and a user-facing message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Forbiddenf(format string, args ...any) error {
	return &Error{Kind: ErrForbidden, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

func InvalidArgumentf(format string, args ...any) error {
	return &Error{Kind: ErrInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

// Message returns the user-facing message of a domain error, or the
// fallback when err carries none.
func Message(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Msg
	}
	return fallback
}
