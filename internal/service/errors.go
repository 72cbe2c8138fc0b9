package service

import (
	"errors"
	"fmt"
)

// Kind classifies gateway failures.
type Kind string

const (
	KindInvalid             Kind = "invalid"
	KindNotFound            Kind = "not_found"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindStore               Kind = "store"
	KindNotification        Kind = "notification"
)

// Error is returned by every Gateway operation.
//
// Applied is true when the store mutation succeeded before the failure,
// i.e. the booking was created or cancelled but the endpoint was not told.
// BookingID names the affected record in that case.
type Error struct {
	Op        string
	Kind      Kind
	Applied   bool
	BookingID string
	Err       error
}

func (e *Error) Error() string {
	if e.Applied {
		return fmt.Sprintf("%s: %s (change applied): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a gateway error, or "" for other errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MutationApplied reports whether the store change behind err was committed.
func MutationApplied(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Applied
}

func newError(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func appliedError(op, bookingID string, err error) *Error {
	return &Error{Op: op, Kind: KindNotification, Applied: true, BookingID: bookingID, Err: err}
}
