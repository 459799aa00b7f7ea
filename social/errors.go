package social

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/lucidfort/snapgram/docstore"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// KindUnknown means the store call did not succeed for an unclassified reason.
	KindUnknown Kind = iota
	KindNotFound
	KindPermissionDenied
	KindNetworkFailure
	KindValidationFailure
	// KindConflict means a compare-and-set lost against a concurrent writer.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindNetworkFailure:
		return "network_failure"
	case KindValidationFailure:
		return "validation_failure"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// ErrSelfNotification is returned when a notification would target its own actor.
var ErrSelfNotification = errors.New("social: actor and target are the same user")

// Error is returned by every failed operation.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the Kind of err, KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsConflict reports whether err is a lost compare-and-set.
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

func newError(op string, err error) *Error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Op: op, Kind: existing.Kind, Err: err}
	}
	return &Error{Op: op, Kind: classify(err), Err: err}
}

func classify(err error) Kind {
	var verrs validation.Errors
	var verr validation.Error
	switch {
	case errors.As(err, &verrs), errors.As(err, &verr):
		return KindValidationFailure
	case errors.Is(err, ErrSelfNotification):
		return KindValidationFailure
	case errors.Is(err, docstore.ErrNotFound):
		return KindNotFound
	case errors.Is(err, docstore.ErrConflict):
		return KindConflict
	case errors.Is(err, docstore.ErrConstraint):
		return KindValidationFailure
	case errors.Is(err, docstore.ErrPermission):
		return KindPermissionDenied
	case errors.Is(err, docstore.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindNetworkFailure
	}
	return KindUnknown
}
