package common

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match them with errors.Is; concrete errors
// (APIError, ValidationError) unwrap to one of these.
var (
	// Client-side validation failed; no request was issued.
	ErrValidation = errors.New("validation error")

	// The server refused a mutation because the caller does not own the resource.
	ErrAuthorization = errors.New("not allowed")

	// The operation requires a session and there is none (or it was rejected).
	ErrUnauthenticated = errors.New("not authenticated")

	// Request failed for any other reason (transport, 5xx).
	ErrNetwork = errors.New("network or server error")

	// The requested post/comment no longer exists.
	ErrNotFound = errors.New("not found")

	// A destructive action was not confirmed by the user.
	ErrNotConfirmed = errors.New("not confirmed")

	// The same action is already in flight.
	ErrPending = errors.New("action already in progress")

	// A newer request replaced this one; its result was discarded.
	ErrSuperseded = errors.New("superseded by a newer request")

	// The requested change equals the current value.
	ErrNoChange = errors.New("nothing to change")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid is a shorthand for &ValidationError{field, message}.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Kind is the user-facing classification of an error.
type Kind string

const (
	KindNone            Kind = ""
	KindValidation      Kind = "validation"
	KindAuthorization   Kind = "authorization"
	KindUnauthenticated Kind = "unauthenticated"
	KindNotFound        Kind = "not_found"
	KindNetwork         Kind = "network"
	KindCancelled       Kind = "cancelled"
)

// KindOf classifies err for reporting. Unknown errors are treated as network
// failures since every remote call is the only other source of errors.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNoChange):
		return KindValidation
	case errors.Is(err, ErrAuthorization):
		return KindAuthorization
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrNotConfirmed), errors.Is(err, ErrSuperseded), errors.Is(err, ErrPending):
		return KindCancelled
	default:
		return KindNetwork
	}
}
