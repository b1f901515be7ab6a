// Package apperr defines the outcome taxonomy shared by the command and query
// services and translated to HTTP statuses by the handlers.
package apperr

import (
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies a failure.
type Kind int

const (
	// KindUnknown is reported for errors that are not *Error.
	KindUnknown Kind = iota
	// KindValidation marks field-level violations.
	KindValidation
	// KindConflict marks a duplicate email.
	KindConflict
	// KindNotFound marks an unknown or malformed id.
	KindNotFound
	// KindForbidden marks a restricted id.
	KindForbidden
	// KindStorage marks an I/O failure in the store.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Violation is a single field-level validation failure.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Error is a typed failure. Message is safe to show to callers.
type Error struct {
	Kind       Kind
	Message    string
	Violations []Violation
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Validation builds a validation failure from violations.
func Validation(violations []Violation) error {
	messages := make([]string, 0, len(violations))
	for _, v := range violations {
		messages = append(messages, v.Message)
	}
	return &Error{
		Kind:       KindValidation,
		Message:    "Validation failed: " + strings.Join(messages, "; "),
		Violations: violations,
	}
}

// Conflict builds a duplicate-email failure.
func Conflict(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

// NotFound builds an unknown-id failure.
func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Forbidden builds a restricted-id failure.
func Forbidden(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Storage wraps an I/O failure. The cause is kept for logging only.
func Storage(cause error) error {
	return &Error{
		Kind:    KindStorage,
		Message: "An unexpected error occurred while processing the request",
		cause:   errors.WithStack(cause),
	}
}

// KindOf returns the kind of err, KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// As extracts the *Error from err.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
