// internal/pkg/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error into the closed set the HTTP layer
// knows how to render.
type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindNotFound          Kind = "not_found"
	KindInvalidTransition Kind = "invalid_transition"
	KindInvalidSignature  Kind = "invalid_signature"
	KindConflict          Kind = "conflict"
	KindTransientStore    Kind = "transient_store_error"
)

// Error is the application error type returned by domain operations.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error kind to a response status code.
// TransientStore maps to 503 so upstream callers (the payment gateway in
// particular) treat the failure as retryable.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindInvalidTransition, KindInvalidSignature:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTransientStore:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Validation creates a user-correctable input error.
func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// NotFound creates a lookup-miss error.
func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// InvalidTransition creates a state-machine rule violation error.
func InvalidTransition(from, to string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Code:    "invalid_transition",
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// InvalidSignature creates a webhook authentication error.
func InvalidSignature(message string) *Error {
	return &Error{Kind: KindInvalidSignature, Code: "invalid_signature", Message: message}
}

// Conflict creates a uniqueness-collision error.
func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// TransientStore wraps a retryable infrastructure failure.
func TransientStore(message string, cause error) *Error {
	return &Error{Kind: KindTransientStore, Code: "store_unavailable", Message: message, Cause: cause}
}

// KindOf returns the kind of err if it is an application error.
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

// IsKind reports whether err is an application error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
