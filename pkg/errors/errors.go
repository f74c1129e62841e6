// Package errors defines the error taxonomy shared by every layer of the
// storefront service. Handlers never pick status codes themselves: they hand
// the error to httputil.WriteError, which asks this package for the kind.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP boundary.
type Kind string

const (
	KindValidation   Kind = "VALIDATION_ERROR"
	KindInvalidInput Kind = "INVALID_INPUT"
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindRateLimited  Kind = "RATE_LIMITED"
	KindInternal     Kind = "INTERNAL_ERROR"
)

// Sentinels for errors.Is matching below the service layer.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("conflict")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrRateLimited   = errors.New("rate limited")
	ErrPersistence   = errors.New("persistence failure")
)

// AppError carries a kind, a client-safe message and the underlying cause.
type AppError struct {
	Kind    Kind
	Message string
	Field   string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status for the error kind.
func (e *AppError) Status() int {
	return statusForKind(e.Kind)
}

// MissingField reports a required field that was absent or empty. The message
// uses the capitalised field label, e.g. "Name is required".
func MissingField(label string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: label + " is required",
		Field:   label,
		Err:     ErrInvalidInput,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{Kind: KindInvalidInput, Message: message, Err: ErrInvalidInput}
}

// NotFound creates a 404 error with the message "<resource> not found".
func NotFound(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: resource + " not found", Err: ErrNotFound}
}

// AlreadyExists creates a 409 error for a uniqueness violation.
func AlreadyExists(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message, Err: ErrAlreadyExists}
}

// Conflict creates a 409 error for a state transition that is not allowed.
func Conflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message, Err: ErrConflict}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message, Err: ErrUnauthorized}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message, Err: ErrForbidden}
}

// RateLimited creates a 429 error.
func RateLimited(message string) *AppError {
	return &AppError{Kind: KindRateLimited, Message: message, Err: ErrRateLimited}
}

// Internal wraps an unexpected failure. The cause is logged, never returned to
// the client.
func Internal(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// Persistence marks a store-level failure so callers can tell it apart from
// a plain bug with errors.Is(err, ErrPersistence).
func Persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

// KindOf classifies any error. Errors that are neither an *AppError nor wrap a
// known sentinel are internal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	default:
		return KindInternal
	}
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	return statusForKind(KindOf(err))
}

func statusForKind(k Kind) int {
	switch k {
	case KindValidation, KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
