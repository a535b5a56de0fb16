package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an error independently of the transport that reports it.
type Kind string

const (
	KindValidation             Kind = "validation"
	KindNotFound               Kind = "not_found"
	KindConflict               Kind = "conflict"
	KindForeignResource        Kind = "foreign_resource"
	KindPermission             Kind = "permission"
	KindInvalidStateTransition Kind = "invalid_state_transition"
	KindPersistence            Kind = "persistence"
)

// HTTPStatus maps the kind to the status code used by the HTTP layer.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindInvalidStateTransition:
		return http.StatusConflict
	case KindForeignResource:
		return http.StatusUnprocessableEntity
	case KindPermission:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// AppError is a custom error type that includes a kind, an HTTP status code and an optional wrapped error.
type AppError struct {
	Kind    Kind   // Error classification
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError of the given kind.
func New(kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    kind.HTTPStatus(),
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    kind.HTTPStatus(),
		Message: message,
		Err:     err,
	}
}

// Persistence wraps a storage failure unless err already carries a kind.
func Persistence(err error, message string) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	return Wrap(err, KindPersistence, message)
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
