package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrSchemaDrift     = errors.New("schema drift")
	ErrProvisioning    = errors.New("provisioning failed")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, field string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict on %s", resource, field),
		Field:   field,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated returns an AppError for requests with no (or an invalid)
// identity. HTTP handlers map this to 401 Unauthorized.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// SchemaDrift marks an error caused by the store's schema lagging behind the
// code (missing column or table). Callers on degrade-open paths check for it
// with errors.Is and treat it as a permissive default instead of failing.
func SchemaDrift(detail string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrSchemaDrift, cause),
		Message: detail,
	}
}

// Provisioning marks a failed default-calendar provisioning attempt: the
// create failed and the retry lookup found nothing.
func Provisioning(message string, cause error) *AppError {
	err := error(ErrProvisioning)
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrProvisioning, cause)
	}
	return &AppError{
		Err:     err,
		Message: message,
	}
}
