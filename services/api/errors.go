package main

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind tags an AppError with its business meaning.
type ErrorKind string

const (
	ErrKindValidation   ErrorKind = "validation"
	ErrKindNotFound     ErrorKind = "not_found"
	ErrKindUnauthorized ErrorKind = "unauthorized"
	ErrKindConflict     ErrorKind = "conflict"
)

// AppError is the single error type raised by the use-case layer. Handlers
// translate it to an HTTP status exactly once at the boundary; anything that
// is not an AppError becomes a generic 500.
type AppError struct {
	Kind    ErrorKind
	Message string
	Status  int
}

func (e *AppError) Error() string {
	return e.Message
}

// NewValidationError builds a 400 error for invalid input, illegal state
// transitions, insufficient stock and other business-rule violations.
func NewValidationError(format string, args ...any) *AppError {
	return &AppError{
		Kind:    ErrKindValidation,
		Message: fmt.Sprintf(format, args...),
		Status:  http.StatusBadRequest,
	}
}

// NewNotFoundError builds a 404 error for a missing order, product or other
// resource.
func NewNotFoundError(format string, args ...any) *AppError {
	return &AppError{
		Kind:    ErrKindNotFound,
		Message: fmt.Sprintf(format, args...),
		Status:  http.StatusNotFound,
	}
}

// NewUnauthorizedError builds a 401 error for missing/invalid auth or an
// ownership mismatch.
func NewUnauthorizedError(format string, args ...any) *AppError {
	return &AppError{
		Kind:    ErrKindUnauthorized,
		Message: fmt.Sprintf(format, args...),
		Status:  http.StatusUnauthorized,
	}
}

// NewConflictError builds a 409 error for a resource that already exists,
// such as a duplicate email, category name or repeated review.
func NewConflictError(format string, args ...any) *AppError {
	return &AppError{
		Kind:    ErrKindConflict,
		Message: fmt.Sprintf(format, args...),
		Status:  http.StatusConflict,
	}
}

// AsAppError unwraps err to an AppError if one is in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
