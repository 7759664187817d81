package services

import (
	"errors"
	"fmt"
)

// ErrNotFoundOrForbidden covers both a missing record and a record the caller
// may not act on, so callers cannot probe for the existence of other orders.
var ErrNotFoundOrForbidden = errors.New("not found or not allowed")

// ValidationError reports malformed input or a request the current state rejects
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError carries a caller-facing message and matches ErrNotFoundOrForbidden
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFoundOrForbidden
}

// ConflictError reports a violated uniqueness rule
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func notFound(message string) error {
	return &NotFoundError{Message: message}
}

func conflict(message string) error {
	return &ConflictError{Message: message}
}
