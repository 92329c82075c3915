// Package domain defines the control record model, its repository port, and
// the error kinds shared by the store, the service, and the API.
package domain

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ErrMissingControl matches both NoFallbackControlError and
// NoControlPolicyError under errors.Is.
var ErrMissingControl = errors.New("missing control policy")

// NoFallbackControlError is returned when the lookup result has no row for the
// fallback sentinel. It signals missing operator data, not a transient fault.
type NoFallbackControlError struct {
	Key string
}

func (e *NoFallbackControlError) Error() string { return "no fallback control" }

// Is reports whether target is ErrMissingControl.
func (e *NoFallbackControlError) Is(target error) bool { return target == ErrMissingControl }

// NoControlPolicyError is returned when neither a user row nor a fallback row
// was found.
type NoControlPolicyError struct {
	Key string
}

func (e *NoControlPolicyError) Error() string {
	return fmt.Sprintf("no control policy for %q", e.Key)
}

// Is reports whether target is ErrMissingControl.
func (e *NoControlPolicyError) Is(target error) bool { return target == ErrMissingControl }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrNoFallbackControl creates a NoFallbackControlError for the looked-up key.
func ErrNoFallbackControl(key string) *NoFallbackControlError {
	return &NoFallbackControlError{Key: key}
}

// ErrNoControlPolicy creates a NoControlPolicyError for the looked-up key.
func ErrNoControlPolicy(key string) *NoControlPolicyError {
	return &NoControlPolicyError{Key: key}
}
