package onboarding

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionExists indicates the actor already has an onboarding session.
	ErrSessionExists = errors.New("onboarding session already exists")

	// ErrAlreadyRegistered indicates the actor already resolves to an identity.
	ErrAlreadyRegistered = errors.New("actor is already registered")

	// ErrNoSession indicates the actor has no onboarding session.
	ErrNoSession = errors.New("no onboarding session")
)

// ValidationError indicates one field failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed [field=%s]: %s", e.Field, e.Reason)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError indicates a uniqueness conflict with an existing record.
type ConflictError struct {
	Field string // "username", "email"
	Value string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Field, e.Value)
}

// NewConflictError creates a new ConflictError.
func NewConflictError(field, value string) *ConflictError {
	return &ConflictError{Field: field, Value: value}
}

// PersistenceError indicates the account transaction failed and was rolled
// back.
type PersistenceError struct {
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error [operation=%s]: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// NewPersistenceError creates a new PersistenceError.
func NewPersistenceError(operation string, cause error) *PersistenceError {
	return &PersistenceError{Operation: operation, Cause: cause}
}

// ConfigError indicates required reference data is missing from the store.
type ConfigError struct {
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

// NewConfigError creates a new ConfigError.
func NewConfigError(reason string) *ConfigError {
	return &ConfigError{Reason: reason}
}
