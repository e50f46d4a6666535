package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAccessDenied indicates the principal lacks permission for the action or target.
	ErrAccessDenied = errors.New("access denied")
	// ErrNotFound indicates the target record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a uniqueness invariant would be violated.
	ErrConflict = errors.New("uniqueness conflict")
	// ErrValidation indicates a malformed payload.
	ErrValidation = errors.New("validation failed")
	// ErrStorage indicates the underlying store failed.
	ErrStorage = errors.New("storage failure")
)

// ConflictError names the field whose uniqueness invariant was violated.
type ConflictError struct {
	Kind  Kind
	Field Field
}

func (e *ConflictError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("%s already exists", e.Field)
	}
	return fmt.Sprintf("%s with this %s already exists", e.Kind, e.Field)
}

// Is lets callers match with errors.Is(err, ErrConflict).
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ValidationError describes a single malformed field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StorageError wraps a store failure with the operation that triggered it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// IsClassified reports whether err already belongs to the record error taxonomy.
func IsClassified(err error) bool {
	return errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrStorage)
}
