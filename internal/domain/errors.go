package domain

import (
	"errors"
)

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
)

// ConflictError represents a sibling-name conflict with details about the
// existing node, so handlers can return the existing resource with a 409.
type ConflictError struct {
	Message    string // Human-readable error message
	ResourceID string // ID of the existing/conflicting node
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
