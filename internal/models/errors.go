package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is the root of every lookup miss; resource-specific errors wrap it.
var ErrNotFound = errors.New("not found")

// Sentinel errors for resource lookups.
var (
	ErrEntityNotFound         = fmt.Errorf("entity %w", ErrNotFound)
	ErrPlanNotFound           = fmt.Errorf("plan %w", ErrNotFound)
	ErrAuditNotFound          = fmt.Errorf("audit %w", ErrNotFound)
	ErrFindingNotFound        = fmt.Errorf("finding %w", ErrNotFound)
	ErrRecommendationNotFound = fmt.Errorf("recommendation %w", ErrNotFound)
	ErrTeamMemberNotFound     = fmt.Errorf("team member %w", ErrNotFound)
	ErrUserNotFound           = fmt.Errorf("user %w", ErrNotFound)
	ErrRoleNotFound           = fmt.Errorf("role %w", ErrNotFound)
)

// ErrDuplicateKey indicates a unique constraint violation (maps to HTTP 409 Conflict).
var ErrDuplicateKey = errors.New("duplicate key")

// ErrHasDependents indicates a delete was blocked by rows that still reference the target.
var ErrHasDependents = errors.New("record has dependent records")

// ErrInvalidReference indicates a foreign key that points at no existing row.
var ErrInvalidReference = errors.New("invalid reference")

// ReferenceError names the field whose foreign key did not resolve (HTTP 400).
type ReferenceError struct {
	Field string
}

// Error implements the error interface.
func (e *ReferenceError) Error() string {
	return e.Field + " does not reference an existing record"
}

// Is makes errors.Is(err, ErrInvalidReference) match.
func (e *ReferenceError) Is(target error) bool { return target == ErrInvalidReference }

// Conflict errors reported to clients as 400, matching the original assignment API.
var (
	ErrAlreadyAssigned     = errors.New("User is already assigned to this audit")
	ErrRoleAlreadyAssigned = errors.New("User already has this role")
)

// Entity hierarchy errors.
var (
	ErrSelfParent  = errors.New("An entity cannot be its own parent")
	ErrParentCycle = errors.New("parent_id would create a cycle")
)

// Authentication errors.
var (
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrInvalidToken       = errors.New("Invalid or expired token")
	ErrTooManyAttempts    = errors.New("Too many failed sign-in attempts, try again later")
)

// LockoutError reports a sign-in refused by the brute-force guard. It matches
// ErrTooManyAttempts.
type LockoutError struct {
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *LockoutError) Error() string { return ErrTooManyAttempts.Error() }

// Is makes errors.Is(err, ErrTooManyAttempts) match.
func (e *LockoutError) Is(target error) bool { return target == ErrTooManyAttempts }

// ValidationError carries a client-facing message for a rejected request (HTTP 400).
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string { return e.Message }

// NewValidationError returns a *ValidationError with the given message.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return NewValidationError(fmt.Sprintf("%s exceeds maximum length of %d", field, maxLen))
}
