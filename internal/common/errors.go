// Package common defines shared constants and sentinel errors used across
// the Harmonia server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrConflictSkipped marks a merge item that lost the timestamp
	// comparison against the stored record. Informational, not fatal.
	ErrConflictSkipped = errors.New("conflict: older or equal timestamp")

	// Validation / item-specific errors.
	ErrValidation = errors.New("validation error")

	// ErrInvalidState marks an illegal session or profile transition,
	// e.g. generating a profile for a session that is not completed.
	ErrInvalidState = errors.New("invalid state transition")

	// Service-level errors (generic/internal flow control).
	ErrInternal = errors.New("internal error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
