package services

import "errors"

// Errors shared across services and the HTTP mapping. The generation
// guardrails live in the brackets package and the per-match permission and
// validation errors in the lifecycle package; these cover the service
// layer's own failure modes.
var (
	// Schedule generation
	ErrDivisionAlreadyScheduled = errors.New("division schedule has already been generated")
	ErrNoActiveTeams            = errors.New("division has no active teams to schedule")
	ErrUnsupportedFormat        = errors.New("division format is not supported for schedule generation")

	// Lifecycle conflicts
	ErrTransitionConflict = errors.New("match was modified concurrently, re-read its state and retry")

	// Rating service
	ErrDuprSubmissionFailed   = errors.New("rating service submission failed")
	ErrDuprSubmissionDisabled = errors.New("rating service submission is not configured")

	// Generic
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
)
