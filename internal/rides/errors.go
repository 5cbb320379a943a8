package rides

import "errors"

var (
	// ErrValidation covers missing or malformed required input.
	ErrValidation = errors.New("missing required fields")
	// ErrUnauthorized means the acting user may not perform this transition.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidTransition means the lifecycle graph forbids the move.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotFound means the ride id does not resolve.
	ErrNotFound = errors.New("ride not found")
	// ErrConflict means a concurrent transition won the race; callers may retry.
	ErrConflict = errors.New("ride status changed concurrently")
)
