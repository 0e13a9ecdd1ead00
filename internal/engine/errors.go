package engine

import "errors"

// Failure taxonomy of the study engine. NotFound and EmptySet abort
// session creation; OutOfRange and InvalidTransition indicate a caller
// bug; PersistenceUnavailable marks a retryable storage failure that
// must never block the in-memory session.
var (
	ErrNotFound               = errors.New("set or card not found")
	ErrEmptySet               = errors.New("set has no cards")
	ErrOutOfRange             = errors.New("position out of range")
	ErrInvalidTransition      = errors.New("invalid session transition")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)
