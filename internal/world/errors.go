package world

import "errors"

// Sentinel errors shared across subsystems. Callers classify failures with
// errors.Is; wrapped context travels via fmt.Errorf("%w").
var (
	// ErrNotFound signals a missing entity.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized signals an actor operating on an entity it does not own.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidState signals an operation that is illegal in the entity's
	// current state, such as a disallowed contract transition.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidInput signals a malformed or out-of-range request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransient signals a retryable failure (busy store, flaky transport).
	ErrTransient = errors.New("transient failure")
)
