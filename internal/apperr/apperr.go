// Package apperr defines the error taxonomy shared across layers.
// Callers match with errors.Is; lower layers wrap with fmt.Errorf("...: %w").
package apperr

import "errors"

var (
	// ErrForbidden means the authorization engine denied the operation.
	// Distinct from ErrNotFound so callers can decide whether revealing
	// entity existence is acceptable.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means the entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a uniqueness or state-transition conflict, e.g. a
	// duplicate relationship tuple or a lost job-claim race.
	ErrConflict = errors.New("conflict")

	// ErrUpstream means an external provider fetch failed and may be retried.
	// A cache miss is not an error.
	ErrUpstream = errors.New("upstream failure")

	// ErrJobTerminal means a job exhausted its retry budget.
	ErrJobTerminal = errors.New("job failed terminally")
)
