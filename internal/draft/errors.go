package draft

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before it reaches the draft.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned by mutators addressing an unknown entity.
	ErrNotFound = errors.New("not found")
	// ErrBusy is returned when a commit is already running.
	ErrBusy = errors.New("commit already in progress")
	// ErrCommitInFlight is returned by mutators while the draft is being committed.
	ErrCommitInFlight = errors.New("draft is locked while a commit is in flight")
)

func invalid(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrValidation, field, fmt.Sprintf(format, args...))
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// CommitError reports the step and entity a commit stopped at. Steps before it
// were applied remotely and are not rolled back.
type CommitError struct {
	Step   string
	Entity string
	Err    error
}

func (e *CommitError) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("commit %s (%s): %v", e.Step, e.Entity, e.Err)
	}
	return fmt.Sprintf("commit %s: %v", e.Step, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
