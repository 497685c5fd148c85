package coop

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCapacityExceeded is returned by Spawn when the executor's task
	// arena has no free slot. The arena size is fixed at construction
	// (WithMaxTasks) and never grows.
	ErrCapacityExceeded = errors.New("coop: task capacity exceeded")

	// ErrClosed is returned by channel operations after the channel has
	// been closed and, for receives, drained.
	ErrClosed = errors.New("coop: channel closed")

	// ErrCancelled is the error recorded for a task that was torn down by
	// an ancestor scope before completing. From the cancelling scope's
	// point of view this is the expected outcome, not a failure.
	ErrCancelled = errors.New("coop: task cancelled")
)

// DeadlockError is returned by Join when no task is ready, no reactor
// registration is outstanding, and suspended tasks remain. The remaining
// tasks can never resume; the executor fails instead of hanging.
type DeadlockError struct {
	// Tasks lists the scope-qualified names of the tasks that were still
	// suspended when quiescence was detected.
	Tasks []string
}

func (e *DeadlockError) Error() string {
	return fmt.Sprintf("coop: deadlock: no ready tasks, no pending reactor events; suspended: %s",
		strings.Join(e.Tasks, ", "))
}
