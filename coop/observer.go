package coop

import "time"

// Observer receives scope and task lifecycle callbacks. Implementations
// are called synchronously from the executor's thread and must not block.
// Names are scope-qualified (scope/task).
type Observer interface {
	ScopeCreated(name string)
	ScopeCancelled(name string, cause error)
	ScopeJoined(name string, wait time.Duration)
	TaskStarted(name string)
	TaskFinished(name string, dur time.Duration, state TaskState, err error)
}
