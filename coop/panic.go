package coop

import (
	"fmt"
	"runtime/debug"
)

// PanicError captures a panic raised inside a task, together with the stack
// at the point of the panic. With the default WithPanicAsError(true) it is
// returned from Join as a regular error; otherwise Join re-raises it after
// the sibling tasks have been cancelled and reaped.
type PanicError struct {
	// Value is the value passed to panic.
	Value any
	// Stack is the stack trace captured when the panic was recovered.
	Stack []byte
	// Task is the scope-qualified name of the task that panicked.
	Task string
}

func newPanicError(v any, task string) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack(), Task: task}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("coop: task %s panicked: %v", e.Task, e.Value)
}

// Unwrap exposes a wrapped error when the panic value was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
