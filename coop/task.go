package coop

// TaskState is the lifecycle state of a task.
type TaskState uint8

const (
	// Created means the task is registered but has not been polled yet.
	Created TaskState = iota
	// Polling means the executor is currently running the task's Op.
	Polling
	// Suspended means the task yielded and waits for a wake-up.
	Suspended
	// Completed means the task finished, with a value or an error.
	Completed
	// Cancelled means the task was torn down by an ancestor scope.
	Cancelled
	// Panicked means the task's Op raised a panic.
	Panicked
)

// Terminal reports whether s is one of the final states.
func (s TaskState) Terminal() bool { return s >= Completed }

func (s TaskState) String() string {
	switch s {
	case Created:
		return "created"
	case Polling:
		return "polling"
	case Suspended:
		return "suspended"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Panicked:
		return "panicked"
	default:
		return "unknown"
	}
}

// An Op is one step of a task's state machine. The executor calls it every
// time the task is polled; the returned Poll decides what happens next.
//
// The argument t must not escape the call: the executor recycles task slots
// after a task is reaped. Capture a [Waker] or a [Handle] instead.
type Op func(t *Task) Poll

const (
	doComplete = iota
	doSuspend
	doSwitch
)

// Poll is the return value of an [Op]. Construct it with one of the Task
// methods: Complete, Fail, Suspend, Await, Yield or Switch.
type Poll struct {
	action int
	next   Op
	value  any
	err    error
}

const (
	flagQueued = 1 << iota
	flagCancelPending
)

// Task is one slot of the executor's arena. Ops receive the running task
// and use it to produce Poll values, derive wakers, register cleanups and
// open nested scopes.
type Task struct {
	ex    *Executor
	slot  int32
	epoch uint32
	state TaskState
	flags uint8

	op    Op
	scope *Scope
	child int32 // index into scope.children
	name  string

	defers []func()
	owned  []*Scope
}

// Name returns the task's scope-qualified name.
func (t *Task) Name() string { return t.name }

// Executor returns the executor that owns t.
func (t *Task) Executor() *Executor { return t.ex }

// Waker returns a waker bound to t's slot. The waker stays safe to invoke
// after t terminates; it simply stops having an effect.
func (t *Task) Waker() Waker {
	return Waker{ex: t.ex, slot: t.slot, epoch: t.epoch}
}

// Cancelled reports whether an ancestor scope requested cancellation. An Op
// that sees true should release what it holds and return Complete or Fail;
// if it suspends again the executor forces the task into the Cancelled
// state.
func (t *Task) Cancelled() bool { return t.flags&flagCancelPending != 0 }

// Defer registers f to run when t reaches a terminal state. Deferred
// functions run in reverse registration order, before the slot is recycled
// and before the owning scope can observe the task as terminal.
func (t *Task) Defer(f func()) {
	t.defers = append(t.defers, f)
}

// Complete returns a Poll that ends the task successfully with result v
// (which may be nil).
func (t *Task) Complete(v any) Poll {
	return Poll{action: doComplete, value: v}
}

// Fail returns a Poll that ends the task with err. Under the FailFast
// policy a failing task cancels its siblings.
func (t *Task) Fail(err error) Poll {
	return Poll{action: doComplete, err: err}
}

// Suspend returns a Poll that parks the task until some waker derived from
// it fires. Channel operations park the task themselves; after a parked
// Send or Receive, return Suspend.
func (t *Task) Suspend() Poll {
	return Poll{action: doSuspend}
}

// Await watches the given events and parks the task until one of them
// notifies.
func (t *Task) Await(events ...Event) Poll {
	t.Watch(events...)
	return Poll{action: doSuspend}
}

// Watch registers the task's waker with the given events without
// suspending. Combine with Yield to switch the Op that runs on resume.
func (t *Task) Watch(events ...Event) {
	w := t.Waker()
	for _, ev := range events {
		ev.addWaiter(w)
	}
}

// Yield parks the task; when it resumes, next runs instead of the current
// Op. Yield with no registered wake source deadlocks, which the executor
// reports rather than hangs on.
func (t *Task) Yield(next Op) Poll {
	if next == nil {
		panic("coop: Yield(nil)")
	}
	return Poll{action: doSuspend, next: next}
}

// Switch immediately transitions the task to next without suspending.
func (t *Task) Switch(next Op) Poll {
	if next == nil {
		panic("coop: Switch(nil)")
	}
	return Poll{action: doSwitch, next: next}
}

// Handle identifies a spawned task within its scope. It stays valid after
// the task's slot has been recycled: terminal state and result are kept in
// the scope's child records.
type Handle struct {
	s *Scope
	i int32
}

// Name returns the task's scope-qualified name.
func (h Handle) Name() string { return h.s.children[h.i].name }

// State returns the task's current state.
func (h Handle) State() TaskState { return h.s.children[h.i].state }

// Value returns the result recorded by Complete. It is meaningful only
// once State is Completed.
func (h Handle) Value() any { return h.s.children[h.i].value }

// Err returns the task's terminal error: the Fail error, ErrCancelled, or
// a *PanicError.
func (h Handle) Err() error { return h.s.children[h.i].err }

// Done reports whether the task reached a terminal state.
func (h Handle) Done() bool { return h.s.children[h.i].state.Terminal() }
