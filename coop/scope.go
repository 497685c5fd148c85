package coop

import (
	"errors"
	"time"
)

// Policy controls how a scope reacts to the terminal states of its
// children.
type Policy int

const (
	// FailFast cancels the remaining siblings as soon as one task
	// completes with a non-nil error. Join returns that first error.
	FailFast Policy = iota
	// Supervisor lets siblings keep running when a task fails. Join
	// returns every recorded error joined together.
	Supervisor
	// FirstWins cancels the remaining siblings as soon as the first task
	// completes. Join returns the winner's error, usually nil.
	FirstWins
)

type childRecord struct {
	name    string
	slot    int32
	epoch   uint32
	state   TaskState
	value   any
	err     error
	started time.Time
}

// TaskResult is a snapshot of one child task's outcome.
type TaskResult struct {
	Name  string
	State TaskState
	Value any
	Err   error
}

// Scope is one structured-concurrency boundary. It owns the tasks spawned
// into it and any nested scopes opened by those tasks, and it does not
// settle until every descendant is in a terminal state.
type Scope struct {
	ex     *Executor
	name   string
	policy Policy
	parent *Scope

	children  []childRecord
	subscopes []*Scope
	live      int

	done      Signal
	cancelled bool
	firstErr  error
	panicErr  *PanicError
	deadlock  *DeadlockError
	winner    int32
}

// Scope creates a root scope on the executor.
func (e *Executor) Scope(name string, policy Policy) *Scope {
	return newScope(e, nil, name, policy)
}

// Scope opens a nested scope owned by the running task. The nested scope's
// children are descendants of t: when t terminates before the nested scope
// settles, the nested scope is cancelled. Wait for it with
// Await(sub.Done()) and inspect sub.Err afterwards.
func (t *Task) Scope(name string, policy Policy) *Scope {
	s := newScope(t.ex, t.scope, t.name+"/"+name, policy)
	t.scope.subscopes = append(t.scope.subscopes, s)
	t.owned = append(t.owned, s)
	return s
}

func newScope(e *Executor, parent *Scope, name string, policy Policy) *Scope {
	s := &Scope{ex: e, name: name, policy: policy, parent: parent, winner: -1}
	if e.obs != nil {
		e.obs.ScopeCreated(name)
	}
	return s
}

// Name returns the scope's qualified name.
func (s *Scope) Name() string { return s.name }

// Spawn registers a child task. Among ready tasks, poll order is
// registration order. Spawn fails with ErrCapacityExceeded when the
// executor's arena is full. Spawning into a cancelled scope is allowed;
// the task is created cancel-pending and gets a single acknowledgment
// poll.
func (s *Scope) Spawn(name string, op Op) (Handle, error) {
	return s.ex.spawn(s, name, op)
}

// Join runs the executor until every task in s's subtree reaches a
// terminal state, then returns the aggregated error according to the
// policy. Join never returns while a child is live: abnormal exits
// (errors, panics, deadlock) cancel the remaining children and wait for
// each to acknowledge. Join must not be called from inside an Op; ops
// wait on nested scopes with Await(sub.Done()).
func (s *Scope) Join() error {
	e := s.ex
	if e.running {
		panic("coop: Join called from inside the run loop")
	}
	e.running = true
	start := time.Now()
	e.loop(s)
	e.running = false
	if e.obs != nil {
		e.obs.ScopeJoined(s.name, time.Since(start))
	}
	if s.panicErr != nil && !e.opts.PanicAsError {
		panic(s.panicErr)
	}
	return s.Err()
}

// Cancel requests cancellation of every live task in s's subtree. Each
// task is woken once and observes cancellation at its next poll;
// cancellation completes (children acknowledge and are reaped) as the run
// loop drains. Cancel is idempotent; the first cause wins.
func (s *Scope) Cancel(cause error) {
	if s.cancelled {
		return
	}
	s.cancelled = true
	if s.firstErr == nil && cause != nil {
		s.firstErr = cause
	}
	if s.ex.obs != nil {
		s.ex.obs.ScopeCancelled(s.name, cause)
	}
	for i := range s.children {
		rec := &s.children[i]
		if rec.state.Terminal() {
			continue
		}
		t := &s.ex.slots[rec.slot]
		if t.epoch != rec.epoch {
			continue
		}
		t.flags |= flagCancelPending
		s.ex.wake(rec.slot, rec.epoch)
	}
	for _, sub := range s.subscopes {
		sub.Cancel(cause)
	}
}

// Done returns an event that notifies when the scope settles. Awaiting an
// already-settled scope wakes the task immediately.
func (s *Scope) Done() Event { return doneEvent{s} }

type doneEvent struct{ s *Scope }

func (d doneEvent) addWaiter(w Waker) {
	if d.s.settled() {
		w.Wake()
		return
	}
	d.s.done.addWaiter(w)
}

func (d doneEvent) removeWaiter(w Waker) { d.s.done.removeWaiter(w) }

// Settled reports whether every task in the subtree is terminal.
func (s *Scope) Settled() bool { return s.settled() }

func (s *Scope) settled() bool {
	if s.live > 0 {
		return false
	}
	for _, sub := range s.subscopes {
		if !sub.settled() {
			return false
		}
	}
	return true
}

// Results returns a snapshot of the direct children's outcomes in
// registration order.
func (s *Scope) Results() []TaskResult {
	out := make([]TaskResult, len(s.children))
	for i, rec := range s.children {
		out[i] = TaskResult{Name: rec.name, State: rec.state, Value: rec.value, Err: rec.err}
	}
	return out
}

// Err returns the scope's aggregated error without running the loop:
// the deadlock error if quiescence was detected, the captured panic, or
// the policy aggregation of the children's errors.
func (s *Scope) Err() error {
	if s.deadlock != nil {
		return s.deadlock
	}
	if s.panicErr != nil {
		return s.panicErr
	}
	switch s.policy {
	case Supervisor:
		var errs []error
		for _, rec := range s.children {
			if rec.err != nil && !errors.Is(rec.err, ErrCancelled) {
				errs = append(errs, rec.err)
			}
		}
		if len(errs) > 0 {
			return errors.Join(errs...)
		}
		return s.firstErr
	case FirstWins:
		if s.winner >= 0 {
			return s.children[s.winner].err
		}
		return s.firstErr
	default:
		return s.firstErr
	}
}

func (s *Scope) fail(err error) {
	if s.firstErr == nil {
		s.firstErr = err
	}
	if s.policy == FailFast {
		s.Cancel(s.firstErr)
	}
}

func (s *Scope) onChildDone(child int32) {
	rec := &s.children[child]
	s.live--

	if s.ex.obs != nil {
		var dur time.Duration
		if !rec.started.IsZero() {
			dur = time.Since(rec.started)
		}
		s.ex.obs.TaskFinished(rec.name, dur, rec.state, rec.err)
	}

	switch rec.state {
	case Panicked:
		if pe, ok := rec.err.(*PanicError); ok && s.panicErr == nil {
			s.panicErr = pe
		}
		s.Cancel(rec.err)
	case Completed:
		if rec.err != nil {
			s.fail(rec.err)
		} else if s.policy == FirstWins && s.winner < 0 {
			s.winner = child
			s.Cancel(nil)
		}
	}

	if s.settled() {
		s.done.Notify()
	}
}

func (s *Scope) collectSuspended(out *[]string) {
	for _, rec := range s.children {
		if !rec.state.Terminal() {
			*out = append(*out, rec.name)
		}
	}
	for _, sub := range s.subscopes {
		sub.collectSuspended(out)
	}
}
