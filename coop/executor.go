package coop

import "time"

// Reactor is the contract external event providers (timers, sockets) must
// satisfy to plug into the executor. Sources arm wakers out-of-band through
// the reactor's own registration API; the executor only needs the two
// methods below.
type Reactor interface {
	// PollEvents blocks until at least one registered source is ready or
	// timeout elapses, fires the corresponding wakers, and returns how
	// many it fired. A negative timeout means block until the next event.
	// This is the only legitimate blocking point in the run loop; it is
	// called when the ready queue is empty but registrations remain.
	PollEvents(timeout time.Duration) int

	// Pending returns the number of outstanding registrations that can
	// still fire a waker. The executor uses it to tell "waiting for I/O"
	// apart from deadlock.
	Pending() int
}

type queued struct {
	slot  int32
	epoch uint32
}

// readyRing is a fixed-capacity FIFO of task slots. Coalesced wake-ups
// guarantee at most one entry per live task, but a task that finishes
// while queued leaves a stale entry behind until it is popped, and its
// slot can be respawned before then. A slot's previous stale entry always
// precedes the respawn entry in FIFO order, so each slot contributes at
// most one stale plus one live entry: twice the arena size bounds the
// ring.
type readyRing struct {
	buf  []queued
	head int
	n    int
}

func (r *readyRing) empty() bool { return r.n == 0 }

func (r *readyRing) push(q queued) {
	if r.n == len(r.buf) {
		panic("coop: internal error: ready ring overflow")
	}
	r.buf[(r.head+r.n)%len(r.buf)] = q
	r.n++
}

func (r *readyRing) pop() queued {
	q := r.buf[r.head]
	r.head = (r.head + 1) % len(r.buf)
	r.n--
	return q
}

// Executor owns the task arena and the single-threaded run loop. All
// methods must be called from one goroutine; "concurrency" is cooperative
// interleaving of suspended tasks, never parallelism.
type Executor struct {
	slots   []Task
	free    []int32
	ready   readyRing
	opts    Options
	obs     Observer
	reactor Reactor
	running bool
}

// New creates an executor. The task arena size is fixed by WithMaxTasks
// (default 64) and never grows; Spawn fails with ErrCapacityExceeded once
// every slot is live.
func New(optFns ...Option) *Executor {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	e := &Executor{
		slots:   make([]Task, opts.MaxTasks),
		free:    make([]int32, 0, opts.MaxTasks),
		ready:   readyRing{buf: make([]queued, 2*opts.MaxTasks)},
		opts:    opts,
		obs:     opts.Observer,
		reactor: opts.Reactor,
	}
	for i := opts.MaxTasks - 1; i >= 0; i-- {
		e.free = append(e.free, int32(i))
	}
	for i := range e.slots {
		e.slots[i].ex = e
		e.slots[i].slot = int32(i)
		e.slots[i].state = Completed // free slots read as terminal
	}
	return e
}

// Live returns the number of non-terminal tasks across all scopes.
func (e *Executor) Live() int {
	return len(e.slots) - len(e.free)
}

func (e *Executor) allocSlot() (int32, bool) {
	if len(e.free) == 0 {
		return 0, false
	}
	i := e.free[len(e.free)-1]
	e.free = e.free[:len(e.free)-1]
	return i, true
}

// spawn registers op as a child of s and enqueues it for its first poll.
// Registration order is poll order among ready siblings.
func (e *Executor) spawn(s *Scope, name string, op Op) (Handle, error) {
	i, ok := e.allocSlot()
	if !ok {
		return Handle{}, ErrCapacityExceeded
	}
	t := &e.slots[i]
	t.epoch++
	t.state = Created
	t.flags = 0
	t.op = op
	t.scope = s
	t.name = s.name + "/" + name
	t.child = int32(len(s.children))
	t.defers = nil
	t.owned = nil

	s.children = append(s.children, childRecord{
		name:  t.name,
		slot:  i,
		epoch: t.epoch,
		state: Created,
	})
	s.live++
	if s.cancelled {
		t.flags |= flagCancelPending
	}
	e.wake(i, t.epoch)
	return Handle{s: s, i: t.child}, nil
}

func (e *Executor) pollSlot(q queued) {
	t := &e.slots[q.slot]
	if t.epoch != q.epoch || t.state.Terminal() {
		return
	}
	t.flags &^= flagQueued

	if t.state == Created {
		t.scope.children[t.child].started = time.Now()
		if e.obs != nil {
			e.obs.TaskStarted(t.name)
		}
	}

	for {
		t.state = Polling
		res, pe := t.callOp()
		if pe != nil {
			e.finishTask(t, Panicked, nil, pe)
			return
		}
		if res.next != nil {
			t.op = res.next
		}
		switch res.action {
		case doSwitch:
			continue
		case doSuspend:
			if t.flags&flagCancelPending != 0 {
				// The task was given its acknowledgment poll and
				// suspended again; force the terminal state.
				e.finishTask(t, Cancelled, nil, ErrCancelled)
				return
			}
			t.state = Suspended
			return
		default:
			e.finishTask(t, Completed, res.value, res.err)
			return
		}
	}
}

func (t *Task) callOp() (res Poll, pe *PanicError) {
	defer func() {
		if r := recover(); r != nil {
			pe = newPanicError(r, t.name)
		}
	}()
	res = t.op(t)
	return
}

// finishTask moves a task to a terminal state, runs its deferred cleanups,
// records the result in the owning scope, recycles the slot, and lets the
// scope react (policy, completion signal). A panic inside a cleanup
// upgrades the terminal state to Panicked.
func (e *Executor) finishTask(t *Task, state TaskState, value any, err error) {
	t.state = state

	for i := len(t.defers) - 1; i >= 0; i-- {
		if pe := runDeferred(t.defers[i], t.name); pe != nil {
			state, value, err = Panicked, nil, pe
		}
	}
	t.defers = nil
	t.state = state

	for _, sub := range t.owned {
		if !sub.settled() {
			sub.Cancel(ErrCancelled)
		}
	}
	t.owned = nil

	s := t.scope
	rec := &s.children[t.child]
	rec.state = state
	rec.value = value
	rec.err = err

	// Invalidate outstanding wakers and reap the slot for reuse.
	t.epoch++
	t.op = nil
	t.scope = nil
	e.free = append(e.free, t.slot)

	s.onChildDone(t.child)
}

func runDeferred(f func(), task string) (pe *PanicError) {
	defer func() {
		if r := recover(); r != nil {
			pe = newPanicError(r, task)
		}
	}()
	f()
	return
}

// loop drives the scheduler until s's subtree is settled. It parks in the
// reactor when work is pending there, and converts quiescence into a
// DeadlockError followed by a cancellation sweep so that teardown still
// leaves no task running.
func (e *Executor) loop(s *Scope) {
	for !s.settled() {
		if e.ready.empty() {
			if e.reactor != nil && e.reactor.Pending() > 0 {
				e.reactor.PollEvents(-1)
				continue
			}
			if s.deadlock == nil {
				s.deadlock = e.newDeadlockError(s)
				s.Cancel(s.deadlock)
				continue
			}
			return
		}
		e.pollSlot(e.ready.pop())
	}
}

func (e *Executor) newDeadlockError(s *Scope) *DeadlockError {
	dl := &DeadlockError{}
	s.collectSuspended(&dl.Tasks)
	return dl
}
