package coop

// Waker is a non-owning handle that marks one task ready. It is a small
// value (executor pointer, slot index, epoch tag) and is safe to copy and
// to retain past the task's lifetime: the epoch tag stops a late Wake from
// touching a recycled slot.
type Waker struct {
	ex    *Executor
	slot  int32
	epoch uint32
}

// Wake marks the task ready and enqueues it on the executor's ready queue.
// Wake is idempotent: calling it several times before the task is next
// polled enqueues the task once. Waking a task that has already reached a
// terminal state, or whose slot has been recycled, is a no-op.
func (w Waker) Wake() {
	if w.ex == nil {
		return
	}
	w.ex.wake(w.slot, w.epoch)
}

// Live reports whether the waker still refers to a non-terminal task.
// Event sources use it to skip stale waiter entries.
func (w Waker) Live() bool {
	if w.ex == nil {
		return false
	}
	t := &w.ex.slots[w.slot]
	return t.epoch == w.epoch && !t.state.Terminal()
}

func (e *Executor) wake(slot int32, epoch uint32) {
	t := &e.slots[slot]
	if t.epoch != epoch || t.state.Terminal() {
		return
	}
	if t.flags&flagQueued != 0 {
		return
	}
	t.flags |= flagQueued
	e.ready.push(queued{slot: slot, epoch: epoch})
}
