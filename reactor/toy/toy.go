// Package toy provides a minimal timer-only reactor for demonstrating and
// testing the executor. It implements the coop.Reactor contract; real I/O
// backends plug into the same two methods.
//
// The reactor runs in one of two sleep modes: Actual blocks on the wall
// clock, Emulated advances a virtual clock straight to the next deadline,
// so timer-heavy tests run instantly with identical interleavings.
package toy

import (
	"container/heap"
	"time"

	"github.com/NetPo4ki/go-coop/coop"
)

// SleepMode selects how PollEvents waits for the next timer.
type SleepMode int

const (
	// Actual waits on the wall clock.
	Actual SleepMode = iota
	// Emulated jumps a virtual clock to the next deadline.
	Emulated
)

// MaxTimerDuration bounds a single timer.
const MaxTimerDuration = 24 * time.Hour

type entry struct {
	w        coop.Waker
	deadline time.Time
	seq      uint64
	fired    bool
	index    int // position in the heap, -1 once fired or cancelled
}

// Reactor is a timer-only event source. All methods must be called from
// the executor's thread.
type Reactor struct {
	mode    SleepMode
	now     time.Time
	seq     uint64
	entries []*entry
	pq      timerHeap
}

// New creates a reactor in the given sleep mode.
func New(mode SleepMode) *Reactor {
	return &Reactor{mode: mode, now: time.Now()}
}

// Now returns the reactor's notion of the current time: the wall clock in
// Actual mode, the virtual clock in Emulated mode.
func (r *Reactor) Now() time.Time {
	if r.mode == Actual {
		return time.Now()
	}
	return r.now
}

// ScheduleTimer arms a one-shot timer that invokes w once d elapses. This
// is the reactor's register_interest operation: the event source is the
// deadline, the waker fires exactly once.
func (r *Reactor) ScheduleTimer(w coop.Waker, d time.Duration) {
	if d > MaxTimerDuration {
		panic("toy: timer duration exceeds MaxTimerDuration")
	}
	if d < 0 {
		d = 0
	}
	r.seq++
	e := &entry{w: w, deadline: r.Now().Add(d), seq: r.seq}
	r.entries = append(r.entries, e)
	heap.Push(&r.pq, e)
}

// CancelTimer disarms any timer registered for w. Fired-but-unconsumed
// entries are dropped too.
func (r *Reactor) CancelTimer(w coop.Waker) {
	for i := 0; i < len(r.entries); i++ {
		e := r.entries[i]
		if e.w != w {
			continue
		}
		if e.index >= 0 {
			heap.Remove(&r.pq, e.index)
		}
		r.entries = append(r.entries[:i], r.entries[i+1:]...)
		i--
	}
}

// Sleep parks t for d. The first call arms a timer and returns false (the
// Op must return t.Suspend()); once the timer fires, the resumed call
// returns true. The timer is cancelled automatically when t terminates
// early.
func (r *Reactor) Sleep(t *coop.Task, d time.Duration) bool {
	w := t.Waker()
	for _, e := range r.entries {
		if e.w != w {
			continue
		}
		if !e.fired {
			return false
		}
		r.CancelTimer(w)
		return true
	}
	r.ScheduleTimer(w, d)
	t.Defer(func() { r.CancelTimer(w) })
	return false
}

// Pending returns the number of armed timers whose task can still resume.
func (r *Reactor) Pending() int {
	r.prune()
	n := 0
	for _, e := range r.entries {
		if !e.fired {
			n++
		}
	}
	return n
}

// PollEvents waits for the next timer deadline (or timeout, whichever is
// first), fires every due waker once, and returns how many were fired. A
// negative timeout waits for the next deadline unconditionally.
func (r *Reactor) PollEvents(timeout time.Duration) int {
	r.prune()
	if r.pq.Len() == 0 {
		return 0
	}
	earliest := r.pq[0].deadline
	now := r.Now()
	if wait := earliest.Sub(now); wait > 0 {
		if timeout >= 0 && wait > timeout {
			r.advance(timeout)
			return 0
		}
		r.advance(wait)
	}
	now = r.Now()
	fired := 0
	for r.pq.Len() > 0 && !r.pq[0].deadline.After(now) {
		e := heap.Pop(&r.pq).(*entry)
		e.fired = true
		e.w.Wake()
		fired++
	}
	return fired
}

func (r *Reactor) advance(d time.Duration) {
	if r.mode == Actual {
		time.Sleep(d)
		return
	}
	r.now = r.now.Add(d)
}

// prune drops entries whose task already terminated, so dead timers keep
// neither the heap nor the deadlock detector busy.
func (r *Reactor) prune() {
	for i := 0; i < len(r.entries); i++ {
		e := r.entries[i]
		if e.w.Live() {
			continue
		}
		if e.index >= 0 {
			heap.Remove(&r.pq, e.index)
		}
		r.entries = append(r.entries[:i], r.entries[i+1:]...)
		i--
	}
}

type timerHeap []*entry

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}
