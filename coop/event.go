package coop

// Event is anything a task can wait on with [Task.Await]. Channel waits do
// not go through Event; they register their wakers directly.
type Event interface {
	addWaiter(w Waker)
	removeWaiter(w Waker)
}

// Signal is the basic Event implementation: a FIFO list of wakers. Notify
// wakes every waiter, NotifyOne wakes the longest-waiting live one. A
// Signal must only be used from the executor's thread.
type Signal struct {
	waiters []Waker
}

func (s *Signal) addWaiter(w Waker) {
	for _, have := range s.waiters {
		if have == w {
			return
		}
	}
	s.waiters = append(s.waiters, w)
}

func (s *Signal) removeWaiter(w Waker) {
	for i, have := range s.waiters {
		if have == w {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			return
		}
	}
}

// Notify wakes every waiting task and clears the waiter list.
func (s *Signal) Notify() {
	waiters := s.waiters
	s.waiters = s.waiters[:0]
	for _, w := range waiters {
		w.Wake()
	}
}

// NotifyOne wakes the task that has been waiting the longest. Entries whose
// task already terminated are discarded. It reports whether a task was
// woken.
func (s *Signal) NotifyOne() bool {
	for len(s.waiters) > 0 {
		w := s.waiters[0]
		s.waiters = append(s.waiters[:0], s.waiters[1:]...)
		if w.Live() {
			w.Wake()
			return true
		}
	}
	return false
}
