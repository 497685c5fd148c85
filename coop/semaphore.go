package coop

// Semaphore bounds how many tasks hold a resource at once, cooperatively.
// Waiters are woken in FIFO order on Release.
type Semaphore struct {
	n       int
	held    int
	waiters Signal
}

// NewSemaphore creates a semaphore with n permits.
func NewSemaphore(n int) *Semaphore {
	if n <= 0 {
		panic("coop: NewSemaphore with non-positive permits")
	}
	return &Semaphore{n: n}
}

// Acquire takes a permit. When none is free the task is parked and the Op
// must return t.Suspend(), then call Acquire again when resumed.
func (s *Semaphore) Acquire(t *Task) bool {
	if s.held < s.n {
		s.held++
		return true
	}
	s.waiters.addWaiter(t.Waker())
	return false
}

// TryAcquire takes a permit without parking.
func (s *Semaphore) TryAcquire() bool {
	if s.held < s.n {
		s.held++
		return true
	}
	return false
}

// Release returns a permit and wakes the longest-waiting task.
func (s *Semaphore) Release() {
	if s.held == 0 {
		panic("coop: Semaphore.Release without Acquire")
	}
	s.held--
	s.waiters.NotifyOne()
}
