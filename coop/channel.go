package coop

type waitStatus uint8

const (
	waitParked waitStatus = iota
	waitDelivered
	waitClosed
)

type sendWaiter[T any] struct {
	w      Waker
	val    T
	status waitStatus
}

type recvWaiter[T any] struct {
	w      Waker
	val    T
	status waitStatus
}

// Channel is an in-process, fixed-capacity message channel between tasks
// of one executor. Capacity 0 gives rendezvous semantics (a send completes
// only by direct hand-off to a receiver), capacity N a bounded FIFO queue.
// The buffer is allocated once at construction and never grows.
//
// Send and Receive are cooperative: when the operation cannot progress the
// task is parked and the Op must return t.Suspend(); on resume, calling the
// same operation again reports the outcome. Waiters are served in FIFO
// order.
type Channel[T any] struct {
	buf      []T
	head     int
	count    int
	capacity int
	closed   bool

	senders   []sendWaiter[T]
	receivers []recvWaiter[T]
}

// NewChannel creates a channel with the given fixed capacity.
func NewChannel[T any](capacity int) *Channel[T] {
	if capacity < 0 {
		panic("coop: NewChannel with negative capacity")
	}
	return &Channel[T]{buf: make([]T, capacity), capacity: capacity}
}

// NewChannelWith creates a channel backed by caller-provided storage; the
// channel's capacity is cap(buf).
func NewChannelWith[T any](buf []T) *Channel[T] {
	return &Channel[T]{buf: buf[:cap(buf)], capacity: cap(buf)}
}

// Cap returns the channel's fixed capacity.
func (c *Channel[T]) Cap() int { return c.capacity }

// Len returns the current buffer occupancy.
func (c *Channel[T]) Len() int { return c.count }

// Closed reports whether the channel has been closed.
func (c *Channel[T]) Closed() bool { return c.closed }

// Send stores or hands off v. It returns (true, nil) when the value was
// accepted, (false, ErrClosed) when the channel is closed, and
// (false, nil) when the task was parked because the channel is full (or,
// for rendezvous, no receiver waits); the Op must then return t.Suspend()
// and call Send again with the same value when resumed.
func (c *Channel[T]) Send(t *Task, v T) (bool, error) {
	if i := c.findSender(t.Waker()); i >= 0 {
		switch c.senders[i].status {
		case waitDelivered:
			c.removeSender(i)
			return true, nil
		case waitClosed:
			c.removeSender(i)
			return false, ErrClosed
		default:
			return false, nil
		}
	}
	if c.closed {
		return false, ErrClosed
	}
	if c.deliver(v) {
		return true, nil
	}
	if c.count < c.capacity {
		c.push(v)
		return true, nil
	}
	c.senders = append(c.senders, sendWaiter[T]{w: t.Waker(), val: v, status: waitParked})
	return false, nil
}

// TrySend is the non-suspending variant of Send: it never parks the
// caller. It returns (false, nil) when the channel is full and no receiver
// waits.
func (c *Channel[T]) TrySend(v T) (bool, error) {
	if c.closed {
		return false, ErrClosed
	}
	if c.deliver(v) {
		return true, nil
	}
	if c.count < c.capacity {
		c.push(v)
		return true, nil
	}
	return false, nil
}

// Receive returns the next value. It reports (v, true, nil) on success,
// (zero, false, ErrClosed) once the channel is closed and drained, and
// (zero, false, nil) when the task was parked because no value is
// available; the Op must then return t.Suspend() and call Receive again
// when resumed.
func (c *Channel[T]) Receive(t *Task) (T, bool, error) {
	var zero T
	if i := c.findReceiver(t.Waker()); i >= 0 {
		switch c.receivers[i].status {
		case waitDelivered:
			v := c.receivers[i].val
			c.removeReceiver(i)
			return v, true, nil
		case waitClosed:
			c.removeReceiver(i)
			return zero, false, ErrClosed
		default:
			return zero, false, nil
		}
	}
	if v, ok := c.take(); ok {
		return v, true, nil
	}
	if c.closed {
		return zero, false, ErrClosed
	}
	c.receivers = append(c.receivers, recvWaiter[T]{w: t.Waker(), status: waitParked})
	return zero, false, nil
}

// TryReceive is the non-suspending variant of Receive. It returns
// (zero, false, nil) when no value is available.
func (c *Channel[T]) TryReceive() (T, bool, error) {
	var zero T
	if v, ok := c.take(); ok {
		return v, true, nil
	}
	if c.closed {
		return zero, false, ErrClosed
	}
	return zero, false, nil
}

// Close closes the channel. Parked senders fail with ErrClosed; parked
// receivers fail with ErrClosed once the buffer is drained. Buffered
// values stay receivable: receives drain them first and only then report
// ErrClosed.
func (c *Channel[T]) Close() {
	if c.closed {
		return
	}
	c.closed = true
	for i := range c.senders {
		if c.senders[i].status == waitParked {
			c.senders[i].status = waitClosed
			c.senders[i].w.Wake()
		}
	}
	// A parked receiver implies an empty buffer, so there is nothing
	// left for it to drain.
	for i := range c.receivers {
		if c.receivers[i].status == waitParked {
			c.receivers[i].status = waitClosed
			c.receivers[i].w.Wake()
		}
	}
}

// deliver hands v directly to the longest-waiting live receiver, bypassing
// the buffer. Stale entries for terminated tasks are pruned on the way.
func (c *Channel[T]) deliver(v T) bool {
	for i := 0; i < len(c.receivers); {
		r := &c.receivers[i]
		if !r.w.Live() {
			c.removeReceiver(i)
			continue
		}
		if r.status == waitParked {
			r.val = v
			r.status = waitDelivered
			r.w.Wake()
			return true
		}
		i++
	}
	return false
}

// take pops the buffer, refilling from the longest-waiting live parked
// sender, or accepts a rendezvous hand-off when the buffer is empty.
func (c *Channel[T]) take() (T, bool) {
	var zero T
	if c.count > 0 {
		v := c.pop()
		if i := c.firstParkedSender(); i >= 0 {
			s := &c.senders[i]
			c.push(s.val)
			s.val = zero
			s.status = waitDelivered
			s.w.Wake()
		}
		return v, true
	}
	if i := c.firstParkedSender(); i >= 0 {
		s := &c.senders[i]
		v := s.val
		s.val = zero
		s.status = waitDelivered
		s.w.Wake()
		return v, true
	}
	return zero, false
}

func (c *Channel[T]) push(v T) {
	c.buf[(c.head+c.count)%c.capacity] = v
	c.count++
}

func (c *Channel[T]) pop() T {
	var zero T
	v := c.buf[c.head]
	c.buf[c.head] = zero
	c.head = (c.head + 1) % c.capacity
	c.count--
	return v
}

func (c *Channel[T]) firstParkedSender() int {
	for i := 0; i < len(c.senders); {
		s := &c.senders[i]
		if !s.w.Live() {
			c.removeSender(i)
			continue
		}
		if s.status == waitParked {
			return i
		}
		i++
	}
	return -1
}

func (c *Channel[T]) findSender(w Waker) int {
	for i := range c.senders {
		if c.senders[i].w == w {
			return i
		}
	}
	return -1
}

func (c *Channel[T]) findReceiver(w Waker) int {
	for i := range c.receivers {
		if c.receivers[i].w == w {
			return i
		}
	}
	return -1
}

func (c *Channel[T]) removeSender(i int) {
	c.senders = append(c.senders[:i], c.senders[i+1:]...)
}

func (c *Channel[T]) removeReceiver(i int) {
	c.receivers = append(c.receivers[:i], c.receivers[i+1:]...)
}
