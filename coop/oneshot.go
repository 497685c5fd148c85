package coop

// Oneshot carries a single value from one task to another. It is a
// capacity-1 channel that closes itself after the first successful send,
// so a receive after the transfer drains the value and subsequent receives
// report ErrClosed.
type Oneshot[T any] struct {
	ch   *Channel[T]
	sent bool
}

// NewOneshot creates an empty oneshot channel.
func NewOneshot[T any]() *Oneshot[T] {
	return &Oneshot[T]{ch: NewChannel[T](1)}
}

// Send transfers v. The same park/resume protocol as [Channel.Send]
// applies. Send panics when called again after a completed transfer: a
// oneshot can only be used once.
func (o *Oneshot[T]) Send(t *Task, v T) (bool, error) {
	if o.sent {
		panic("coop: Oneshot.Send invoked twice; a oneshot carries a single transfer")
	}
	sent, err := o.ch.Send(t, v)
	if sent {
		o.sent = true
		o.ch.Close()
	}
	return sent, err
}

// Receive returns the transferred value, following the same park/resume
// protocol as [Channel.Receive].
func (o *Oneshot[T]) Receive(t *Task) (T, bool, error) {
	return o.ch.Receive(t)
}

// Close abandons the oneshot: a pending or future Receive reports
// ErrClosed unless a value was already transferred.
func (o *Oneshot[T]) Close() { o.ch.Close() }
