package coop

// Option configures an Executor.
type Option func(*Options)

// Options holds executor configuration. Zero values are replaced by
// defaultOptions in New.
type Options struct {
	// MaxTasks fixes the size of the task arena. Spawn returns
	// ErrCapacityExceeded once every slot is in use.
	MaxTasks int
	// PanicAsError makes Join return a *PanicError instead of
	// re-raising the panic.
	PanicAsError bool
	// Observer receives scope and task lifecycle callbacks.
	Observer Observer
	// Reactor is the external event source the run loop parks in when
	// no task is ready.
	Reactor Reactor
}

func defaultOptions() Options {
	return Options{MaxTasks: 64, PanicAsError: true}
}

// WithMaxTasks sets the fixed task arena size.
func WithMaxTasks(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxTasks = n
		}
	}
}

// WithPanicAsError controls whether a task panic is returned from Join as
// a *PanicError (true, the default) or re-raised after teardown.
func WithPanicAsError(v bool) Option { return func(o *Options) { o.PanicAsError = v } }

// WithObserver attaches a lifecycle observer.
func WithObserver(obs Observer) Option { return func(o *Options) { o.Observer = obs } }

// WithReactor plugs an external event provider into the run loop.
func WithReactor(r Reactor) Option { return func(o *Options) { o.Reactor = r } }
