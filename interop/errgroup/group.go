// Package errgroup provides an adapter that mimics golang.org/x/sync/errgroup
// semantics on top of the cooperative executor. It enables incremental
// migration without pulling errgroup into the core library.
package errgroup

import (
	"strconv"

	"github.com/NetPo4ki/go-coop/coop"
)

// Group is an errgroup-like wrapper over a coop scope (FailFast). Each
// function passed to Go runs as a single-poll task; functions must not
// block, only compute.
type Group struct {
	ex *coop.Executor
	s  *coop.Scope
	n  int
}

// New creates a Group on its own executor.
func New(opts ...coop.Option) *Group {
	ex := coop.New(opts...)
	return &Group{ex: ex, s: ex.Scope("errgroup", coop.FailFast)}
}

// Go schedules a function. It should return a non-nil error to signal
// failure; the first failure cancels the remaining functions that have
// not run yet.
func (g *Group) Go(f func() error) {
	if f == nil {
		return
	}
	g.n++
	_, err := g.s.Spawn(strconv.Itoa(g.n), func(t *coop.Task) coop.Poll {
		if err := f(); err != nil {
			return t.Fail(err)
		}
		return t.Complete(nil)
	})
	if err != nil {
		g.s.Cancel(err)
	}
}

// Wait runs the executor until all functions have finished. It returns
// the first non-nil error (FailFast semantics) or nil on success.
func (g *Group) Wait() error {
	return g.s.Join()
}
