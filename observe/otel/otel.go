package otel

import (
	"time"

	"github.com/NetPo4ki/go-coop/coop"
)

// Nop is a no-op implementation of the coop.Observer interface. It serves
// as a placeholder for an OpenTelemetry-backed observer without adding
// dependencies.
type Nop struct{}

// NewNop returns a no-op observer.
func NewNop() *Nop { return &Nop{} }

func (*Nop) ScopeCreated(string)                                       {}
func (*Nop) ScopeCancelled(string, error)                              {}
func (*Nop) ScopeJoined(string, time.Duration)                         {}
func (*Nop) TaskStarted(string)                                        {}
func (*Nop) TaskFinished(string, time.Duration, coop.TaskState, error) {}
