// Package prom exports executor lifecycle metrics to Prometheus. It
// implements the coop.Observer interface on top of client_golang
// collectors; attach it with coop.WithObserver.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/NetPo4ki/go-coop/coop"
)

// Observer implements coop.Observer with Prometheus collectors.
type Observer struct {
	scopesCreated   prometheus.Counter
	scopesCancelled prometheus.Counter
	joinWait        prometheus.Histogram

	tasksStarted  prometheus.Counter
	tasksActive   prometheus.Gauge
	tasksFinished *prometheus.CounterVec
	taskDuration  prometheus.Histogram
}

// New registers the coop metrics with reg and returns the observer. Pass
// prometheus.DefaultRegisterer to use the default registry.
func New(reg prometheus.Registerer) *Observer {
	factory := promauto.With(reg)
	return &Observer{
		scopesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "coop",
			Name:      "scopes_created_total",
			Help:      "Scopes created on the executor.",
		}),
		scopesCancelled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "coop",
			Name:      "scopes_cancelled_total",
			Help:      "Scopes that received a cancellation request.",
		}),
		joinWait: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "coop",
			Name:      "scope_join_seconds",
			Help:      "Time spent in Scope.Join.",
			Buckets:   prometheus.DefBuckets,
		}),
		tasksStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "coop",
			Name:      "tasks_started_total",
			Help:      "Tasks that received their first poll.",
		}),
		tasksActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "coop",
			Name:      "tasks_active",
			Help:      "Tasks currently in a non-terminal state.",
		}),
		tasksFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coop",
			Name:      "tasks_finished_total",
			Help:      "Tasks by terminal state.",
		}, []string{"state"}),
		taskDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "coop",
			Name:      "task_duration_seconds",
			Help:      "Time from a task's first poll to its terminal state.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// ScopeCreated records scope creation.
func (o *Observer) ScopeCreated(string) { o.scopesCreated.Inc() }

// ScopeCancelled records a cancellation request.
func (o *Observer) ScopeCancelled(string, error) { o.scopesCancelled.Inc() }

// ScopeJoined records the time spent joining a scope.
func (o *Observer) ScopeJoined(_ string, wait time.Duration) {
	o.joinWait.Observe(wait.Seconds())
}

// TaskStarted records a task's first poll.
func (o *Observer) TaskStarted(string) {
	o.tasksStarted.Inc()
	o.tasksActive.Inc()
}

// TaskFinished records a task's terminal state and run duration.
func (o *Observer) TaskFinished(_ string, dur time.Duration, state coop.TaskState, _ error) {
	o.tasksActive.Dec()
	o.tasksFinished.WithLabelValues(state.String()).Inc()
	o.taskDuration.Observe(dur.Seconds())
}
