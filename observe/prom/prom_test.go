package prom

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/NetPo4ki/go-coop/coop"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestObserverCountsLifecycle(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	obs := New(reg)
	ex := coop.New(coop.WithObserver(obs))

	s := ex.Scope("work", coop.Supervisor)
	_, err := s.Spawn("ok", func(tk *coop.Task) coop.Poll {
		return tk.Complete("done")
	})
	require.NoError(t, err)
	_, err = s.Spawn("bad", func(tk *coop.Task) coop.Poll {
		return tk.Fail(errors.New("boom"))
	})
	require.NoError(t, err)
	require.Error(t, s.Join())

	require.Equal(t, float64(1), testutil.ToFloat64(obs.scopesCreated))
	require.Equal(t, float64(2), testutil.ToFloat64(obs.tasksStarted))
	require.Equal(t, float64(0), testutil.ToFloat64(obs.tasksActive))
	// A task that fails still finishes in the Completed state, carrying
	// its error; both children land under the same label here.
	require.Equal(t, float64(2),
		testutil.ToFloat64(obs.tasksFinished.WithLabelValues(coop.Completed.String())))
	require.Equal(t, float64(0), testutil.ToFloat64(obs.scopesCancelled))
}

func TestObserverCountsCancellation(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	obs := New(reg)
	ex := coop.New(coop.WithObserver(obs))

	s := ex.Scope("race", coop.FailFast)
	_, err := s.Spawn("loser", func(tk *coop.Task) coop.Poll {
		return tk.Suspend()
	})
	require.NoError(t, err)
	_, err = s.Spawn("failer", func(tk *coop.Task) coop.Poll {
		return tk.Fail(errors.New("boom"))
	})
	require.NoError(t, err)
	require.Error(t, s.Join())

	require.GreaterOrEqual(t, testutil.ToFloat64(obs.scopesCancelled), float64(1))
	require.Equal(t, float64(1),
		testutil.ToFloat64(obs.tasksFinished.WithLabelValues(coop.Cancelled.String())))
	require.Equal(t, float64(0), testutil.ToFloat64(obs.tasksActive))
}

func TestObserverRegistersGatherableMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	obs := New(reg)
	ex := coop.New(coop.WithObserver(obs))

	s := ex.Scope("gather", coop.FailFast)
	_, err := s.Spawn("t", func(tk *coop.Task) coop.Poll { return tk.Complete(nil) })
	require.NoError(t, err)
	require.NoError(t, s.Join())

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"coop_scopes_created_total",
		"coop_scope_join_seconds",
		"coop_tasks_started_total",
		"coop_tasks_finished_total",
		"coop_task_duration_seconds",
	} {
		require.True(t, names[want], "metric %s not gathered", want)
	}
}
