package toy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/NetPo4ki/go-coop/coop"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func sleeper(r *Reactor, d time.Duration, done func()) coop.Op {
	return func(tk *coop.Task) coop.Poll {
		if !r.Sleep(tk, d) {
			return tk.Suspend()
		}
		done()
		return tk.Complete(nil)
	}
}

func TestEmulatedSleepWakesInDeadlineOrder(t *testing.T) {
	t.Parallel()
	r := New(Emulated)
	ex := coop.New(coop.WithReactor(r))
	s := ex.Scope("timers", coop.FailFast)

	var order []string
	_, err := s.Spawn("slow", sleeper(r, 50*time.Millisecond, func() { order = append(order, "slow") }))
	require.NoError(t, err)
	_, err = s.Spawn("fast", sleeper(r, 10*time.Millisecond, func() { order = append(order, "fast") }))
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, s.Join())
	require.Equal(t, []string{"fast", "slow"}, order)
	require.Less(t, time.Since(start), 5*time.Second, "emulated mode must not block on the wall clock")
}

func TestEmulatedClockAdvancesToDeadlines(t *testing.T) {
	t.Parallel()
	r := New(Emulated)
	ex := coop.New(coop.WithReactor(r))
	s := ex.Scope("clock", coop.FailFast)

	before := r.Now()
	_, err := s.Spawn("nap", sleeper(r, 3*time.Hour, func() {}))
	require.NoError(t, err)
	require.NoError(t, s.Join())
	require.Equal(t, 3*time.Hour, r.Now().Sub(before))
}

func TestTimerCancelledWhenTaskLosesRace(t *testing.T) {
	t.Parallel()
	r := New(Emulated)
	ex := coop.New(coop.WithReactor(r))
	s := ex.Scope("race", coop.FirstWins)

	_, err := s.Spawn("hare", sleeper(r, 5*time.Millisecond, func() {}))
	require.NoError(t, err)
	_, err = s.Spawn("tortoise", sleeper(r, time.Hour, func() {}))
	require.NoError(t, err)

	require.NoError(t, s.Join())
	require.Equal(t, 0, r.Pending(), "the loser's timer must be disarmed")

	results := s.Results()
	require.Len(t, results, 2)
	states := map[string]coop.TaskState{}
	for _, res := range results {
		states[res.Name] = res.State
	}
	require.Equal(t, coop.Completed, states["race/hare"])
	require.Equal(t, coop.Cancelled, states["race/tortoise"])
}

func TestActualSleep(t *testing.T) {
	t.Parallel()
	r := New(Actual)
	ex := coop.New(coop.WithReactor(r))
	s := ex.Scope("wall", coop.FailFast)

	woke := false
	_, err := s.Spawn("blink", sleeper(r, time.Millisecond, func() { woke = true }))
	require.NoError(t, err)
	require.NoError(t, s.Join())
	require.True(t, woke)
}

func TestSequentialSleepsOnOneTask(t *testing.T) {
	t.Parallel()
	r := New(Emulated)
	ex := coop.New(coop.WithReactor(r))
	s := ex.Scope("seq", coop.FailFast)

	before := r.Now()
	stage := 0
	_, err := s.Spawn("twice", func(tk *coop.Task) coop.Poll {
		if stage == 0 {
			if !r.Sleep(tk, 10*time.Millisecond) {
				return tk.Suspend()
			}
			stage = 1
		}
		if !r.Sleep(tk, 20*time.Millisecond) {
			return tk.Suspend()
		}
		return tk.Complete(nil)
	})
	require.NoError(t, err)
	require.NoError(t, s.Join())
	require.Equal(t, 30*time.Millisecond, r.Now().Sub(before))
}

func TestScheduleTimerRejectsExcessiveDuration(t *testing.T) {
	t.Parallel()
	r := New(Emulated)
	ex := coop.New(coop.WithReactor(r))
	s := ex.Scope("cap", coop.FailFast)
	_, err := s.Spawn("greedy", func(tk *coop.Task) coop.Poll {
		r.ScheduleTimer(tk.Waker(), MaxTimerDuration+time.Second)
		return tk.Suspend()
	})
	require.NoError(t, err)
	err = s.Join()
	var pe *coop.PanicError
	require.ErrorAs(t, err, &pe)
}

func TestCancelTimerDisarms(t *testing.T) {
	t.Parallel()
	r := New(Emulated)
	ex := coop.New(coop.WithReactor(r))
	s := ex.Scope("disarm", coop.FailFast)

	armed := false
	_, err := s.Spawn("flip", func(tk *coop.Task) coop.Poll {
		if !armed {
			armed = true
			r.ScheduleTimer(tk.Waker(), time.Hour)
			require.Equal(t, 1, r.Pending())
			r.CancelTimer(tk.Waker())
			require.Equal(t, 0, r.Pending())
		}
		return tk.Complete(nil)
	})
	require.NoError(t, err)
	require.NoError(t, s.Join())
}
