package errgroup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	xerrgroup "golang.org/x/sync/errgroup"

	"github.com/NetPo4ki/go-coop/coop"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGroupAllSucceed(t *testing.T) {
	t.Parallel()
	g := New()
	var sum int
	for i := 1; i <= 4; i++ {
		i := i
		g.Go(func() error {
			sum += i
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, 10, sum)
}

func TestGroupFirstErrorWins(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	g := New()
	ran := 0
	g.Go(func() error { ran++; return nil })
	g.Go(func() error { ran++; return boom })
	g.Go(func() error { ran++; return errors.New("later") })
	err := g.Wait()
	require.ErrorIs(t, err, boom)
	require.LessOrEqual(t, ran, 3)
}

// The adapter should agree with the real errgroup on the basics: same
// first-error result, every already-scheduled function observed.
func TestGroupMatchesXSyncOnFirstError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	run := func(gogo func(func() error), wait func() error) error {
		gogo(func() error { return nil })
		gogo(func() error { return boom })
		return wait()
	}

	g := New()
	ours := run(g.Go, g.Wait)

	var xg xerrgroup.Group
	theirs := run(xg.Go, xg.Wait)

	require.ErrorIs(t, ours, boom)
	require.ErrorIs(t, theirs, boom)
}

func TestGroupCapacityFailureCancels(t *testing.T) {
	t.Parallel()
	g := New(coop.WithMaxTasks(2))
	started := 0
	for i := 0; i < 5; i++ {
		g.Go(func() error {
			started++
			return nil
		})
	}
	err := g.Wait()
	require.ErrorIs(t, err, coop.ErrCapacityExceeded)
	require.Less(t, started, 5)
}
