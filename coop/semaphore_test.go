package coop

import "testing"

func TestSemaphoreBoundsConcurrentHolders(t *testing.T) {
	t.Parallel()
	ex := New()
	s := ex.Scope("sem", FailFast)
	sem := NewSemaphore(2)

	inside, peak := 0, 0
	for i := 0; i < 5; i++ {
		holding := false
		_, _ = s.Spawn("worker", func(tk *Task) Poll {
			if !holding {
				if !sem.Acquire(tk) {
					return tk.Suspend()
				}
				holding = true
				inside++
				if inside > peak {
					peak = inside
				}
				// Hold the permit across one suspension so others contend.
				tk.Waker().Wake()
				return tk.Suspend()
			}
			inside--
			sem.Release()
			return tk.Complete(nil)
		})
	}

	if err := s.Join(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak != 2 {
		t.Fatalf("peak holders = %d, want 2", peak)
	}
	if inside != 0 {
		t.Fatalf("holders left at end = %d, want 0", inside)
	}
}

func TestSemaphoreTryAcquire(t *testing.T) {
	t.Parallel()
	sem := NewSemaphore(1)
	if !sem.TryAcquire() {
		t.Fatal("first TryAcquire failed")
	}
	if sem.TryAcquire() {
		t.Fatal("second TryAcquire succeeded past the limit")
	}
	sem.Release()
	if !sem.TryAcquire() {
		t.Fatal("TryAcquire failed after Release")
	}
	sem.Release()
}

func TestSemaphoreWaitersWakeInOrder(t *testing.T) {
	t.Parallel()
	ex := New()
	s := ex.Scope("fifo", FailFast)
	sem := NewSemaphore(1)

	var order []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		holding := false
		_, _ = s.Spawn(name, func(tk *Task) Poll {
			if !holding {
				if !sem.Acquire(tk) {
					return tk.Suspend()
				}
				holding = true
				order = append(order, name)
				tk.Waker().Wake()
				return tk.Suspend()
			}
			sem.Release()
			return tk.Complete(nil)
		})
	}

	if err := s.Join(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("acquisition order = %v, want [a b c]", order)
	}
}

func TestSemaphoreReleaseWithoutAcquirePanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("Release without Acquire did not panic")
		}
	}()
	NewSemaphore(1).Release()
}
