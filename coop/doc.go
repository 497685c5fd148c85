// Package coop provides a single-threaded cooperative executor with
// structured concurrency. Scopes own the tasks they spawn, provide a join
// point (Join), and propagate cancellation and errors predictably according
// to a policy.
//
// Tasks are explicit state machines: an [Op] is polled by the executor and
// tells it, through the returned [Poll], whether the task completed,
// suspended, or switched to another Op. Suspension happens only at declared
// points (channel operations, event waits, reactor waits); there is no
// preemption. A suspended task resumes when a [Waker] derived from its slot
// is invoked, and wake-ups are coalesced so a task is enqueued at most once.
//
// Task storage is a fixed-capacity slot arena inside the [Executor]. Handles
// and wakers carry the slot index plus an epoch tag, so a waker that
// outlives its task degrades to a no-op instead of touching recycled state.
// No task ever outlives its scope: Join does not return while a child is in
// a non-terminal state, and tearing a scope down cancels every descendant
// and waits for each to acknowledge.
package coop
