// Package reactive provides the fine-grained reactive core used by the
// shadow-node reconciler.
//
// All reactive state is owned by a Runtime. A Runtime holds the single
// mutable slot that records which Effect is running and which tracking set
// collects signal reads; signals and effects are bound to the Runtime they
// were created with, so independent runtimes can coexist in one process.
//
// # Core Types
//
// Signal[T] is a mutable reactive cell:
//
//	rt := reactive.NewRuntime()
//	count := reactive.NewSignal(rt, 0)
//	value := count.Value() // tracked read
//	count.Set(5)           // synchronous notification
//	raw := count.Peek()    // untracked read
//
// Effect re-runs whenever a signal it read on its last run changes:
//
//	e, err := rt.NewEffect(func() {
//	    fmt.Println("count is", count.Value())
//	})
//	defer e.Dispose()
//
// Computed[T] is a read-only signal whose value is produced by a callback.
// It is backed by an Effect created on first read or first subscriber and
// torn down once the last subscriber leaves and the deferred queue drains:
//
//	label := reactive.NewComputed(rt, func() string {
//	    return fmt.Sprintf("Num clicks: %d", count.Value())
//	})
//
// # Scheduling
//
// Notification is push-based and immediate: Set runs every still-subscribed
// dependent before it returns. The only deferred work is Computed teardown,
// queued with Runtime.Defer and drained by Runtime.Flush at the end of the
// current turn. Scheduler is a cooperative loop that runs posted tasks one at
// a time and flushes the deferred queue after each.
//
// # Thread Safety
//
// A Runtime and everything bound to it must be used from one goroutine at a
// time. Work started on other goroutines hands its results back through
// Scheduler.Post or Scheduler.Do.
package reactive
