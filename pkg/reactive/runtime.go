package reactive

import (
	"fmt"
	"log/slog"
)

// Runtime owns the reactive state for one execution context.
//
// It replaces ambient package state: the currently running Effect, the
// tracking set that collects signal reads, and the queue of deferred tasks
// all live here. Signals, computeds and effects keep a pointer to the Runtime
// they were created with.
type Runtime struct {
	// tracking collects signals read while it is non-nil.
	tracking *Sources

	// current is the Effect whose body is executing, if any.
	current *Effect

	// deferred holds tasks queued for the end of the current turn.
	deferred []func()

	// flushing is set while Flush drains the queue.
	flushing bool

	logger  *slog.Logger
	onError func(error)
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// WithErrorHandler sets the handler for errors raised inside effect-driven
// work, where no caller is waiting for a return value.
// The default handler logs the error and panics with it.
func WithErrorHandler(fn func(error)) Option {
	return func(rt *Runtime) {
		rt.onError = fn
	}
}

// NewRuntime creates a Runtime with no running effect and an empty queue.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.logger == nil {
		rt.logger = slog.Default()
	}
	return rt
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// ReportError delivers err to the runtime's error handler.
func (rt *Runtime) ReportError(err error) {
	if err == nil {
		return
	}
	if rt.onError != nil {
		rt.onError(err)
		return
	}
	rt.logger.Error("reactive: unhandled error", "error", err)
	panic(err)
}

// Running returns the Effect whose body is currently executing, or nil.
func (rt *Runtime) Running() *Effect {
	return rt.current
}

// track registers src into the active tracking set, if any.
func (rt *Runtime) track(src Readable) {
	if rt.tracking != nil {
		rt.tracking.add(src)
	}
}

// WithoutEffect runs fn with no current Effect and no active tracking set.
// Signal reads inside fn are not attributed to an enclosing Effect, and
// Effects may be created inside fn even when called from an Effect body.
// The previous state is restored when fn returns or panics.
func (rt *Runtime) WithoutEffect(fn func()) {
	prevEffect, prevTracking := rt.current, rt.tracking
	rt.current, rt.tracking = nil, nil
	defer func() {
		rt.current, rt.tracking = prevEffect, prevTracking
	}()
	fn()
}

// Untracked runs fn under WithoutEffect and returns its result.
func Untracked[T any](rt *Runtime, fn func() T) T {
	var result T
	rt.WithoutEffect(func() {
		result = fn()
	})
	return result
}

// =============================================================================
// Deferred tasks
// =============================================================================

// Defer queues task to run when the current turn ends (the next Flush).
// Tasks queued while Flush is draining run in the same Flush.
func (rt *Runtime) Defer(task func()) {
	rt.deferred = append(rt.deferred, task)
}

// Pending returns the number of queued deferred tasks.
func (rt *Runtime) Pending() int {
	return len(rt.deferred)
}

// Flush drains the deferred queue in FIFO order and returns the number of
// tasks that ran. A nested call from inside a deferred task is a no-op.
func (rt *Runtime) Flush() int {
	if rt.flushing {
		return 0
	}
	rt.flushing = true
	defer func() { rt.flushing = false }()

	ran := 0
	for len(rt.deferred) > 0 {
		task := rt.deferred[0]
		rt.deferred[0] = nil
		rt.deferred = rt.deferred[1:]
		task()
		ran++
	}
	rt.deferred = nil
	return ran
}

// Turn runs fn and then flushes the deferred queue, modelling one turn of
// the host's cooperative scheduler.
func (rt *Runtime) Turn(fn func()) {
	defer rt.Flush()
	fn()
}

// String implements fmt.Stringer for debug output.
func (rt *Runtime) String() string {
	return fmt.Sprintf("reactive.Runtime{running=%t, deferred=%d}", rt.current != nil, len(rt.deferred))
}
