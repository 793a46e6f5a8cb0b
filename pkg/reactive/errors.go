package reactive

import "errors"

// ErrNestedEffect is returned when an Effect is created while another Effect
// is running. Effect creation inside a running Effect must be wrapped in
// Runtime.WithoutEffect.
var ErrNestedEffect = errors.New("reactive: effect created while another effect is running")

// ErrComputedWrite is returned by Computed.Set. A computed signal is written
// only by its backing effect.
var ErrComputedWrite = errors.New("reactive: computed signal is read-only")

// ErrEffectDisposed is returned when a disposed Effect is asked to run again.
var ErrEffectDisposed = errors.New("reactive: effect has been disposed")

// ErrSchedulerStopped is returned when a task is posted to a Scheduler whose
// loop has exited.
var ErrSchedulerStopped = errors.New("reactive: scheduler stopped")
