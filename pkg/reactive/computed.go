package reactive

// Computed is a read-only Signal whose value is produced by a callback.
//
// Computeds are lazy: the callback does not run until the value is first
// read or the first subscriber arrives. At that point a backing Effect is
// created (outside any running Effect) which re-invokes the callback and
// stores the result whenever its own dependencies change.
//
// When the subscriber count drops to zero, teardown of the backing Effect is
// queued on the runtime's deferred queue and happens only if the count is
// still zero when the queue drains. A subscriber set that empties and refills
// within one turn therefore keeps its Effect.
type Computed[T any] struct {
	rt *Runtime

	// compute produces the value.
	compute func() T

	// inner stores the value and the subscribers. Only the backing effect
	// writes it.
	inner *Signal[T]

	// effect is the backing effect, nil while torn down.
	effect *Effect

	recomputes int
}

// NewComputed creates a Computed bound to rt. The callback does not run yet.
func NewComputed[T any](rt *Runtime, compute func() T) *Computed[T] {
	var zero T
	return &Computed[T]{
		rt:      rt,
		compute: compute,
		inner:   NewSignal(rt, zero),
	}
}

// ensureEffect creates the backing effect if it does not exist.
func (c *Computed[T]) ensureEffect() {
	if c.effect != nil {
		return
	}

	var err error
	c.rt.WithoutEffect(func() {
		c.effect, err = c.rt.NewEffect(func() {
			c.recomputes++
			c.inner.Set(c.compute())
		})
	})
	if err != nil {
		c.rt.ReportError(err)
		return
	}
	c.scheduleTeardown()
}

// scheduleTeardown queues a check that disposes the backing effect if no
// subscriber remains when the deferred queue drains.
func (c *Computed[T]) scheduleTeardown() {
	if c.effect == nil {
		return
	}
	c.rt.Defer(func() {
		if c.effect == nil || c.inner.NumSubscribers() != 0 {
			return
		}
		c.effect.Dispose()
		c.effect = nil
		c.rt.logger.Debug("reactive: computed torn down", "recomputes", c.recomputes)
	})
}

// Value returns the computed value and registers a dependency.
func (c *Computed[T]) Value() T {
	c.ensureEffect()
	c.rt.track(c)
	return c.inner.Peek()
}

// Peek returns the computed value without registering a dependency.
func (c *Computed[T]) Peek() T {
	c.ensureEffect()
	return c.inner.Peek()
}

// Set always fails: a computed signal is written only by its backing effect.
func (c *Computed[T]) Set(T) error {
	return ErrComputedWrite
}

// Subscribe adds sub and guarantees the backing effect exists.
func (c *Computed[T]) Subscribe(sub *Subscriber) {
	c.inner.Subscribe(sub)
	c.ensureEffect()
}

// Unsubscribe removes sub and schedules the deferred teardown check.
func (c *Computed[T]) Unsubscribe(sub *Subscriber) {
	c.inner.Unsubscribe(sub)
	c.scheduleTeardown()
}

// NumSubscribers returns the current subscriber count.
func (c *Computed[T]) NumSubscribers() int {
	return c.inner.NumSubscribers()
}

// Active reports whether the backing effect currently exists.
func (c *Computed[T]) Active() bool {
	return c.effect != nil
}

// Recomputes returns how many times the callback has run.
func (c *Computed[T]) Recomputes() int {
	return c.recomputes
}

// ValueAny implements Readable.
func (c *Computed[T]) ValueAny() any { return c.Value() }

// PeekAny implements Readable.
func (c *Computed[T]) PeekAny() any { return c.Peek() }

func (c *Computed[T]) runtime() *Runtime { return c.rt }

var _ Reader[int] = (*Computed[int])(nil)
