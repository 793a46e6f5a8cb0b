package reactive

// Effect is a reactive computation that subscribes to exactly the signals
// it read on its most recent run.
//
// An Effect runs once when created. Afterwards every notification from a
// subscribed signal checks whether any tracked signal's value differs from
// the snapshot taken after the last run; only then does the body run again.
// Each run diffs the new dependency set against the old one, subscribing to
// new signals and unsubscribing from ones no longer read.
type Effect struct {
	rt *Runtime

	// fn is the effect body.
	fn func()

	// used maps each tracked signal to the value peeked after the last run.
	used map[Readable]any

	// sub is the handle registered with every tracked signal.
	sub *Subscriber

	disposed bool
	runs     int
}

// NewEffect creates an Effect and runs it immediately.
// It returns ErrNestedEffect when another Effect is currently running.
func (rt *Runtime) NewEffect(fn func()) (*Effect, error) {
	if rt.current != nil {
		return nil, ErrNestedEffect
	}

	e := &Effect{
		rt:   rt,
		fn:   fn,
		used: make(map[Readable]any),
	}
	e.sub = NewSubscriber(func() { e.run(false) })

	e.run(true)
	return e, nil
}

// MustEffect is NewEffect for call sites that cannot be nested; it panics on
// error.
func (rt *Runtime) MustEffect(fn func()) *Effect {
	e, err := rt.NewEffect(fn)
	if err != nil {
		panic(err)
	}
	return e
}

// run executes the body when forced or dirty.
func (e *Effect) run(force bool) {
	if e.disposed {
		return
	}
	if !force && !e.Dirty() {
		return
	}

	prev := e.rt.current
	e.rt.current = e
	defer func() {
		e.rt.current = prev
	}()

	used := e.rt.collect(e.fn)
	e.runs++

	// The body may have disposed the effect.
	if e.disposed {
		for _, src := range used.order {
			src.Unsubscribe(e.sub)
		}
		clear(e.used)
		return
	}

	for src := range e.used {
		if !used.Has(src) {
			src.Unsubscribe(e.sub)
			delete(e.used, src)
		}
	}

	for _, src := range used.order {
		if _, ok := e.used[src]; !ok {
			src.Subscribe(e.sub)
		}
		e.used[src] = src.PeekAny()
	}
}

// Dirty reports whether any tracked signal's current value differs from the
// snapshot recorded after the last run.
func (e *Effect) Dirty() bool {
	for src, seen := range e.used {
		if !sameValue(src.PeekAny(), seen) {
			return true
		}
	}
	return false
}

// Rerun forces the body to run again regardless of the dirty state.
func (e *Effect) Rerun() error {
	if e.disposed {
		return ErrEffectDisposed
	}
	e.run(true)
	return nil
}

// Dispose unsubscribes from every tracked signal and clears the tracking map.
// Calling Dispose more than once is a no-op.
func (e *Effect) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true

	for src := range e.used {
		src.Unsubscribe(e.sub)
	}
	clear(e.used)
}

// Disposed reports whether Dispose has been called.
func (e *Effect) Disposed() bool {
	return e.disposed
}

// Runs returns how many times the body has executed.
func (e *Effect) Runs() int {
	return e.runs
}

// DependsOn reports whether src was read on the last run.
func (e *Effect) DependsOn(src Readable) bool {
	_, ok := e.used[src]
	return ok
}

// NumDependencies returns the number of tracked signals.
func (e *Effect) NumDependencies() int {
	return len(e.used)
}

// OnUpdate creates an Effect that tracks deps on every run but calls
// callback only on runs after the first.
func (rt *Runtime) OnUpdate(deps func(), callback func()) (*Effect, error) {
	first := true
	return rt.NewEffect(func() {
		deps()
		if first {
			first = false
			return
		}
		rt.WithoutEffect(callback)
	})
}
