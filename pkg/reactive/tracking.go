package reactive

// Readable is the type-erased view of a reactive cell.
// It is implemented only by *Signal[T] and *Computed[T].
type Readable interface {
	// ValueAny returns the current value and registers a dependency.
	ValueAny() any

	// PeekAny returns the current value without registering a dependency.
	PeekAny() any

	// Subscribe adds s to the subscriber set. Adding twice is a no-op.
	Subscribe(s *Subscriber)

	// Unsubscribe removes s from the subscriber set.
	Unsubscribe(s *Subscriber)

	// NumSubscribers returns the current subscriber count.
	NumSubscribers() int

	runtime() *Runtime
}

// Reader is a typed Readable.
type Reader[T any] interface {
	Readable
	Value() T
	Peek() T
}

// Sources is an insertion-ordered set of signals collected during a call.
type Sources struct {
	order []Readable
	index map[Readable]struct{}
}

func newSources() *Sources {
	return &Sources{index: make(map[Readable]struct{})}
}

func (s *Sources) add(src Readable) {
	if _, ok := s.index[src]; ok {
		return
	}
	s.index[src] = struct{}{}
	s.order = append(s.order, src)
}

// Has reports whether src was collected.
func (s *Sources) Has(src Readable) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[src]
	return ok
}

// Len returns the number of collected signals.
func (s *Sources) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// All returns the collected signals in first-read order.
func (s *Sources) All() []Readable {
	if s == nil {
		return nil
	}
	out := make([]Readable, len(s.order))
	copy(out, s.order)
	return out
}

// CollectSignals runs fn with a fresh tracking set installed and returns the
// set of signals read during the call together with fn's result.
// The previous tracking set is restored on return, including when fn panics.
// Nested calls are scoped: a read registers only into the innermost set.
func CollectSignals[R any](rt *Runtime, fn func() R) (*Sources, R) {
	set := newSources()
	prev := rt.tracking
	rt.tracking = set
	defer func() {
		rt.tracking = prev
	}()
	return set, fn()
}

// collect is CollectSignals for callbacks without a result.
func (rt *Runtime) collect(fn func()) *Sources {
	set, _ := CollectSignals(rt, func() struct{} {
		fn()
		return struct{}{}
	})
	return set
}

// Unwrap returns v's tracked value when v is a Readable, and v otherwise.
func Unwrap(v any) any {
	if r, ok := v.(Readable); ok {
		return r.ValueAny()
	}
	return v
}

// PeekAny returns v's untracked value when v is a Readable, and v otherwise.
func PeekAny(v any) any {
	if r, ok := v.(Readable); ok {
		return r.PeekAny()
	}
	return v
}
