package reactive

import "slices"

// Subscriber is a comparable handle around a zero-argument callback.
// Signals keep subscribers in a set, so the same handle is never registered
// twice.
type Subscriber struct {
	fn func()
}

// NewSubscriber wraps fn in a Subscriber.
func NewSubscriber(fn func()) *Subscriber {
	return &Subscriber{fn: fn}
}

// Notify invokes the callback.
func (s *Subscriber) Notify() {
	if s != nil && s.fn != nil {
		s.fn()
	}
}

// subscriberSet keeps subscribers in registration order with O(1) membership.
type subscriberSet struct {
	order []*Subscriber
	live  map[*Subscriber]struct{}
}

func (s *subscriberSet) add(sub *Subscriber) {
	if sub == nil {
		return
	}
	if s.live == nil {
		s.live = make(map[*Subscriber]struct{})
	}
	if _, ok := s.live[sub]; ok {
		return
	}
	s.live[sub] = struct{}{}
	s.order = append(s.order, sub)
}

func (s *subscriberSet) remove(sub *Subscriber) {
	if _, ok := s.live[sub]; !ok {
		return
	}
	delete(s.live, sub)
	if i := slices.Index(s.order, sub); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
}

func (s *subscriberSet) has(sub *Subscriber) bool {
	_, ok := s.live[sub]
	return ok
}

func (s *subscriberSet) len() int {
	return len(s.live)
}

// notify calls every subscriber of a frozen snapshot that is still
// subscribed at the moment it is reached. Subscribers removed during the
// round are skipped; subscribers added during the round wait for the next one.
func (s *subscriberSet) notify() {
	if len(s.order) == 0 {
		return
	}
	snapshot := slices.Clone(s.order)
	for _, sub := range snapshot {
		if s.has(sub) {
			sub.Notify()
		}
	}
}

// Signal is a mutable reactive cell.
// Reading Value while a tracking set is active registers the signal as a
// dependency; Set notifies every subscriber synchronously.
type Signal[T any] struct {
	rt    *Runtime
	value T
	subs  subscriberSet
}

// NewSignal creates a Signal bound to rt with the given initial value.
func NewSignal[T any](rt *Runtime, initial T) *Signal[T] {
	return &Signal[T]{rt: rt, value: initial}
}

// Value returns the current value and registers a dependency.
func (s *Signal[T]) Value() T {
	s.rt.track(s)
	return s.value
}

// Peek returns the current value without registering a dependency.
func (s *Signal[T]) Peek() T {
	return s.value
}

// Set stores value and notifies subscribers. There is no equality
// short-circuit: every Set starts a notification round.
func (s *Signal[T]) Set(value T) {
	s.value = value
	s.subs.notify()
}

// Update replaces the value with fn applied to the current (untracked) value.
func (s *Signal[T]) Update(fn func(T) T) {
	s.Set(fn(s.value))
}

// Subscribe adds sub to the subscriber set.
func (s *Signal[T]) Subscribe(sub *Subscriber) {
	s.subs.add(sub)
}

// Unsubscribe removes sub from the subscriber set.
func (s *Signal[T]) Unsubscribe(sub *Subscriber) {
	s.subs.remove(sub)
}

// NumSubscribers returns the current subscriber count.
func (s *Signal[T]) NumSubscribers() int {
	return s.subs.len()
}

// ValueAny implements Readable.
func (s *Signal[T]) ValueAny() any { return s.Value() }

// PeekAny implements Readable.
func (s *Signal[T]) PeekAny() any { return s.value }

func (s *Signal[T]) runtime() *Runtime { return s.rt }

var _ Reader[int] = (*Signal[int])(nil)
