package reactive

import (
	"slices"
	"testing"
)

func TestSignalBasic(t *testing.T) {
	rt := NewRuntime()
	count := NewSignal(rt, 0)

	if count.Value() != 0 {
		t.Errorf("expected initial value 0, got %d", count.Value())
	}

	count.Set(5)
	if count.Peek() != 5 {
		t.Errorf("expected value 5, got %d", count.Peek())
	}

	count.Update(func(n int) int { return n * 2 })
	if count.Peek() != 10 {
		t.Errorf("expected value 10, got %d", count.Peek())
	}
}

func TestSignalWriteNotifiesInSubscriptionOrder(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, "a")

	var calls []string
	for _, name := range []string{"first", "second", "third"} {
		s.Subscribe(NewSubscriber(func() { calls = append(calls, name) }))
	}

	s.Set("b")

	want := []string{"first", "second", "third"}
	if !slices.Equal(calls, want) {
		t.Errorf("expected %v, got %v", want, calls)
	}
}

func TestSignalSetWithSameValueStillNotifies(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 1)

	calls := 0
	s.Subscribe(NewSubscriber(func() { calls++ }))

	s.Set(1)
	s.Set(1)

	if calls != 2 {
		t.Errorf("expected 2 notifications, got %d", calls)
	}
}

func TestSignalSubscribeIsIdempotent(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 0)

	calls := 0
	sub := NewSubscriber(func() { calls++ })
	s.Subscribe(sub)
	s.Subscribe(sub)

	if s.NumSubscribers() != 1 {
		t.Errorf("expected 1 subscriber, got %d", s.NumSubscribers())
	}

	s.Set(1)
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}

	s.Unsubscribe(sub)
	s.Unsubscribe(sub)
	if s.NumSubscribers() != 0 {
		t.Errorf("expected 0 subscribers, got %d", s.NumSubscribers())
	}
}

func TestSignalSelfUnsubscribeDuringNotification(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 0)

	calls := 0
	var self *Subscriber
	self = NewSubscriber(func() {
		calls++
		s.Unsubscribe(self)
	})
	s.Subscribe(self)

	s.Set(1)
	s.Set(2)

	if calls != 1 {
		t.Errorf("expected self-unsubscribing callback to run once, got %d", calls)
	}
}

func TestSignalMutationDuringRoundUsesSnapshot(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 0)

	var calls []string
	b := NewSubscriber(func() { calls = append(calls, "b") })
	c := NewSubscriber(func() { calls = append(calls, "c") })
	d := NewSubscriber(func() { calls = append(calls, "d") })
	a := NewSubscriber(func() {
		calls = append(calls, "a")
		s.Unsubscribe(b)
		s.Subscribe(d)
	})

	s.Subscribe(a)
	s.Subscribe(b)
	s.Subscribe(c)

	s.Set(1)
	if want := []string{"a", "c"}; !slices.Equal(calls, want) {
		t.Errorf("first round: expected %v, got %v", want, calls)
	}

	calls = nil
	s.Set(2)
	if want := []string{"a", "c", "d"}; !slices.Equal(calls, want) {
		t.Errorf("second round: expected %v, got %v", want, calls)
	}
}

func TestSignalPeekDoesNotTrack(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 42)

	set, value := CollectSignals(rt, func() int {
		return s.Peek()
	})

	if value != 42 {
		t.Errorf("expected 42, got %d", value)
	}
	if set.Len() != 0 {
		t.Errorf("Peek should not register a dependency, got %d", set.Len())
	}
}

func TestCollectSignalsNestedScoping(t *testing.T) {
	rt := NewRuntime()
	a := NewSignal(rt, 1)
	b := NewSignal(rt, 2)
	c := NewSignal(rt, 3)

	var inner *Sources
	outer, sum := CollectSignals(rt, func() int {
		total := a.Value()
		var nested int
		inner, nested = CollectSignals(rt, func() int { return b.Value() })
		return total + nested + c.Value()
	})

	if sum != 6 {
		t.Errorf("expected 6, got %d", sum)
	}
	if !outer.Has(a) || outer.Has(b) || !outer.Has(c) {
		t.Errorf("outer set should hold a and c only, got %d entries", outer.Len())
	}
	if !inner.Has(b) || inner.Len() != 1 {
		t.Errorf("inner set should hold b only, got %d entries", inner.Len())
	}
	if rt.tracking != nil {
		t.Error("tracking set should be cleared after the outermost call")
	}
}

func TestCollectSignalsRestoresOnPanic(t *testing.T) {
	rt := NewRuntime()
	a := NewSignal(rt, 1)
	b := NewSignal(rt, 2)

	outer, _ := CollectSignals(rt, func() int {
		func() {
			defer func() { _ = recover() }()
			CollectSignals(rt, func() int {
				panic("boom")
			})
		}()
		return a.Value() + b.Value()
	})

	if outer.Len() != 2 {
		t.Errorf("expected reads after the panic to land in the outer set, got %d", outer.Len())
	}
}

func TestCollectSignalsOrder(t *testing.T) {
	rt := NewRuntime()
	a := NewSignal(rt, 1)
	b := NewSignal(rt, 2)

	set, _ := CollectSignals(rt, func() int {
		return b.Value() + a.Value() + b.Value()
	})

	all := set.All()
	if len(all) != 2 || all[0] != Readable(b) || all[1] != Readable(a) {
		t.Errorf("expected [b a] in first-read order, got %d entries", len(all))
	}
}

func TestUnwrapAndPeekAny(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, "x")

	set, got := CollectSignals(rt, func() any { return Unwrap(s) })
	if got != "x" || set.Len() != 1 {
		t.Errorf("Unwrap should read and track, got %v with %d deps", got, set.Len())
	}

	set, got = CollectSignals(rt, func() any { return PeekAny(s) })
	if got != "x" || set.Len() != 0 {
		t.Errorf("PeekAny should read without tracking, got %v with %d deps", got, set.Len())
	}

	if Unwrap(7) != 7 || PeekAny("plain") != "plain" {
		t.Error("plain values should pass through unchanged")
	}
}
