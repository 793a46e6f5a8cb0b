package reactive

import (
	"errors"
	"fmt"
	"testing"
)

func TestComputedIsLazy(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 2)

	calls := 0
	c := NewComputed(rt, func() int {
		calls++
		return s.Value() * 2
	})

	if calls != 0 {
		t.Errorf("callback should not run before first read, ran %d times", calls)
	}

	if got := c.Peek(); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
	if got := c.Value(); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
	if calls != 1 {
		t.Errorf("repeated reads without writes should not recompute, ran %d times", calls)
	}
}

func TestComputedRecomputesOncePerChange(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 1)
	c := NewComputed(rt, func() int { return s.Value() * 2 })

	var seen []int
	e := rt.MustEffect(func() { seen = append(seen, c.Value()) })
	defer e.Dispose()
	rt.Flush()

	s.Set(2)
	s.Set(2)
	s.Set(3)

	if c.Recomputes() != 3 {
		t.Errorf("expected 3 recomputes (initial + two changes), got %d", c.Recomputes())
	}
	want := []int{2, 4, 6}
	if len(seen) != len(want) {
		t.Fatalf("expected effect values %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("run %d: expected %d, got %d", i, want[i], seen[i])
		}
	}
}

func TestComputedWriteRejected(t *testing.T) {
	rt := NewRuntime()
	c := NewComputed(rt, func() int { return 1 })

	if err := c.Set(2); !errors.Is(err, ErrComputedWrite) {
		t.Errorf("expected ErrComputedWrite, got %v", err)
	}
	if c.Peek() != 1 {
		t.Errorf("value should be unchanged, got %d", c.Peek())
	}
}

func TestComputedTeardownIsDeferred(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 1)
	c := NewComputed(rt, func() int { return s.Value() })

	e := rt.MustEffect(func() { _ = c.Value() })
	rt.Flush()
	if !c.Active() {
		t.Fatal("computed with a subscriber should stay active after flush")
	}

	e.Dispose()
	if !c.Active() {
		t.Error("teardown must wait for the deferred queue")
	}

	rt.Flush()
	if c.Active() {
		t.Error("computed without subscribers should be torn down after flush")
	}
	if s.NumSubscribers() != 0 {
		t.Errorf("upstream should have no subscribers, has %d", s.NumSubscribers())
	}
}

func TestComputedTeardownDebounce(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 1)
	c := NewComputed(rt, func() int { return s.Value() })

	first := NewSubscriber(func() {})
	c.Subscribe(first)
	rt.Flush()
	calls := c.Recomputes()

	second := NewSubscriber(func() {})
	c.Unsubscribe(first)
	c.Subscribe(second)
	rt.Flush()

	if !c.Active() {
		t.Error("resubscribed computed should keep its effect")
	}
	if c.Recomputes() != calls {
		t.Errorf("debounced teardown should not recompute, got %d want %d", c.Recomputes(), calls)
	}
}

func TestComputedRecreatedAfterTeardown(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 1)

	calls := 0
	c := NewComputed(rt, func() int {
		calls++
		return s.Value()
	})

	_ = c.Peek()
	rt.Flush()
	if c.Active() {
		t.Fatal("unsubscribed computed should be torn down by flush")
	}

	s.Set(7)
	if got := c.Peek(); got != 7 {
		t.Errorf("expected recreated computed to read 7, got %d", got)
	}
	if calls != 2 {
		t.Errorf("expected 2 callback runs, got %d", calls)
	}
}

func TestComputedChain(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 1)
	doubled := NewComputed(rt, func() int { return s.Value() * 2 })
	label := NewComputed(rt, func() string { return fmt.Sprintf("=%d", doubled.Value()) })

	var seen string
	e := rt.MustEffect(func() { seen = label.Value() })
	defer e.Dispose()

	s.Set(5)
	if seen != "=10" {
		t.Errorf("expected =10, got %q", seen)
	}
}

func TestComputedCounterLabel(t *testing.T) {
	rt := NewRuntime()
	count := NewSignal(rt, 0)
	label := NewComputed(rt, func() string {
		return fmt.Sprintf("Num clicks: %d", count.Value())
	})

	if label.Peek() != "Num clicks: 0" {
		t.Errorf("unexpected label %q", label.Peek())
	}

	e := rt.MustEffect(func() { _ = label.Value() })
	defer e.Dispose()

	count.Update(func(n int) int { return n + 1 })
	if label.Peek() != "Num clicks: 1" {
		t.Errorf("unexpected label %q", label.Peek())
	}
}

func TestComputedReadInsideEffectIsTrackedAsComputed(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 1)
	c := NewComputed(rt, func() int { return s.Value() })

	e := rt.MustEffect(func() { _ = c.Value() })
	defer e.Dispose()

	if !e.DependsOn(c) {
		t.Error("effect should depend on the computed")
	}
	if e.DependsOn(s) {
		t.Error("effect should not depend on the computed's upstream directly")
	}
}
