package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListenerRegistration(t *testing.T) {
	doc := NewDocument()
	btn := doc.CreateElement("button")

	clicks := 0
	l := Func(func() { clicks++ })

	btn.AddEventListener("click", l)
	btn.AddEventListener("click", l)
	assert.Equal(t, 1, btn.ListenerCount("click"))

	btn.Dispatch(NewEvent("click"))
	assert.Equal(t, 1, clicks)

	btn.RemoveEventListener("click", l)
	assert.Equal(t, 0, btn.ListenerCount("click"))
	btn.Dispatch(NewEvent("click"))
	assert.Equal(t, 1, clicks)

	// Removing an unknown listener is a no-op.
	btn.RemoveEventListener("click", NewListener(nil))
}

func TestDispatchTargets(t *testing.T) {
	doc := NewDocument()
	outer := doc.CreateElement("div")
	inner := outer.AppendChild(doc.CreateElement("span"))

	var seen []*Node
	record := NewListener(func(ev *Event) {
		assert.Same(t, inner, ev.Target)
		seen = append(seen, ev.CurrentTarget)
	})
	outer.AddEventListener("ping", record)
	inner.AddEventListener("ping", record)

	inner.Dispatch(NewEvent("ping"))
	assert.Equal(t, []*Node{inner}, seen)

	seen = nil
	inner.Dispatch(&Event{Type: "ping", Bubbles: true})
	assert.Equal(t, []*Node{inner, outer}, seen)

	seen = nil
	stop := NewListener(func(ev *Event) { ev.StopPropagation() })
	inner.AddEventListener("ping", stop)
	inner.Dispatch(&Event{Type: "ping", Bubbles: true})
	assert.Equal(t, []*Node{inner}, seen)
}

func TestDispatchSkipsListenersRemovedMidDispatch(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement("div")

	var calls []string
	var second *Listener
	first := NewListener(func(*Event) {
		calls = append(calls, "first")
		el.RemoveEventListener("mount", second)
	})
	second = NewListener(func(*Event) { calls = append(calls, "second") })

	el.AddEventListener(EventMount, first)
	el.AddEventListener(EventMount, second)
	el.Dispatch(NewEvent(EventMount))

	assert.Equal(t, []string{"first"}, calls)
}
