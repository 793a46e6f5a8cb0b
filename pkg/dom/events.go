package dom

import "slices"

// Lifecycle event types dispatched by the reconciler.
const (
	EventMount   = "mount"
	EventUnmount = "unmount"
)

// Event is a DOM event.
type Event struct {
	// Type is the event type (e.g., "click", "mount").
	Type string

	// Target is the node the event was dispatched on.
	Target *Node

	// CurrentTarget is the node whose listener is running.
	CurrentTarget *Node

	// Bubbles makes the event propagate to ancestors after the target.
	Bubbles bool

	// Detail carries custom event data.
	Detail any

	stopped bool
}

// NewEvent creates a non-bubbling event, like a CustomEvent with defaults.
func NewEvent(typ string) *Event {
	return &Event{Type: typ}
}

// StopPropagation prevents the event from reaching further ancestors.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// Listener is a comparable handle around an event callback.
// Adding the same Listener twice for one event type is a no-op.
type Listener struct {
	fn func(*Event)
}

// NewListener wraps fn in a Listener.
func NewListener(fn func(*Event)) *Listener {
	return &Listener{fn: fn}
}

// Func wraps a callback that ignores the event.
func Func(fn func()) *Listener {
	return &Listener{fn: func(*Event) { fn() }}
}

// Handle invokes the callback.
func (l *Listener) Handle(ev *Event) {
	if l != nil && l.fn != nil {
		l.fn(ev)
	}
}

// AddEventListener registers l for events of type typ.
func (n *Node) AddEventListener(typ string, l *Listener) {
	if l == nil {
		return
	}
	if n.listeners == nil {
		n.listeners = make(map[string][]*Listener)
	}
	if slices.Contains(n.listeners[typ], l) {
		return
	}
	n.listeners[typ] = append(n.listeners[typ], l)
}

// RemoveEventListener unregisters l for events of type typ.
func (n *Node) RemoveEventListener(typ string, l *Listener) {
	list := n.listeners[typ]
	if i := slices.Index(list, l); i >= 0 {
		n.listeners[typ] = slices.Delete(list, i, i+1)
	}
	if len(n.listeners[typ]) == 0 {
		delete(n.listeners, typ)
	}
}

// ListenerCount returns the number of listeners registered for typ.
func (n *Node) ListenerCount(typ string) int {
	return len(n.listeners[typ])
}

// HasListener reports whether l is registered for typ.
func (n *Node) HasListener(typ string, l *Listener) bool {
	return slices.Contains(n.listeners[typ], l)
}

// Dispatch delivers ev to n's listeners and, for bubbling events, to each
// ancestor's listeners until propagation stops. Listeners added during
// dispatch on a node do not run for that node.
func (n *Node) Dispatch(ev *Event) {
	ev.Target = n
	for cur := n; cur != nil; cur = cur.parent {
		ev.CurrentTarget = cur
		for _, l := range slices.Clone(cur.listeners[ev.Type]) {
			if cur.HasListener(ev.Type, l) {
				l.Handle(ev)
			}
		}
		if !ev.Bubbles || ev.stopped {
			break
		}
	}
	ev.CurrentTarget = nil
}
