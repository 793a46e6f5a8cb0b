package shadow

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/vango-dev/shadow/pkg/dom"
	"github.com/vango-dev/shadow/pkg/reactive"
)

// EventPrefix marks attributes that bind event listeners ("onClick",
// "onMount"). The event type is the lower-cased remainder of the name.
const EventPrefix = "on"

// Attrs maps attribute names to values.
//
// Supported values are nil (absent), string, the integer and float types,
// bool, *dom.Listener for event attributes, Skip, and any reactive signal
// whose value is one of those.
type Attrs map[string]any

type skipMarker struct{}

// Skip as an attribute value leaves the previously applied value in place.
// It applies to attributes only, directly or as a signal's value.
var Skip any = skipMarker{}

func isSkip(v any) bool {
	_, ok := v.(skipMarker)
	return ok
}

type attrKind uint8

const (
	attrUnset attrKind = iota
	attrString
	attrNumber
	attrBool
	attrListener
	attrSkip
	attrSignal
)

func kindOf(v any) (attrKind, error) {
	switch v.(type) {
	case nil:
		return attrUnset, nil
	case string:
		return attrString, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return attrNumber, nil
	case bool:
		return attrBool, nil
	case *dom.Listener:
		return attrListener, nil
	case skipMarker:
		return attrSkip, nil
	case reactive.Readable:
		return attrSignal, nil
	default:
		return attrUnset, fmt.Errorf("%w: %T", ErrUnsupportedAttributeValue, v)
	}
}

// sameAttr compares two attribute values by identity. Values of
// unsupported kinds never compare equal.
func sameAttr(a, b any) bool {
	ka, errA := kindOf(a)
	kb, errB := kindOf(b)
	if errA != nil || errB != nil || ka != kb {
		return false
	}
	return a == b
}

func eventName(attr string) (string, bool) {
	if !strings.HasPrefix(attr, EventPrefix) || len(attr) == len(EventPrefix) {
		return "", false
	}
	return strings.ToLower(attr[len(EventPrefix):]), true
}

func sortedNames(sets ...Attrs) []string {
	seen := make(map[string]struct{})
	for _, s := range sets {
		for name := range s {
			seen[name] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// swapListener moves an event binding from prev to next. It reports false
// when neither side is a listener.
func swapListener(d *dom.Node, name string, prev, next any) bool {
	event, ok := eventName(name)
	if !ok {
		return false
	}
	pl, prevIsListener := prev.(*dom.Listener)
	nl, nextIsListener := next.(*dom.Listener)
	if !prevIsListener && !nextIsListener {
		return false
	}
	if prevIsListener {
		d.RemoveEventListener(event, pl)
	}
	if nextIsListener {
		d.AddEventListener(event, nl)
	}
	return true
}

// setAttribute applies a single resolved attribute change to d.
func setAttribute(d *dom.Node, name string, prev, next any) error {
	if sameAttr(prev, next) {
		return nil
	}
	kind, err := kindOf(next)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", name, err)
	}
	if kind == attrSignal || kind == attrSkip {
		return fmt.Errorf("attribute %q: %w: %T", name, ErrUnsupportedAttributeValue, next)
	}

	if swapListener(d, name, prev, next) {
		return nil
	}

	switch {
	case d.HasProperty(name):
		d.SetProperty(name, next)
	case kind == attrString || kind == attrNumber:
		d.SetAttribute(name, fmt.Sprint(next))
	default:
		d.ToggleAttribute(name, dom.Truthy(next))
	}
	return nil
}

// applyTextAttrs diffs the listener-only attribute set of a text node.
func applyTextAttrs(d *dom.Node, prev, next Attrs) error {
	for _, name := range sortedNames(prev, next) {
		pv, nv := prev[name], next[name]
		if sameAttr(pv, nv) {
			continue
		}
		if swapListener(d, name, pv, nv) {
			continue
		}
		return fmt.Errorf("%w: %q", ErrUnsupportedTextAttribute, name)
	}
	return nil
}
