package shadow

import (
	"github.com/vango-dev/shadow/pkg/dom"
	"github.com/vango-dev/shadow/pkg/reactive"
)

// Node is a shadow node: an in-memory description of a DOM subtree that can
// own exactly one real DOM node while inflated.
//
// The variants are *Text and *Element.
type Node interface {
	Child

	// DOMNode returns the owned DOM node, or nil when detached.
	DOMNode() *dom.Node

	// Inflate creates the DOM node for this shadow node and its subtree.
	Inflate(r *Renderer) (*dom.Node, error)

	// Remove detaches the DOM node and tears down the subtree's effects.
	Remove() error

	// ReplaceWith puts other in this node's place, reusing the DOM node
	// when the variants allow it, and returns other.
	ReplaceWith(other Node) (Node, error)

	kind() string
}

// Child is an element child slot: a Node, or a Binding to a reactive
// source of nodes.
type Child interface {
	isChild()
}

func (*Text) isChild()    {}
func (*Element) isChild() {}
func (Binding) isChild()  {}

// Binding is a child whose node is read from a signal. The slot is
// reconciled again every time the signal yields a different node; a nil
// node empties it.
type Binding struct {
	src reactive.Readable
}

// Bind wraps a reactive source of nodes as a child.
func Bind[N Node](src reactive.Reader[N]) Binding {
	return Binding{src: src}
}

// Source returns the bound signal.
func (b Binding) Source() reactive.Readable {
	return b.src
}

func (b Binding) value() Node {
	if b.src == nil {
		return nil
	}
	return asNode(b.src.ValueAny())
}

func (b Binding) peek() Node {
	if b.src == nil {
		return nil
	}
	return asNode(b.src.PeekAny())
}

// asNode narrows v to a Node, mapping typed nil pointers to nil.
func asNode(v any) Node {
	switch n := v.(type) {
	case *Text:
		if n == nil {
			return nil
		}
		return n
	case *Element:
		if n == nil {
			return nil
		}
		return n
	default:
		return nil
	}
}

// peekChild resolves a child slot to its current node without tracking.
func peekChild(c Child) Node {
	switch c := c.(type) {
	case *Text:
		return asNode(c)
	case *Element:
		return asNode(c)
	case Binding:
		return c.peek()
	default:
		return nil
	}
}

func childAt(children []Child, i int) Child {
	if i < len(children) {
		return children[i]
	}
	return nil
}

func dispatchLifecycle(d *dom.Node, typ string) {
	if d != nil {
		d.Dispatch(dom.NewEvent(typ))
	}
}
