package shadow

import (
	"maps"

	"github.com/vango-dev/shadow/pkg/dom"
	"github.com/vango-dev/shadow/pkg/metrics"
)

// Text is a shadow text node. Its data is immutable; changing text means
// replacing the node, which reuses the DOM text node in place.
//
// Text nodes accept only event listener attributes, typically onMount and
// onUnmount.
type Text struct {
	data  string
	attrs Attrs

	dom *dom.Node
	r   *Renderer
}

// NewText creates a text node with optional listener attributes.
func NewText(data string, attrs ...Attrs) *Text {
	t := &Text{data: data, attrs: Attrs{}}
	for _, a := range attrs {
		maps.Copy(t.attrs, a)
	}
	return t
}

// Placeholder creates an empty text node that only carries lifecycle
// listeners.
func Placeholder(attrs Attrs) *Text {
	return NewText("", attrs)
}

// Data returns the text.
func (t *Text) Data() string { return t.data }

// Attrs returns a copy of the listener attributes.
func (t *Text) Attrs() Attrs { return maps.Clone(t.attrs) }

// DOMNode returns the owned DOM text node, or nil.
func (t *Text) DOMNode() *dom.Node { return t.dom }

func (t *Text) kind() string { return "text" }

// Inflate creates the DOM text node and binds its listeners.
func (t *Text) Inflate(r *Renderer) (*dom.Node, error) {
	if t.dom != nil {
		return nil, ErrDoubleInflate
	}
	t.r = r
	t.dom = r.doc.CreateTextNode(t.data)
	r.link(t.dom, t)
	if err := applyTextAttrs(t.dom, nil, t.attrs); err != nil {
		return nil, err
	}
	r.metrics.RecordReconcile(t.kind(), metrics.OpInflate)
	return t.dom, nil
}

// Remove detaches the DOM text node and dispatches unmount on it.
func (t *Text) Remove() error {
	d := t.dom
	if d == nil {
		return ErrNotInflated
	}
	d.Remove()
	t.dom = nil
	t.r.unlink(d)
	dispatchLifecycle(d, dom.EventUnmount)
	t.r.metrics.RecordReconcile(t.kind(), metrics.OpRemove)
	return nil
}

// ReplaceWith puts other in t's place. Another Text takes over the DOM text
// node, with its listeners diffed and its data written only when it
// differs. Any other node is inflated and swapped in.
func (t *Text) ReplaceWith(other Node) (Node, error) {
	if other == nil {
		return nil, ErrNilNode
	}
	if other == Node(t) {
		return t, nil
	}
	d := t.dom
	if d == nil {
		return nil, ErrNotInflated
	}
	if other.DOMNode() != nil {
		return nil, ErrDoubleInflate
	}
	r := t.r

	dispatchLifecycle(d, dom.EventUnmount)

	if next, ok := other.(*Text); ok {
		next.dom, next.r = d, r
		r.link(d, next)
		t.dom = nil
		if err := applyTextAttrs(d, t.attrs, next.attrs); err != nil {
			return nil, err
		}
		if next.data != t.data {
			d.SetData(next.data)
		}
		r.metrics.RecordReconcile(t.kind(), metrics.OpPatch)
	} else {
		nd, err := other.Inflate(r)
		if err != nil {
			return nil, err
		}
		d.ReplaceWith(nd)
		t.dom = nil
		r.unlink(d)
		r.metrics.RecordReconcile(t.kind(), metrics.OpReplace)
	}

	dispatchLifecycle(other.DOMNode(), dom.EventMount)
	return other, nil
}
