package shadow

import (
	"maps"
	"slices"
	"strings"

	"github.com/vango-dev/shadow/pkg/dom"
	"github.com/vango-dev/shadow/pkg/metrics"
	"github.com/vango-dev/shadow/pkg/reactive"
)

// Element is a shadow element.
//
// Attribute values and children may be reactive. Each reactive attribute
// and each bound child slot gets its own Effect, so a signal write touches
// only the attribute or slot that reads it. Children are reconciled by
// position; there is no keyed matching.
type Element struct {
	tag      string
	attrs    Attrs
	children []Child

	dom *dom.Node
	r   *Renderer

	attrEffects  []*reactive.Effect
	childEffects []*reactive.Effect
}

// NewElement creates an element. attrs and children are copied.
func NewElement(tag string, attrs Attrs, children ...Child) *Element {
	return &Element{
		tag:      strings.ToLower(tag),
		attrs:    cloneAttrs(attrs),
		children: slices.Clone(children),
	}
}

func cloneAttrs(a Attrs) Attrs {
	if a == nil {
		return Attrs{}
	}
	return maps.Clone(a)
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string { return e.tag }

// Attrs returns a copy of the current attribute set.
func (e *Element) Attrs() Attrs { return maps.Clone(e.attrs) }

// Children returns a copy of the current child list.
func (e *Element) Children() []Child { return slices.Clone(e.children) }

// DOMNode returns the owned DOM element, or nil.
func (e *Element) DOMNode() *dom.Node { return e.dom }

func (e *Element) kind() string { return "element" }

// Inflate creates the DOM element, applies attributes and then children.
func (e *Element) Inflate(r *Renderer) (*dom.Node, error) {
	if e.dom != nil {
		return nil, ErrDoubleInflate
	}
	e.r = r
	e.dom = r.doc.CreateElement(e.tag)
	r.link(e.dom, e)

	if err := e.applyAttributes(nil); err != nil {
		return nil, err
	}
	if err := e.applyChildren(nil); err != nil {
		return nil, err
	}
	r.metrics.RecordReconcile(e.kind(), metrics.OpInflate)
	return e.dom, nil
}

// Remove disposes the element's effects, detaches its DOM node, dispatches
// unmount on it, and removes every child.
func (e *Element) Remove() error {
	d := e.dom
	if d == nil {
		return ErrNotInflated
	}
	r := e.r

	e.disposeChildEffects()
	e.disposeAttrEffects()

	d.Remove()
	e.dom = nil
	r.unlink(d)
	dispatchLifecycle(d, dom.EventUnmount)
	r.metrics.RecordReconcile(e.kind(), metrics.OpRemove)

	return e.removeChildren()
}

func (e *Element) removeChildren() error {
	for _, c := range e.children {
		n := peekChild(c)
		if n == nil || n.DOMNode() == nil {
			continue
		}
		if err := n.Remove(); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceWith puts other in e's place. An Element with the same tag takes
// over the DOM element and is patched against e's attributes and children;
// anything else is inflated and swapped in.
func (e *Element) ReplaceWith(other Node) (Node, error) {
	if other == nil {
		return nil, ErrNilNode
	}
	if other == Node(e) {
		return e, nil
	}
	d := e.dom
	if d == nil {
		return nil, ErrNotInflated
	}
	if other.DOMNode() != nil {
		return nil, ErrDoubleInflate
	}
	r := e.r

	dispatchLifecycle(d, dom.EventUnmount)
	e.disposeChildEffects()
	e.disposeAttrEffects()

	if next, ok := other.(*Element); ok && next.tag == e.tag {
		next.dom, next.r = d, r
		r.link(d, next)
		e.dom = nil
		if err := next.applyAttributes(e.attrs); err != nil {
			return nil, err
		}
		if err := next.applyChildren(e.children); err != nil {
			return nil, err
		}
		r.metrics.RecordReconcile(e.kind(), metrics.OpPatch)
	} else {
		nd, err := other.Inflate(r)
		if err != nil {
			return nil, err
		}
		d.ReplaceWith(nd)
		e.dom = nil
		r.unlink(d)
		if err := e.removeChildren(); err != nil {
			return nil, err
		}
		r.metrics.RecordReconcile(e.kind(), metrics.OpReplace)
		r.logger.Debug("shadow: replaced element", "tag", e.tag, "with", other.kind())
	}

	dispatchLifecycle(other.DOMNode(), dom.EventMount)
	return other, nil
}

// UpdateAttributes swaps in a new attribute set and applies it against the
// outgoing one.
func (e *Element) UpdateAttributes(attrs Attrs) error {
	if e.dom == nil {
		return ErrNotInflated
	}
	prev := e.attrs
	e.attrs = cloneAttrs(attrs)
	return e.applyAttributes(prev)
}

// UpdateChildren swaps in a new child list and reconciles it against the
// outgoing one by position.
func (e *Element) UpdateChildren(children ...Child) error {
	if e.dom == nil {
		return ErrNotInflated
	}
	prev := e.children
	e.children = slices.Clone(children)
	return e.applyChildren(prev)
}

// =============================================================================
// Attribute reconciliation
// =============================================================================

func (e *Element) applyAttributes(prev Attrs) error {
	// Names that disappeared are cleared; Skip resolves to the old value.
	for _, name := range sortedNames(prev) {
		pv := prev[name]
		if nv, ok := e.attrs[name]; ok {
			if isSkip(nv) {
				e.attrs[name] = pv
			}
			continue
		}
		if err := setAttribute(e.dom, name, reactive.PeekAny(pv), nil); err != nil {
			return err
		}
	}

	e.disposeAttrEffects()

	var err error
	e.r.rt.WithoutEffect(func() {
		for _, name := range sortedNames(e.attrs) {
			next := e.attrs[name]
			if isSkip(next) {
				continue
			}
			if _, err = kindOf(next); err != nil {
				return
			}
			previous := reactive.PeekAny(prev[name])

			src, ok := next.(reactive.Readable)
			if !ok {
				if err = setAttribute(e.dom, name, previous, next); err != nil {
					return
				}
				continue
			}

			var effect *reactive.Effect
			effect, err = e.r.watch(func() error {
				v := src.ValueAny()
				if isSkip(v) {
					return nil
				}
				if err := setAttribute(e.dom, name, previous, v); err != nil {
					return err
				}
				previous = v
				return nil
			})
			if err != nil {
				return
			}
			e.attrEffects = append(e.attrEffects, effect)
		}
	})
	return err
}

func (e *Element) disposeAttrEffects() {
	for _, effect := range e.attrEffects {
		effect.Dispose()
	}
	e.attrEffects = nil
}

// =============================================================================
// Child reconciliation
// =============================================================================

// updateChild reconciles one child slot.
func (e *Element) updateChild(prev, next Node) error {
	switch {
	case prev == next:
		return nil
	case prev != nil && next != nil:
		_, err := prev.ReplaceWith(next)
		return err
	case prev != nil:
		return prev.Remove()
	default:
		d, err := next.Inflate(e.r)
		if err != nil {
			return err
		}
		e.dom.AppendChild(d)
		dispatchLifecycle(d, dom.EventMount)
		return nil
	}
}

func (e *Element) applyChildren(prev []Child) error {
	n := max(len(prev), len(e.children))

	e.disposeChildEffects()

	rt := e.r.rt
	var err error
	rt.WithoutEffect(func() {
		for i := 0; i < n; i++ {
			previous := peekChild(childAt(prev, i))

			switch next := childAt(e.children, i).(type) {
			case Binding:
				var effect *reactive.Effect
				effect, err = e.r.watch(func() error {
					node := next.value()
					old := previous
					previous = node
					var updateErr error
					rt.WithoutEffect(func() {
						updateErr = e.updateChild(old, node)
					})
					return updateErr
				})
				if err != nil {
					return
				}
				e.childEffects = append(e.childEffects, effect)
			case *Text:
				err = e.updateChild(previous, asNode(next))
			case *Element:
				err = e.updateChild(previous, asNode(next))
			case nil:
				err = e.updateChild(previous, nil)
			}
			if err != nil {
				return
			}
		}
	})
	return err
}

func (e *Element) disposeChildEffects() {
	for _, effect := range e.childEffects {
		effect.Dispose()
	}
	e.childEffects = nil
}
