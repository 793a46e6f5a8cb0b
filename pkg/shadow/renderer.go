package shadow

import (
	"fmt"
	"log/slog"
	"weak"

	"github.com/vango-dev/shadow/pkg/dom"
	"github.com/vango-dev/shadow/pkg/metrics"
	"github.com/vango-dev/shadow/pkg/reactive"
)

// Renderer binds shadow nodes to a document and a reactive runtime.
//
// It owns the side table that maps DOM nodes back to the shadow node that
// currently owns them. The table holds weak references on both sides: it
// never keeps a DOM node or a shadow node alive.
type Renderer struct {
	rt      *reactive.Runtime
	doc     *dom.Document
	logger  *slog.Logger
	metrics *metrics.Metrics

	refs map[weak.Pointer[dom.Node]]backref
}

// backref is a weak reference to the owning shadow node.
type backref struct {
	text    weak.Pointer[Text]
	element weak.Pointer[Element]
}

func (b backref) node() Node {
	if t := b.text.Value(); t != nil {
		return t
	}
	if e := b.element.Value(); e != nil {
		return e
	}
	return nil
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithRendererLogger sets the logger. Defaults to the runtime's logger.
func WithRendererLogger(logger *slog.Logger) RendererOption {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// WithMetrics records reconcile operations and effect errors.
func WithMetrics(m *metrics.Metrics) RendererOption {
	return func(r *Renderer) {
		r.metrics = m
	}
}

// NewRenderer creates a Renderer for doc driven by rt.
func NewRenderer(rt *reactive.Runtime, doc *dom.Document, opts ...RendererOption) *Renderer {
	r := &Renderer{
		rt:   rt,
		doc:  doc,
		refs: make(map[weak.Pointer[dom.Node]]backref),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = rt.Logger()
	}
	return r
}

// Runtime returns the reactive runtime.
func (r *Renderer) Runtime() *reactive.Runtime { return r.rt }

// Document returns the document nodes are created in.
func (r *Renderer) Document() *dom.Document { return r.doc }

// Mount inflates n and appends it to parent, then dispatches mount on it.
func (r *Renderer) Mount(parent *dom.Node, n Node) error {
	if n == nil {
		return ErrNilNode
	}
	d, err := n.Inflate(r)
	if err != nil {
		return err
	}
	parent.AppendChild(d)
	dispatchLifecycle(d, dom.EventMount)
	return nil
}

// Lookup returns the shadow node that owns d, if any.
func (r *Renderer) Lookup(d *dom.Node) (Node, bool) {
	if d == nil {
		return nil, false
	}
	key := weak.Make(d)
	ref, ok := r.refs[key]
	if !ok {
		return nil, false
	}
	n := ref.node()
	if n == nil {
		delete(r.refs, key)
		return nil, false
	}
	return n, true
}

// Prune drops table entries whose DOM node or shadow node was collected.
func (r *Renderer) Prune() int {
	dropped := 0
	for key, ref := range r.refs {
		if key.Value() == nil || ref.node() == nil {
			delete(r.refs, key)
			dropped++
		}
	}
	return dropped
}

func (r *Renderer) link(d *dom.Node, n Node) {
	var ref backref
	switch n := n.(type) {
	case *Text:
		ref.text = weak.Make(n)
	case *Element:
		ref.element = weak.Make(n)
	}
	r.refs[weak.Make(d)] = ref
}

func (r *Renderer) unlink(d *dom.Node) {
	delete(r.refs, weak.Make(d))
}

// report routes an error raised inside an effect to the runtime.
func (r *Renderer) report(err error) {
	r.metrics.RecordEffectError()
	r.rt.ReportError(err)
}

// watch installs an Effect running fn. An error from the first run is
// returned to the caller; later errors go to the runtime's error handler.
func (r *Renderer) watch(fn func() error) (*reactive.Effect, error) {
	var firstErr error
	initial := true
	e, err := r.rt.NewEffect(func() {
		if err := fn(); err != nil {
			if initial {
				firstErr = err
				return
			}
			r.report(err)
		}
	})
	initial = false
	if err != nil {
		return nil, err
	}
	if firstErr != nil {
		e.Dispose()
		return nil, firstErr
	}
	return e, nil
}

// Restore adopts an existing DOM subtree, returning the shadow node that
// owns d. Repeated calls return the same shadow node. Restore never
// creates DOM nodes.
func (r *Renderer) Restore(d *dom.Node) (Node, error) {
	if d == nil {
		return nil, ErrNilNode
	}
	if n, ok := r.Lookup(d); ok {
		return n, nil
	}

	switch d.Type() {
	case dom.TextNode:
		t := &Text{data: d.Data(), attrs: Attrs{}, dom: d, r: r}
		r.link(d, t)
		r.metrics.RecordReconcile(t.kind(), metrics.OpRestore)
		return t, nil

	case dom.ElementNode:
		attrs := make(Attrs)
		for _, a := range d.Attributes() {
			attrs[a.Name] = a.Value
		}
		children := make([]Child, 0, d.ChildCount())
		for _, c := range d.Children() {
			child, err := r.Restore(c)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		e := &Element{tag: d.TagName(), attrs: attrs, children: children, dom: d, r: r}
		r.link(d, e)
		r.metrics.RecordReconcile(e.kind(), metrics.OpRestore)
		r.logger.Debug("shadow: restored element", "tag", e.tag, "children", len(children))
		return e, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnrestorableNode, d.Type())
	}
}
