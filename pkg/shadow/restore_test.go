package shadow

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/vango-dev/shadow/pkg/dom"
	"github.com/vango-dev/shadow/pkg/metrics"
	"github.com/vango-dev/shadow/pkg/reactive"
)

const serverMarkup = `<!DOCTYPE html><html><head></head><body><div id="app"><p class="x">hi</p><button>Num clicks: 0</button></div></body></html>`

func parseFixture(t *testing.T) (*Renderer, *dom.Document) {
	t.Helper()
	doc, err := dom.ParseString(serverMarkup)
	if err != nil {
		t.Fatalf("ParseString() error: %v", err)
	}
	return NewRenderer(reactive.NewRuntime(), doc), doc
}

func TestRestoreIsIdempotent(t *testing.T) {
	r, doc := parseFixture(t)
	app := dom.GetElementByID(doc.Root(), "app")

	first, err := r.Restore(app)
	if err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	second, err := r.Restore(app)
	if err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if first != second {
		t.Fatal("expected Restore to return the same node twice")
	}

	el, ok := first.(*Element)
	if !ok {
		t.Fatalf("expected *Element, got %T", first)
	}
	if el.Tag() != "div" || el.Attrs()["id"] != "app" || len(el.Children()) != 2 {
		t.Errorf("unexpected restored element: tag=%s attrs=%v children=%d",
			el.Tag(), el.Attrs(), len(el.Children()))
	}

	// Children are restored eagerly and bound to the existing nodes.
	p := app.FirstChild()
	restoredP, err := r.Restore(p)
	if err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if el.Children()[0] != Child(restoredP) {
		t.Error("expected child restore to return the node built with the parent")
	}
	if restoredP.DOMNode() != p {
		t.Error("expected restored node to own the existing DOM node")
	}
}

func TestRestoreCreatesNoNodes(t *testing.T) {
	r, doc := parseFixture(t)
	before, _ := doc.Serialize()

	if _, err := r.Restore(doc.Body()); err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	after, _ := doc.Serialize()
	if before != after {
		t.Errorf("expected markup to be unchanged:\n%s\n%s", before, after)
	}
}

func TestRestoreUnsupportedNodes(t *testing.T) {
	r, doc := parseFixture(t)

	if _, err := r.Restore(doc.Root()); !errors.Is(err, ErrUnrestorableNode) {
		t.Errorf("expected ErrUnrestorableNode for a document, got %v", err)
	}

	div := doc.CreateElement("div")
	div.AppendChild(doc.CreateComment("note"))
	if _, err := r.Restore(div); !errors.Is(err, ErrUnrestorableNode) {
		t.Errorf("expected ErrUnrestorableNode for a comment child, got %v", err)
	}
	if _, err := r.Restore(nil); !errors.Is(err, ErrNilNode) {
		t.Errorf("expected ErrNilNode, got %v", err)
	}
}

func TestHydrateThenPatch(t *testing.T) {
	r, doc := parseFixture(t)
	rt := r.Runtime()
	app := dom.GetElementByID(doc.Root(), "app")
	button := app.ChildAt(1)
	serverText := button.FirstChild()

	restored, err := r.Restore(button)
	if err != nil {
		t.Fatalf("Restore() error: %v", err)
	}

	count := reactive.NewSignal(rt, 0)
	live := Button(Attrs{
		"onClick": dom.Func(func() { count.Update(func(n int) int { return n + 1 }) }),
	}, Texts(rt, "Num clicks: ", count)...)

	if _, err := restored.ReplaceWith(live); err != nil {
		t.Fatalf("ReplaceWith() error: %v", err)
	}
	if live.DOMNode() != button {
		t.Fatal("expected the server-rendered button to be adopted")
	}
	if button.FirstChild() != serverText {
		t.Error("expected the server-rendered text node to be reused")
	}

	button.Dispatch(dom.NewEvent("click"))
	if got := button.TextContent(); got != "Num clicks: 1" {
		t.Errorf("expected %q, got %q", "Num clicks: 1", got)
	}
	if strings.Count(dom.OuterHTML(app), "<button>") != 1 {
		t.Errorf("expected a single button, got %s", dom.OuterHTML(app))
	}
}

func TestRendererMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(metrics.WithRegistry(reg))
	doc := dom.NewHTMLDocument()
	r := NewRenderer(reactive.NewRuntime(), doc, WithMetrics(m))

	a := Div(nil, NewText("a"))
	if err := r.Mount(doc.Body(), a); err != nil {
		t.Fatalf("Mount() error: %v", err)
	}
	if _, err := a.ReplaceWith(Div(nil, NewText("b"))); err != nil {
		t.Fatalf("ReplaceWith() error: %v", err)
	}

	want := map[[2]string]float64{
		{"element", metrics.OpInflate}: 1,
		{"text", metrics.OpInflate}:    1,
		{"element", metrics.OpPatch}:   1,
		{"text", metrics.OpPatch}:      1,
	}
	got := reconcileCounts(t, reg)
	for key, v := range want {
		if got[key] != v {
			t.Errorf("reconcile_ops_total%v = %v, want %v", key, got[key], v)
		}
	}
}

func reconcileCounts(t *testing.T, reg *prometheus.Registry) map[[2]string]float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	out := make(map[[2]string]float64)
	for _, f := range families {
		if f.GetName() != "shadow_reconcile_ops_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			out[[2]string{labelValue(m, "kind"), labelValue(m, "op")}] = m.GetCounter().GetValue()
		}
	}
	return out
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}
