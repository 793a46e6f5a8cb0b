package sample

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vango-dev/shadow/pkg/dom"
	"github.com/vango-dev/shadow/pkg/reactive"
	"github.com/vango-dev/shadow/pkg/shadow"
	"github.com/vango-dev/shadow/pkg/ssr"
)

// CounterID is the id of the counter page's root element.
const CounterID = "app"

// Hello renders a static greeting.
func Hello(c *ssr.Context) error {
	doc := c.Document()
	doc.SetTitle("Hello, world!")
	doc.Body().AppendChild(doc.CreateTextNode("Hello, world!"))
	return nil
}

// Counter renders a button that counts its clicks.
func Counter(c *ssr.Context) error {
	c.Document().SetTitle("Counter")
	root, _ := counterTree(c.Runtime())
	return c.Renderer().Mount(c.Document().Body(), root)
}

func counterTree(rt *reactive.Runtime) (*shadow.Element, *reactive.Signal[int]) {
	count := reactive.NewSignal(rt, 0)
	button := shadow.Button(shadow.Attrs{
		"onClick": dom.Func(func() { count.Update(func(n int) int { return n + 1 }) }),
	}, shadow.Texts(rt, "Num clicks: ", count)...)
	return shadow.Div(shadow.Attrs{"id": CounterID}, button), count
}

// HydrateCounter adopts server-rendered counter markup in doc and makes it
// live again. The returned signal is the click count.
func HydrateCounter(r *shadow.Renderer, doc *dom.Document) (*reactive.Signal[int], error) {
	app := dom.GetElementByID(doc.Root(), CounterID)
	if app == nil {
		return nil, fmt.Errorf("sample: no element with id %q", CounterID)
	}
	restored, err := r.Restore(app)
	if err != nil {
		return nil, err
	}
	live, count := counterTree(r.Runtime())
	if _, err := restored.ReplaceWith(live); err != nil {
		return nil, err
	}
	return count, nil
}

// NameResolver looks up the display name for a greeting.
type NameResolver func(ctx context.Context, who string) (string, error)

// Greeting returns a page that greets the "name" query parameter. The name
// is resolved as pending work, so the page is served once it is known. The
// response is cacheable.
func Greeting(resolve NameResolver) ssr.Page {
	if resolve == nil {
		resolve = func(_ context.Context, who string) (string, error) {
			return strings.TrimSpace(who), nil
		}
	}
	return func(c *ssr.Context) error {
		rt := c.Runtime()
		name := reactive.NewSignal(rt, "...")
		root := shadow.H1(nil, shadow.Texts(rt, "Hello, ", name, "!")...)
		if err := c.Renderer().Mount(c.Document().Body(), root); err != nil {
			return err
		}

		who := c.Request().URL.Query().Get("name")
		if who == "" {
			who = "world"
		}
		ssr.Go(c, func(ctx context.Context) (string, error) {
			return resolve(ctx, who)
		}, func(resolved string) error {
			c.Document().SetTitle("Hello, " + resolved)
			name.Set(resolved)
			return nil
		})
		c.SetCacheResponse(true)
		return nil
	}
}

var pages = map[string]ssr.Page{
	"hello":    Hello,
	"counter":  Counter,
	"greeting": Greeting(nil),
}

// Lookup returns the page registered under name.
func Lookup(name string) (ssr.Page, bool) {
	p, ok := pages[name]
	return p, ok
}

// Names returns the registered page names in order.
func Names() []string {
	names := make([]string, 0, len(pages))
	for name := range pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
