package shadow

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vango-dev/shadow/pkg/reactive"
)

// Factory builds elements of one tag.
//
//	list := shadow.Tag("ul")(nil,
//	    shadow.Tag("li")(shadow.Attrs{"class": "first"}, shadow.NewText("one")),
//	)
type Factory func(attrs Attrs, children ...Child) *Element

var factories sync.Map // string -> Factory

// Tag returns the factory for name, creating and caching it on first use.
func Tag(name string) Factory {
	name = strings.ToLower(name)
	if f, ok := factories.Load(name); ok {
		return f.(Factory)
	}
	f, _ := factories.LoadOrStore(name, Factory(func(attrs Attrs, children ...Child) *Element {
		return NewElement(name, attrs, children...)
	}))
	return f.(Factory)
}

// Common tags.
var (
	Div    = Tag("div")
	Span   = Tag("span")
	P      = Tag("p")
	H1     = Tag("h1")
	Button = Tag("button")
	Input  = Tag("input")
	Ul     = Tag("ul")
	Li     = Tag("li")
	A      = Tag("a")
)

// TextOf binds a child slot to the string form of a signal's value. Each
// change yields a new Text, which the slot applies by rewriting the
// existing DOM text node.
func TextOf(rt *reactive.Runtime, src reactive.Readable) Binding {
	return Bind[Node](reactive.NewComputed(rt, func() Node {
		return NewText(fmt.Sprint(src.ValueAny()))
	}))
}

// Texts turns a sequence of static values and signals into children,
// one text slot per part. Signals become bound slots.
//
//	shadow.Texts(rt, "Hello, ", name, "!")
func Texts(rt *reactive.Runtime, parts ...any) []Child {
	children := make([]Child, 0, len(parts))
	for _, part := range parts {
		if src, ok := part.(reactive.Readable); ok {
			children = append(children, TextOf(rt, src))
			continue
		}
		children = append(children, NewText(fmt.Sprint(part)))
	}
	return children
}
