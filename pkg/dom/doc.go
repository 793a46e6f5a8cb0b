// Package dom is a small in-memory HTML document model.
//
// It provides the platform surface the shadow reconciler drives: node
// creation, attribute and property access, event listeners, and tree
// mutation. Documents can be parsed from and serialized to HTML, which is
// how server-rendered markup is hydrated and how rendered pages are written
// back out.
//
//	doc := dom.NewHTMLDocument()
//	p := doc.CreateElement("p")
//	p.AppendChild(doc.CreateTextNode("Hello"))
//	doc.Body().AppendChild(p)
//	html, _ := doc.Serialize()
//
// Nodes are identity objects and must only be mutated from one goroutine.
package dom
