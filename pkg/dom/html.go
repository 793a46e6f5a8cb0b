package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse parses an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	doc := &Document{root: fromHTML(root)}
	return doc, nil
}

// ParseString parses an HTML document from a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// ParseFragment parses markup in the context of a <body> element and returns
// the resulting detached top-level nodes.
func ParseFragment(r io.Reader) ([]*Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, context)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if c := fromHTML(n); c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

// Render writes the HTML serialization of n. Properties that are not
// reflected to attributes are not serialized.
func Render(w io.Writer, n *Node) error {
	return html.Render(w, toHTML(n))
}

// OuterHTML returns the HTML serialization of n.
func OuterHTML(n *Node) string {
	var buf bytes.Buffer
	if err := Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// InnerHTML returns the serialization of n's children.
func InnerHTML(n *Node) string {
	var buf bytes.Buffer
	for _, c := range n.children {
		if err := Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}

// Serialize returns the full document markup.
func (d *Document) Serialize() (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, d.root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func fromHTML(h *html.Node) *Node {
	var n *Node
	switch h.Type {
	case html.DocumentNode:
		n = &Node{typ: DocumentNode}
	case html.ElementNode:
		n = &Node{typ: ElementNode, tag: strings.ToLower(h.Data)}
		for _, a := range h.Attr {
			name := a.Key
			if a.Namespace != "" {
				name = a.Namespace + ":" + a.Key
			}
			n.attrs = append(n.attrs, Attribute{Name: name, Value: a.Val})
		}
	case html.TextNode:
		return &Node{typ: TextNode, data: h.Data}
	case html.CommentNode:
		return &Node{typ: CommentNode, data: h.Data}
	case html.DoctypeNode:
		return &Node{typ: DoctypeNode, tag: h.Data}
	default:
		return nil
	}

	for c := h.FirstChild; c != nil; c = c.NextSibling {
		if child := fromHTML(c); child != nil {
			n.AppendChild(child)
		}
	}
	return n
}

func toHTML(n *Node) *html.Node {
	var h *html.Node
	switch n.typ {
	case DocumentNode:
		h = &html.Node{Type: html.DocumentNode}
	case ElementNode:
		h = &html.Node{Type: html.ElementNode, Data: n.tag, DataAtom: atom.Lookup([]byte(n.tag))}
		for _, a := range n.attrs {
			h.Attr = append(h.Attr, html.Attribute{Key: a.Name, Val: a.Value})
		}
	case TextNode:
		return &html.Node{Type: html.TextNode, Data: n.data}
	case CommentNode:
		return &html.Node{Type: html.CommentNode, Data: n.data}
	case DoctypeNode:
		return &html.Node{Type: html.DoctypeNode, Data: n.tag}
	default:
		return &html.Node{Type: html.ErrorNode}
	}

	for _, c := range n.children {
		h.AppendChild(toHTML(c))
	}
	return h
}
