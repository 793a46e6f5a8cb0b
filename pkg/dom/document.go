package dom

import "strings"

// Document is the root of an in-memory DOM tree and the factory for its nodes.
type Document struct {
	root *Node
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{root: &Node{typ: DocumentNode}}
}

// NewHTMLDocument creates a document with the standard html/head/body skeleton.
func NewHTMLDocument() *Document {
	doc := NewDocument()
	doc.root.AppendChild(&Node{typ: DoctypeNode, tag: "html"})
	html := doc.root.AppendChild(doc.CreateElement("html"))
	html.AppendChild(doc.CreateElement("head"))
	html.AppendChild(doc.CreateElement("body"))
	return doc
}

// Root returns the document node.
func (d *Document) Root() *Node { return d.root }

// CreateElement creates a detached element with a lower-cased tag name.
func (d *Document) CreateElement(tag string) *Node {
	return &Node{typ: ElementNode, tag: strings.ToLower(tag)}
}

// CreateTextNode creates a detached text node.
func (d *Document) CreateTextNode(data string) *Node {
	return &Node{typ: TextNode, data: data}
}

// CreateComment creates a detached comment node.
func (d *Document) CreateComment(data string) *Node {
	return &Node{typ: CommentNode, data: data}
}

// DocumentElement returns the <html> element, or nil.
func (d *Document) DocumentElement() *Node {
	for _, c := range d.root.children {
		if c.typ == ElementNode {
			return c
		}
	}
	return nil
}

// Head returns the <head> element, or nil.
func (d *Document) Head() *Node {
	return findChildElement(d.DocumentElement(), "head")
}

// Body returns the <body> element, or nil.
func (d *Document) Body() *Node {
	return findChildElement(d.DocumentElement(), "body")
}

// Title returns the text of the <title> element in <head>.
func (d *Document) Title() string {
	if t := findChildElement(d.Head(), "title"); t != nil {
		return strings.TrimSpace(t.TextContent())
	}
	return ""
}

// SetTitle creates or replaces the <title> element in <head>.
func (d *Document) SetTitle(title string) {
	head := d.Head()
	if head == nil {
		return
	}
	t := findChildElement(head, "title")
	if t == nil {
		t = head.AppendChild(d.CreateElement("title"))
	}
	t.children = nil
	t.AppendChild(d.CreateTextNode(title))
}

// QuerySelectorTag returns the first descendant element of n with the given
// tag in document order, or nil.
func QuerySelectorTag(n *Node, tag string) *Node {
	if n == nil {
		return nil
	}
	tag = strings.ToLower(tag)
	for _, c := range n.children {
		if c.typ == ElementNode && c.tag == tag {
			return c
		}
		if found := QuerySelectorTag(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// GetElementByID returns the first descendant of n whose id attribute matches.
func GetElementByID(n *Node, id string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.children {
		if v, ok := c.GetAttribute("id"); ok && v == id {
			return c
		}
		if found := GetElementByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func findChildElement(n *Node, tag string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.children {
		if c.typ == ElementNode && c.tag == tag {
			return c
		}
	}
	return nil
}
