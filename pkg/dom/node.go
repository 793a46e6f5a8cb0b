package dom

import (
	"slices"
	"strings"
)

// NodeType is the node type discriminator.
type NodeType uint8

const (
	DocumentNode NodeType = iota // Root of a document
	ElementNode                  // <div>, <button>, etc.
	TextNode                     // Character data
	CommentNode                  // <!-- ... -->
	DoctypeNode                  // <!DOCTYPE html>
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case DocumentNode:
		return "Document"
	case ElementNode:
		return "Element"
	case TextNode:
		return "Text"
	case CommentNode:
		return "Comment"
	case DoctypeNode:
		return "Doctype"
	default:
		return "Unknown"
	}
}

// Attribute is a single name/value attribute pair.
type Attribute struct {
	Name  string
	Value string
}

// Node is a node of the in-memory DOM.
//
// Nodes are identity objects: reconciliation code compares them by pointer
// and keys side tables by them. A Node belongs to at most one parent.
type Node struct {
	typ  NodeType
	tag  string // lower-case tag name, or doctype name
	data string // text or comment data

	attrs []Attribute
	props map[string]any

	parent   *Node
	children []*Node

	listeners map[string][]*Listener
}

// Type returns the node type.
func (n *Node) Type() NodeType { return n.typ }

// TagName returns the lower-case tag name of an element, or "" otherwise.
func (n *Node) TagName() string {
	if n.typ != ElementNode {
		return ""
	}
	return n.tag
}

// IsElement reports whether n is an element.
func (n *Node) IsElement() bool { return n != nil && n.typ == ElementNode }

// IsText reports whether n is a text node.
func (n *Node) IsText() bool { return n != nil && n.typ == TextNode }

// Data returns the character data of a text or comment node.
func (n *Node) Data() string { return n.data }

// SetData replaces the character data of a text or comment node.
func (n *Node) SetData(data string) {
	if n.typ == TextNode || n.typ == CommentNode {
		n.data = data
	}
}

// TextContent returns the concatenated text of n and its descendants.
func (n *Node) TextContent() string {
	switch n.typ {
	case TextNode, CommentNode:
		return n.data
	}
	var b strings.Builder
	var walk func(*Node)
	walk = func(c *Node) {
		if c.typ == TextNode {
			b.WriteString(c.data)
		}
		for _, child := range c.children {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

// =============================================================================
// Tree
// =============================================================================

// Parent returns the parent node, or nil when detached.
func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

// ChildCount returns the number of children.
func (n *Node) ChildCount() int { return len(n.children) }

// ChildAt returns the child at index i, or nil when out of range.
func (n *Node) ChildAt(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// FirstChild returns the first child, or nil.
func (n *Node) FirstChild() *Node { return n.ChildAt(0) }

// Index returns n's position in its parent, or -1 when detached.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	return slices.Index(n.parent.children, n)
}

// AppendChild detaches child from its current parent and appends it to n.
func (n *Node) AppendChild(child *Node) *Node {
	if child == nil || child == n {
		return child
	}
	child.Remove()
	child.parent = n
	n.children = append(n.children, child)
	return child
}

// InsertBefore inserts child before ref. A nil or foreign ref appends.
func (n *Node) InsertBefore(child, ref *Node) *Node {
	if child == nil || child == n {
		return child
	}
	if ref == nil || ref.parent != n {
		return n.AppendChild(child)
	}
	child.Remove()
	i := slices.Index(n.children, ref)
	child.parent = n
	n.children = slices.Insert(n.children, i, child)
	return child
}

// Remove detaches n from its parent. Removing a detached node is a no-op.
func (n *Node) Remove() {
	p := n.parent
	if p == nil {
		return
	}
	if i := slices.Index(p.children, n); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	n.parent = nil
}

// ReplaceWith puts other in n's position and detaches n.
// It is a no-op when n is detached or other is n.
func (n *Node) ReplaceWith(other *Node) {
	p := n.parent
	if p == nil || other == nil || other == n {
		return
	}
	other.Remove()
	i := slices.Index(p.children, n)
	p.children[i] = other
	other.parent = p
	n.parent = nil
}

// Contains reports whether other is n or a descendant of n.
func (n *Node) Contains(other *Node) bool {
	for c := other; c != nil; c = c.parent {
		if c == n {
			return true
		}
	}
	return false
}

// =============================================================================
// Attributes
// =============================================================================

// Attributes returns a copy of the attribute list in document order.
func (n *Node) Attributes() []Attribute {
	return slices.Clone(n.attrs)
}

// GetAttribute returns the value of the named attribute.
func (n *Node) GetAttribute(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttribute reports whether the named attribute is present.
func (n *Node) HasAttribute(name string) bool {
	_, ok := n.GetAttribute(name)
	return ok
}

// SetAttribute adds or replaces the named attribute.
func (n *Node) SetAttribute(name, value string) {
	if n.typ != ElementNode {
		return
	}
	name = strings.ToLower(name)
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, Attribute{Name: name, Value: value})
}

// RemoveAttribute deletes the named attribute if present.
func (n *Node) RemoveAttribute(name string) {
	name = strings.ToLower(name)
	n.attrs = slices.DeleteFunc(n.attrs, func(a Attribute) bool { return a.Name == name })
}

// ToggleAttribute makes the named boolean attribute present when force is
// true and absent otherwise. It returns whether the attribute is present.
func (n *Node) ToggleAttribute(name string, force bool) bool {
	if force {
		if !n.HasAttribute(strings.ToLower(name)) {
			n.SetAttribute(name, "")
		}
		return true
	}
	n.RemoveAttribute(name)
	return false
}
