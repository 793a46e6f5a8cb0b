package shadow

import "errors"

var (
	// ErrDoubleInflate is returned when Inflate is called on a node that
	// already owns a DOM node.
	ErrDoubleInflate = errors.New("shadow: node already inflated")

	// ErrNotInflated is returned when an operation needs the DOM node of a
	// node that does not own one.
	ErrNotInflated = errors.New("shadow: node not inflated")

	// ErrUnsupportedTextAttribute is returned when a text node's attribute
	// set changes in anything other than event listeners.
	ErrUnsupportedTextAttribute = errors.New("shadow: text nodes only support listener attributes")

	// ErrUnrestorableNode is returned by Restore for DOM nodes that are
	// neither text nor elements.
	ErrUnrestorableNode = errors.New("shadow: restore is not implemented for node type")

	// ErrUnsupportedAttributeValue is returned for attribute values outside
	// the supported kinds.
	ErrUnsupportedAttributeValue = errors.New("shadow: unsupported attribute value")

	// ErrNilNode is returned when a nil node is passed where one is required.
	ErrNilNode = errors.New("shadow: nil node")
)
