package dom

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// propertyKind describes how a DOM property maps onto the element.
type propertyKind uint8

const (
	propState      propertyKind = iota // live state, not reflected to markup
	propReflectStr                     // reflects as a string attribute
	propReflectBool                    // reflects as a boolean attribute
)

type propertySpec struct {
	kind propertyKind
	attr string
}

// globalProperties are settable on every element.
var globalProperties = map[string]propertySpec{
	"id":        {propReflectStr, "id"},
	"className": {propReflectStr, "class"},
	"title":     {propReflectStr, "title"},
	"lang":      {propReflectStr, "lang"},
	"dir":       {propReflectStr, "dir"},
	"accessKey": {propReflectStr, "accesskey"},
	"hidden":    {propReflectBool, "hidden"},
}

// tagProperties are settable only on the listed element types.
var tagProperties = map[string]map[string]propertySpec{
	"input": {
		"value":         {kind: propState},
		"checked":       {kind: propState},
		"indeterminate": {kind: propState},
		"disabled":      {propReflectBool, "disabled"},
		"type":          {propReflectStr, "type"},
		"placeholder":   {propReflectStr, "placeholder"},
		"name":          {propReflectStr, "name"},
	},
	"textarea": {
		"value":    {kind: propState},
		"disabled": {propReflectBool, "disabled"},
		"name":     {propReflectStr, "name"},
	},
	"select": {
		"value":    {kind: propState},
		"disabled": {propReflectBool, "disabled"},
	},
	"option": {
		"selected": {kind: propState},
		"value":    {propReflectStr, "value"},
	},
	"button": {
		"disabled": {propReflectBool, "disabled"},
		"type":     {propReflectStr, "type"},
	},
	"a": {
		"href": {propReflectStr, "href"},
	},
	"img": {
		"src": {propReflectStr, "src"},
		"alt": {propReflectStr, "alt"},
	},
}

func (n *Node) propertySpec(name string) (propertySpec, bool) {
	if n.typ != ElementNode {
		return propertySpec{}, false
	}
	if spec, ok := tagProperties[n.tag][name]; ok {
		return spec, true
	}
	spec, ok := globalProperties[name]
	return spec, ok
}

// HasProperty reports whether name is a settable property of n, the
// equivalent of `name in element` for the supported property table.
func (n *Node) HasProperty(name string) bool {
	_, ok := n.propertySpec(name)
	return ok
}

// SetProperty assigns a property. Reflecting properties update the matching
// attribute; state properties are stored on the node only. It returns false
// when name is not a property of n.
func (n *Node) SetProperty(name string, value any) bool {
	spec, ok := n.propertySpec(name)
	if !ok {
		return false
	}

	switch spec.kind {
	case propReflectStr:
		if value == nil {
			n.RemoveAttribute(spec.attr)
			return true
		}
		n.SetAttribute(spec.attr, stringify(value))
	case propReflectBool:
		n.ToggleAttribute(spec.attr, Truthy(value))
	default:
		if n.props == nil {
			n.props = make(map[string]any)
		}
		n.props[name] = value
	}
	return true
}

// Property returns the current value of a property.
func (n *Node) Property(name string) (any, bool) {
	spec, ok := n.propertySpec(name)
	if !ok {
		return nil, false
	}

	switch spec.kind {
	case propReflectStr:
		v, _ := n.GetAttribute(spec.attr)
		return v, true
	case propReflectBool:
		return n.HasAttribute(spec.attr), true
	default:
		v, ok := n.props[name]
		if !ok && name == "value" {
			// Unset value falls back to the markup default.
			if attr, has := n.GetAttribute("value"); has {
				return attr, true
			}
			if n.tag == "textarea" {
				return n.TextContent(), true
			}
			return "", true
		}
		return v, true
	}
}

// Truthy converts a property value to a boolean the way DOM boolean
// properties coerce their input.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}

	// Numbers of any width: zero and NaN are false.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return !rv.IsZero()
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	default:
		return true
	}
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
