package builder

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/ggoodman/ceb-go/dom"
	"github.com/ggoodman/ceb-go/element"
)

// Listener is notified when the value of a field changes. Old and new values
// are strings (or nil when absent) for attributes, booleans for boolean
// attributes, and the stored values for properties.
type Listener func(el *element.Instance, oldValue, newValue any) error

func notify(el *element.Instance, listeners []Listener, oldValue, newValue any) error {
	if len(listeners) == 0 || reflect.DeepEqual(oldValue, newValue) {
		return nil
	}
	for _, fn := range listeners {
		if err := fn(el, oldValue, newValue); err != nil {
			return err
		}
	}
	return nil
}

// camelCase converts an attribute name such as "user-name" to "userName".
func camelCase(attr string) string {
	parts := strings.Split(attr, "-")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// attrValue reads an attribute as a property value.
func attrValue(el dom.Element, name string, boolean bool) any {
	if boolean {
		return el.HasAttribute(name)
	}
	if v, ok := el.GetAttribute(name); ok {
		return v
	}
	return nil
}

// setAttrValue writes a property value to an attribute. For boolean fields the
// attribute is present when value is truthy. For other fields nil removes it.
func setAttrValue(el dom.Element, name string, boolean bool, value any) {
	if boolean {
		on := truthy(value)
		switch {
		case on && !el.HasAttribute(name):
			el.SetAttribute(name, "")
		case !on && el.HasAttribute(name):
			el.RemoveAttribute(name)
		}
		return
	}
	if value == nil {
		if el.HasAttribute(name) {
			el.RemoveAttribute(name)
		}
		return
	}
	s := toString(value)
	if cur, ok := el.GetAttribute(name); !ok || cur != s {
		el.SetAttribute(name, s)
	}
}

// changeValue converts an attributeChange argument to a field value.
func changeValue(v *string, boolean bool) any {
	if boolean {
		return v != nil
	}
	if v == nil {
		return nil
	}
	return *v
}

func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	default:
		return !reflect.ValueOf(v).IsZero()
	}
}

func toString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	default:
		return fmt.Sprint(v)
	}
}
