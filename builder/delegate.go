package builder

import (
	"github.com/ggoodman/ceb-go"
	"github.com/ggoodman/ceb-go/dom"
	"github.com/ggoodman/ceb-go/element"
)

// DelegateBuilder forwards a field declared by an earlier builder to a
// descendant of the host. Reads come from the descendant; writes go to the
// descendant and, for attribute fields, to the host attribute as well.
type DelegateBuilder struct {
	field      string
	selector   string
	attr       string
	prop       string
	toAttr     bool
	toProperty bool
}

// Delegate returns a builder for the field with the given property or
// attribute name. The field must be declared by a builder applied earlier.
func Delegate(field string) *DelegateBuilder {
	return &DelegateBuilder{field: field}
}

// To sets the selector of the descendant.
func (b *DelegateBuilder) To(selector string) *DelegateBuilder {
	b.selector = selector
	return b
}

// Attribute forwards to an attribute of the descendant. An empty name reuses
// the field's attribute name, or its property name when it has none.
func (b *DelegateBuilder) Attribute(name string) *DelegateBuilder {
	b.toAttr, b.toProperty = true, false
	b.attr = name
	return b
}

// Property forwards to a property of the descendant. An empty name reuses the
// field's property name.
func (b *DelegateBuilder) Property(name string) *DelegateBuilder {
	b.toAttr, b.toProperty = false, true
	b.prop = name
	return b
}

func (b *DelegateBuilder) Build(d *element.Descriptor, _ element.Hooks) error {
	f, ok := d.Field(b.field)
	if !ok {
		return ceb.Configurationf("builder", "delegated field %q is not declared by an earlier builder", b.field)
	}
	if b.selector == "" {
		return ceb.Configurationf("builder", "delegated field %q has no target selector", b.field)
	}
	if f.Property == "" {
		return ceb.Configurationf("builder", "delegated field %q has no property", b.field)
	}

	targetAttr, targetProp := b.target(f)
	previous, _ := d.Property(f.Property)
	selector := b.selector

	find := func(el *element.Instance) (dom.Element, bool) {
		return el.Host().QuerySelector(selector)
	}

	return d.DefineProperty(f.Property, element.Property{
		Hidden: f.Hidden,
		Get: func(el *element.Instance) any {
			target, ok := find(el)
			if !ok {
				return nil
			}
			if targetAttr != "" {
				return attrValue(target, targetAttr, f.Boolean)
			}
			v, _ := target.GetProperty(targetProp)
			return v
		},
		Set: func(el *element.Instance, v any) error {
			target, ok := find(el)
			if !ok {
				return nil
			}
			if targetAttr != "" {
				setAttrValue(target, targetAttr, f.Boolean, v)
			} else {
				target.SetProperty(targetProp, v)
			}
			switch {
			case f.Attribute != "":
				setAttrValue(el.Host(), f.Attribute, f.Boolean, v)
			case previous.Set != nil:
				return previous.Set(el, v)
			}
			return nil
		},
	})
}

func (b *DelegateBuilder) target(f element.Field) (attr, prop string) {
	switch {
	case b.toAttr:
		attr = b.attr
		if attr == "" {
			attr = f.Attribute
		}
		if attr == "" {
			attr = f.Property
		}
		return attr, ""
	case b.toProperty:
		prop = b.prop
		if prop == "" {
			prop = f.Property
		}
		return "", prop
	case f.Attribute != "":
		return f.Attribute, ""
	default:
		return "", f.Property
	}
}

var _ element.Builder = (*DelegateBuilder)(nil)
