package builder

import (
	"github.com/ggoodman/ceb-go"
	"github.com/ggoodman/ceb-go/element"
	"github.com/ggoodman/ceb-go/hooks"
)

// AttributeBuilder binds an attribute of the host to a property of the element.
type AttributeBuilder struct {
	attr      string
	prop      string
	boolean   bool
	hidden    bool
	unbound   bool
	def       any
	listeners []Listener
}

// Attribute returns a builder for the attribute name. The bound property is
// the camel-cased attribute name unless Property overrides it.
func Attribute(name string) *AttributeBuilder {
	return &AttributeBuilder{attr: name, prop: camelCase(name)}
}

// Boolean treats the attribute as a flag: present means true.
func (b *AttributeBuilder) Boolean() *AttributeBuilder {
	b.boolean = true
	return b
}

// Hidden keeps the property out of the class's public property list.
func (b *AttributeBuilder) Hidden() *AttributeBuilder {
	b.hidden = true
	return b
}

// Unbound skips the property; only listeners are notified of changes.
func (b *AttributeBuilder) Unbound() *AttributeBuilder {
	b.unbound = true
	return b
}

// Property overrides the name of the bound property.
func (b *AttributeBuilder) Property(name string) *AttributeBuilder {
	b.prop = name
	return b
}

// Default sets the value applied after construction when the host does not
// carry the attribute.
func (b *AttributeBuilder) Default(v any) *AttributeBuilder {
	b.def = v
	return b
}

// Listen registers fn to be notified of value changes.
func (b *AttributeBuilder) Listen(fn Listener) *AttributeBuilder {
	b.listeners = append(b.listeners, fn)
	return b
}

func (b *AttributeBuilder) Build(d *element.Descriptor, h element.Hooks) error {
	if b.attr == "" {
		return ceb.Configurationf("builder", "attribute name is missing")
	}

	field := element.Field{Attribute: b.attr, Boolean: b.boolean, Hidden: b.hidden, Default: b.def}
	if !b.unbound {
		field.Property = b.prop
	}
	if err := d.DeclareField(field); err != nil {
		return err
	}
	if err := d.ObserveAttribute(b.attr); err != nil {
		return err
	}

	if !b.unbound {
		attr, boolean := b.attr, b.boolean
		err := d.DefineProperty(b.prop, element.Property{
			Get: func(el *element.Instance) any {
				return attrValue(el.Host(), attr, boolean)
			},
			Set: func(el *element.Instance, v any) error {
				setAttrValue(el.Host(), attr, boolean, v)
				return nil
			},
			Hidden: b.hidden,
		})
		if err != nil {
			return err
		}
	}

	if err := h.After(hooks.Construct, b.initialize); err != nil {
		return err
	}
	return h.Before(hooks.AttributeChange, b.sync)
}

// initialize applies the default value and reports the initial value to
// listeners.
func (b *AttributeBuilder) initialize(el *element.Instance, _ hooks.Args) error {
	host := el.Host()
	current := attrValue(host, b.attr, b.boolean)

	if !b.unbound {
		switch {
		case b.boolean && truthy(b.def):
			if err := el.Set(b.prop, true); err != nil {
				return err
			}
		case !b.boolean && current == nil && b.def != nil:
			if err := el.Set(b.prop, b.def); err != nil {
				return err
			}
		}
		current, _ = el.Get(b.prop)
	}

	var initial any
	if b.boolean {
		initial = false
	}
	return notify(el, b.listeners, initial, current)
}

func (b *AttributeBuilder) sync(el *element.Instance, args hooks.Args) error {
	if args.Name != b.attr {
		return nil
	}
	return notify(el, b.listeners, changeValue(args.OldValue, b.boolean), changeValue(args.NewValue, b.boolean))
}

var _ element.Builder = (*AttributeBuilder)(nil)
