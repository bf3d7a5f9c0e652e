package builder

import (
	"github.com/ggoodman/ceb-go"
	"github.com/ggoodman/ceb-go/element"
)

// PropertyBuilder defines a property backed by an instance slot.
type PropertyBuilder struct {
	name      string
	immutable bool
	hidden    bool
	def       any
	getter    func(el *element.Instance, stored any) any
	setter    func(el *element.Instance, value any) (any, error)
	listeners []Listener
}

// Property returns a builder for the property name.
func Property(name string) *PropertyBuilder {
	return &PropertyBuilder{name: name}
}

// Immutable rejects writes. The value is the default.
func (b *PropertyBuilder) Immutable() *PropertyBuilder {
	b.immutable = true
	return b
}

// Hidden keeps the property out of the class's public property list.
func (b *PropertyBuilder) Hidden() *PropertyBuilder {
	b.hidden = true
	return b
}

// Default sets the value every instance starts with.
func (b *PropertyBuilder) Default(v any) *PropertyBuilder {
	b.def = v
	return b
}

// Getter transforms the stored value on read.
func (b *PropertyBuilder) Getter(fn func(el *element.Instance, stored any) any) *PropertyBuilder {
	b.getter = fn
	return b
}

// Setter transforms a written value before it is stored.
func (b *PropertyBuilder) Setter(fn func(el *element.Instance, value any) (any, error)) *PropertyBuilder {
	b.setter = fn
	return b
}

// Listen registers fn to be notified when a write changes the stored value.
func (b *PropertyBuilder) Listen(fn Listener) *PropertyBuilder {
	b.listeners = append(b.listeners, fn)
	return b
}

func (b *PropertyBuilder) Build(d *element.Descriptor, _ element.Hooks) error {
	if b.name == "" {
		return ceb.Configurationf("builder", "property name is missing")
	}
	if err := d.DeclareField(element.Field{Property: b.name, Hidden: b.hidden, Default: b.def}); err != nil {
		return err
	}

	name, getter, setter, listeners := b.name, b.getter, b.setter, b.listeners
	p := element.Property{
		Default:  b.def,
		ReadOnly: b.immutable,
		Hidden:   b.hidden,
		Get: func(el *element.Instance) any {
			v, _ := el.Slot(name)
			if getter != nil {
				return getter(el, v)
			}
			return v
		},
	}
	if !b.immutable {
		p.Set = func(el *element.Instance, value any) error {
			if setter != nil {
				v, err := setter(el, value)
				if err != nil {
					return err
				}
				value = v
			}
			old, _ := el.Slot(name)
			el.SetSlot(name, value)
			return notify(el, listeners, old, value)
		}
	}
	return d.DefineProperty(b.name, p)
}

var _ element.Builder = (*PropertyBuilder)(nil)
