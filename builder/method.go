package builder

import (
	"github.com/ggoodman/ceb-go"
	"github.com/ggoodman/ceb-go/element"
)

// MethodBuilder defines and/or decorates a method.
type MethodBuilder struct {
	name     string
	invoke   element.Method
	wrappers []element.Wrapper
}

// Method returns a builder for the method name.
func Method(name string) *MethodBuilder {
	return &MethodBuilder{name: name}
}

// Invoke defines the method body, replacing any earlier definition.
func (b *MethodBuilder) Invoke(fn element.Method) *MethodBuilder {
	b.invoke = fn
	return b
}

// Wrap decorates the method. Wrappers added later run outside earlier ones.
func (b *MethodBuilder) Wrap(w element.Wrapper) *MethodBuilder {
	b.wrappers = append(b.wrappers, w)
	return b
}

func (b *MethodBuilder) Build(d *element.Descriptor, _ element.Hooks) error {
	if b.invoke == nil && len(b.wrappers) == 0 {
		return ceb.Configurationf("builder", "method %q has neither a body nor wrappers", b.name)
	}
	if b.invoke != nil {
		if err := d.DefineMethod(b.name, b.invoke); err != nil {
			return err
		}
	}
	for _, w := range b.wrappers {
		if err := d.WrapMethod(b.name, w); err != nil {
			return err
		}
	}
	return nil
}

var _ element.Builder = (*MethodBuilder)(nil)
