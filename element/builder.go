package element

import "github.com/ggoodman/ceb-go/hooks"

// Hooks is the registration view a builder receives during Build.
type Hooks = hooks.Registration[*Instance]

// Interceptor is a lifecycle interceptor for element instances.
type Interceptor = hooks.Interceptor[*Instance]

// Builder is a composable unit of behaviour applied once per element class.
type Builder interface {
	Build(d *Descriptor, hooks Hooks) error
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(d *Descriptor, hooks Hooks) error

func (f BuilderFunc) Build(d *Descriptor, hooks Hooks) error {
	return f(d, hooks)
}

// Lifecycle is the base behaviour of an element class, run between the before
// and after interceptors of each phase. Nil members are no-ops.
type Lifecycle struct {
	Construct        func(el *Instance) error
	Connect          func(el *Instance) error
	Disconnect       func(el *Instance) error
	AttributeChanged func(el *Instance, change hooks.Args) error
}

func (l Lifecycle) base(phase hooks.Phase) func(el *Instance, args hooks.Args) error {
	switch phase {
	case hooks.Construct:
		return adapt(l.Construct)
	case hooks.Connect:
		return adapt(l.Connect)
	case hooks.Disconnect:
		return adapt(l.Disconnect)
	case hooks.AttributeChange:
		if l.AttributeChanged != nil {
			return l.AttributeChanged
		}
	}
	return func(*Instance, hooks.Args) error { return nil }
}

func adapt(fn func(el *Instance) error) func(el *Instance, args hooks.Args) error {
	if fn == nil {
		return func(*Instance, hooks.Args) error { return nil }
	}
	return func(el *Instance, _ hooks.Args) error { return fn(el) }
}
