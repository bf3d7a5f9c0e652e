package element

import (
	"log/slog"
	"slices"

	"github.com/ggoodman/ceb-go"
)

// Method is an element method. Wrapped methods receive the same arguments.
type Method func(el *Instance, args ...any) (any, error)

// Wrapper decorates a method. It receives the next method in the chain.
type Wrapper func(next Method) Method

// Property describes an accessor installed on every instance of a class.
// A nil Get reads the instance slot of the same name; a nil Set writes it.
// Default, when non-nil, seeds that slot before the construct phase runs.
type Property struct {
	Get      func(el *Instance) any
	Set      func(el *Instance, value any) error
	Default  any
	ReadOnly bool
	Hidden   bool
}

// Field is the shared metadata about an attribute and/or property declared by
// a builder. Later builders (delegation in particular) look fields up by name.
type Field struct {
	Attribute string // empty when the field has no attribute
	Property  string // empty when the field is not exposed as a property
	Boolean   bool
	Hidden    bool
	Default   any
}

type wrap struct {
	name    string
	wrapper Wrapper
}

// Descriptor is the mutable class definition builders operate on. It is only
// usable while the class is being composed.
type Descriptor struct {
	tag      string
	log      *slog.Logger
	sealed   bool
	props    map[string]Property
	methods  map[string]Method
	wraps    []wrap
	fields   []Field
	observed []string
	subs     *Subscriptions
}

func newDescriptor(tag string, log *slog.Logger) *Descriptor {
	return &Descriptor{
		tag:     tag,
		log:     log,
		props:   make(map[string]Property),
		methods: make(map[string]Method),
		subs:    newSubscriptions(),
	}
}

// TagName returns the tag of the class being composed.
func (d *Descriptor) TagName() string { return d.tag }

// Logger returns the class logger.
func (d *Descriptor) Logger() *slog.Logger { return d.log }

// Subscriptions returns the per-instance side table for active subscriptions.
func (d *Descriptor) Subscriptions() *Subscriptions { return d.subs }

func (d *Descriptor) checkOpen(op, name string) error {
	if d.sealed {
		return ceb.Configurationf("element", "%s %q on sealed class %q", op, name, d.tag)
	}
	if name == "" {
		return ceb.Configurationf("element", "%s with empty name on class %q", op, d.tag)
	}
	return nil
}

// DefineProperty installs p under name. An existing definition is replaced.
func (d *Descriptor) DefineProperty(name string, p Property) error {
	if err := d.checkOpen("define property", name); err != nil {
		return err
	}
	if _, ok := d.props[name]; ok {
		d.log.Debug("property redefined, last definition wins", slog.String("property", name))
	}
	d.props[name] = p
	return nil
}

// Property returns the current definition of name.
func (d *Descriptor) Property(name string) (Property, bool) {
	p, ok := d.props[name]
	return p, ok
}

// DefineMethod installs m under name. An existing definition is replaced;
// wrappers registered so far stay attached to the name.
func (d *Descriptor) DefineMethod(name string, m Method) error {
	if err := d.checkOpen("define method", name); err != nil {
		return err
	}
	if m == nil {
		return ceb.Configurationf("element", "nil method %q on class %q", name, d.tag)
	}
	if _, ok := d.methods[name]; ok {
		d.log.Debug("method redefined, last definition wins", slog.String("method", name))
	}
	d.methods[name] = m
	return nil
}

// WrapMethod appends w to the decorator chain of name. The chain is resolved
// once, when the class is composed; the last registered wrapper is outermost.
func (d *Descriptor) WrapMethod(name string, w Wrapper) error {
	if err := d.checkOpen("wrap method", name); err != nil {
		return err
	}
	if w == nil {
		return ceb.Configurationf("element", "nil wrapper for %q on class %q", name, d.tag)
	}
	d.wraps = append(d.wraps, wrap{name: name, wrapper: w})
	return nil
}

// DeclareField records field metadata. A field with the same attribute or
// property name replaces the earlier declaration.
func (d *Descriptor) DeclareField(f Field) error {
	name := f.Property
	if name == "" {
		name = f.Attribute
	}
	if err := d.checkOpen("declare field", name); err != nil {
		return err
	}
	d.fields = slices.DeleteFunc(d.fields, func(cur Field) bool {
		return (f.Attribute != "" && cur.Attribute == f.Attribute) ||
			(f.Property != "" && cur.Property == f.Property)
	})
	d.fields = append(d.fields, f)
	return nil
}

// Field looks a field up by property name first, then by attribute name.
func (d *Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.fields {
		if f.Property == name {
			return f, true
		}
	}
	for _, f := range d.fields {
		if f.Attribute == name {
			return f, true
		}
	}
	return Field{}, false
}

// Fields returns the declared fields in declaration order.
func (d *Descriptor) Fields() []Field {
	return slices.Clone(d.fields)
}

// ObserveAttribute adds name to the attributes whose changes are delivered to
// the attributeChange phase.
func (d *Descriptor) ObserveAttribute(name string) error {
	if err := d.checkOpen("observe attribute", name); err != nil {
		return err
	}
	if !slices.Contains(d.observed, name) {
		d.observed = append(d.observed, name)
	}
	return nil
}

// ObservedAttributes returns the observed attribute names in declaration order.
func (d *Descriptor) ObservedAttributes() []string {
	return slices.Clone(d.observed)
}

// resolveMethods folds the decorator chain into one Method per name.
func (d *Descriptor) resolveMethods() map[string]Method {
	out := make(map[string]Method, len(d.methods))
	for name, m := range d.methods {
		out[name] = m
	}
	for _, w := range d.wraps {
		next, ok := out[w.name]
		if !ok {
			next = func(*Instance, ...any) (any, error) { return nil, nil }
		}
		out[w.name] = w.wrapper(next)
	}
	return out
}

func (d *Descriptor) seal() {
	d.sealed = true
}
