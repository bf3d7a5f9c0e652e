package element

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"sync/atomic"

	"github.com/ggoodman/ceb-go/dom"
	"github.com/ggoodman/ceb-go/hooks"
	"github.com/ggoodman/ceb-go/internal/logctx"
)

// Class is a finalized element definition shared by all of its instances.
// It is safe for concurrent use.
type Class struct {
	tag      string
	log      *slog.Logger
	hooks    *hooks.Registry[*Instance]
	base     Lifecycle
	props    map[string]Property
	methods  map[string]Method
	fields   []Field
	observed []string
	subs     *Subscriptions

	seq atomic.Uint64
}

// TagName returns the tag the class was composed for.
func (c *Class) TagName() string { return c.tag }

// ObservedAttributes lists the attribute names delivered to AttributeChanged.
func (c *Class) ObservedAttributes() []string { return slices.Clone(c.observed) }

// Fields returns the field metadata declared by builders.
func (c *Class) Fields() []Field { return slices.Clone(c.fields) }

// Properties returns the sorted names of the non-hidden properties.
func (c *Class) Properties() []string {
	names := make([]string, 0, len(c.props))
	for name, p := range c.props {
		if !p.Hidden {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Property returns the definition of name.
func (c *Class) Property(name string) (Property, bool) {
	p, ok := c.props[name]
	return p, ok
}

// Methods returns the sorted names of the resolved methods.
func (c *Class) Methods() []string {
	names := make([]string, 0, len(c.methods))
	for name := range c.methods {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Hooks reports the number of interceptors at a hook point.
func (c *Class) Hooks(phase hooks.Phase, timing hooks.Timing) int {
	return c.hooks.Len(phase, timing)
}

// Subscriptions returns the side table shared by the class's builders.
func (c *Class) Subscriptions() *Subscriptions { return c.subs }

// New creates an instance bound to host and runs the construct phase. When
// construction fails no instance is returned.
func (c *Class) New(host dom.Element) (*Instance, error) {
	id := strconv.FormatUint(c.seq.Add(1), 10)
	el := &Instance{
		class: c,
		host:  host,
		id:    id,
		slots: make(map[string]any),
	}
	el.ctx = logctx.WithElementData(context.Background(), &logctx.ElementData{Tag: c.tag, ID: id})

	for name, p := range c.props {
		if p.Default != nil {
			el.slots[name] = p.Default
		}
	}

	if err := el.run(hooks.Construct, hooks.Args{}); err != nil {
		c.log.WarnContext(el.ctx, "element construction failed", slog.String("err", err.Error()))
		return nil, err
	}
	return el, nil
}
