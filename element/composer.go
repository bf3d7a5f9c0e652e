package element

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ggoodman/ceb-go"
	"github.com/ggoodman/ceb-go/hooks"
	"github.com/ggoodman/ceb-go/internal/logctx"
)

// Option configures a Composer.
type Option func(*Composer)

// WithLogHandler sets the handler used by the class and its instances. When
// unset, logs are discarded.
func WithLogHandler(h slog.Handler) Option {
	return func(c *Composer) { c.logHandler = h }
}

// WithBase sets the base lifecycle behaviour. Equivalent to calling Base.
func WithBase(l Lifecycle) Option {
	return func(c *Composer) { c.base = l }
}

// Composer accumulates builders for one element class.
type Composer struct {
	tag        string
	logHandler slog.Handler
	base       Lifecycle
	builders   []Builder

	once  sync.Once
	class *Class
	err   error
}

// New starts the definition of the element class identified by tagName.
func New(tagName string, opts ...Option) *Composer {
	c := &Composer{tag: tagName}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Builder appends builders in application order.
func (c *Composer) Builder(b ...Builder) *Composer {
	c.builders = append(c.builders, b...)
	return c
}

// Base sets the behaviour run between the before and after interceptors.
func (c *Composer) Base(l Lifecycle) *Composer {
	c.base = l
	return c
}

// Compose applies every builder exactly once and finalizes the class.
// Subsequent calls return the same result.
func (c *Composer) Compose() (*Class, error) {
	c.once.Do(func() {
		c.class, c.err = c.compose()
	})
	return c.class, c.err
}

// Register composes the class and defines it on r.
func (c *Composer) Register(r *Registry) (*Class, error) {
	class, err := c.Compose()
	if err != nil {
		return nil, err
	}
	if err := r.Define(class); err != nil {
		return nil, err
	}
	return class, nil
}

func (c *Composer) compose() (*Class, error) {
	if err := validateTagName(c.tag); err != nil {
		return nil, err
	}

	log := slog.New(logctx.Wrap(c.logHandler)).With(slog.String("tag", c.tag))
	desc := newDescriptor(c.tag, log)
	reg := hooks.NewRegistry[*Instance]()

	view := registration{reg: reg}
	for i, b := range c.builders {
		if b == nil {
			return nil, ceb.Configurationf("element", "builder %d of <%s> is nil", i, c.tag)
		}
		if err := b.Build(desc, view); err != nil {
			return nil, fmt.Errorf("element <%s>: builder %d (%T): %w", c.tag, i, b, err)
		}
	}

	reg.Finalize()
	desc.seal()

	log.Debug("element class composed",
		slog.Int("builders", len(c.builders)),
		slog.Int("properties", len(desc.props)),
		slog.Int("methods", len(desc.methods)),
		slog.Int("wrappers", len(desc.wraps)),
	)

	return &Class{
		tag:      c.tag,
		log:      log,
		hooks:    reg,
		base:     c.base,
		props:    desc.props,
		methods:  desc.resolveMethods(),
		fields:   desc.Fields(),
		observed: desc.ObservedAttributes(),
		subs:     desc.subs,
	}, nil
}

// registration exposes only the write side of a class's hook registry to
// builders.
type registration struct {
	reg *hooks.Registry[*Instance]
}

func (r registration) Before(phase hooks.Phase, fn Interceptor) error {
	return r.reg.Before(phase, fn)
}

func (r registration) After(phase hooks.Phase, fn Interceptor) error {
	return r.reg.After(phase, fn)
}

var _ Hooks = registration{}

// validateTagName applies the custom element naming rules the core relies on:
// lowercase, starting with a letter, containing a hyphen.
func validateTagName(tag string) error {
	switch {
	case tag == "":
		return ceb.Configurationf("element", "empty tag name")
	case !strings.Contains(tag, "-"):
		return ceb.Configurationf("element", "tag name %q must contain a hyphen", tag)
	case tag[0] < 'a' || tag[0] > 'z':
		return ceb.Configurationf("element", "tag name %q must start with a lowercase letter", tag)
	case strings.ToLower(tag) != tag:
		return ceb.Configurationf("element", "tag name %q must be lowercase", tag)
	}
	return nil
}
