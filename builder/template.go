package builder

import (
	"fmt"
	"log/slog"

	"github.com/ggoodman/ceb-go/dom"
	"github.com/ggoodman/ceb-go/element"
	"github.com/ggoodman/ceb-go/hooks"
	"github.com/ggoodman/ceb-go/template"
)

// TemplateBuilder renders the template returned by a method into the host.
// The method is called once before connect and every time it is called
// afterwards.
type TemplateBuilder struct {
	method     string
	shadow     bool
	focus      bool
	parameters any
	hasParams  bool
	source     template.ChangeSource
	schedule   func(task func())
}

// Template returns a builder wrapping the "render" method.
func Template() *TemplateBuilder {
	return &TemplateBuilder{method: "render"}
}

// Shadow renders into a shadow root attached before construction.
func (b *TemplateBuilder) Shadow(delegatesFocus bool) *TemplateBuilder {
	b.shadow = true
	b.focus = delegatesFocus
	return b
}

// Method changes the wrapped method.
func (b *TemplateBuilder) Method(name string) *TemplateBuilder {
	b.method = name
	return b
}

// Parameters sets the data passed to the template. By default the template
// receives the element instance.
func (b *TemplateBuilder) Parameters(p any) *TemplateBuilder {
	b.parameters = p
	b.hasParams = true
	return b
}

// Reload re-renders connected elements whenever src reports a change, such as
// a template.File being watched.
//
// Without Schedule the re-render runs on a goroutine owned by the element and
// may overlap lifecycle callbacks the host is running.
func (b *TemplateBuilder) Reload(src template.ChangeSource) *TemplateBuilder {
	b.source = src
	return b
}

// Schedule hands every reload re-render to fn instead of running it directly,
// so a host can run it on the thread that drives the element lifecycle.
func (b *TemplateBuilder) Schedule(fn func(task func())) *TemplateBuilder {
	b.schedule = fn
	return b
}

func (b *TemplateBuilder) Build(d *element.Descriptor, h element.Hooks) error {
	name := b.method
	err := d.WrapMethod(name, func(next element.Method) element.Method {
		return func(el *element.Instance, args ...any) (any, error) {
			v, err := next(el, args...)
			if err != nil || v == nil {
				return v, err
			}
			tpl, ok := v.(template.Template)
			if !ok {
				return v, fmt.Errorf("builder: method %q returned %T, not a template", name, v)
			}
			dest, err := resolveBase(el.Host(), b.shadow)
			if err != nil {
				return v, err
			}
			var params any = el
			if b.hasParams {
				params = b.parameters
			}
			return tpl, tpl.Render(dest, params)
		}
	})
	if err != nil {
		return err
	}

	if b.shadow {
		init := dom.ShadowRootInit{DelegatesFocus: b.focus}
		err := h.Before(hooks.Construct, func(el *element.Instance, _ hooks.Args) error {
			if _, ok := el.Host().ShadowRoot(); !ok {
				el.Host().AttachShadow(init)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	err = h.Before(hooks.Connect, func(el *element.Instance, _ hooks.Args) error {
		_, err := el.Call(name)
		return err
	})
	if err != nil || b.source == nil {
		return err
	}

	subs := d.Subscriptions()
	if err := h.After(hooks.Connect, func(el *element.Instance, _ hooks.Args) error {
		changes := b.source.Subscriber()
		render := func() {
			if _, err := el.Call(name); err != nil {
				el.Logger().WarnContext(el.Context(), "template re-render failed", slog.String("err", err.Error()))
			}
		}
		go func() {
			for range changes {
				if b.schedule != nil {
					b.schedule(render)
					continue
				}
				render()
			}
		}()
		subs.Add(el, b, func() { b.source.Unsubscribe(changes) })
		return nil
	}); err != nil {
		return err
	}
	return h.Before(hooks.Disconnect, func(el *element.Instance, _ hooks.Args) error {
		subs.Release(el, b)
		return nil
	})
}

var _ element.Builder = (*TemplateBuilder)(nil)
