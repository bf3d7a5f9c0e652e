package element

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ggoodman/ceb-go/dom"
	"github.com/ggoodman/ceb-go/hooks"
)

// Instance is one live element of a Class. Lifecycle callbacks are expected
// to be invoked by the host on a single logical thread; property access is
// safe from any goroutine.
type Instance struct {
	class *Class
	host  dom.Element
	id    string
	ctx   context.Context

	mu        sync.RWMutex
	slots     map[string]any
	connected bool
}

// Class returns the class the instance was created from.
func (el *Instance) Class() *Class { return el.class }

// Host returns the host element the instance is bound to.
func (el *Instance) Host() dom.Element { return el.host }

// ID is unique among the instances of a class.
func (el *Instance) ID() string { return el.id }

// Context carries the element identity for log correlation.
func (el *Instance) Context() context.Context { return el.ctx }

// Logger returns the class logger.
func (el *Instance) Logger() *slog.Logger { return el.class.log }

// Connected reports whether the last Connect succeeded and was not followed
// by Disconnect.
func (el *Instance) Connected() bool {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.connected
}

// Connect runs the connect phase. A failing interceptor aborts the phase and
// leaves the instance disconnected; subscriptions acquired by the interceptors
// that already ran are released so a later Connect starts clean.
func (el *Instance) Connect() error {
	if err := el.run(hooks.Connect, hooks.Args{}); err != nil {
		if n := el.class.subs.ReleaseAll(el); n > 0 {
			el.class.log.DebugContext(el.ctx, "released subscriptions of failed connect", slog.Int("count", n))
		}
		return err
	}
	el.mu.Lock()
	el.connected = true
	el.mu.Unlock()
	return nil
}

// Disconnect runs the disconnect phase. Every teardown step runs even if an
// earlier one fails; failures are logged and returned joined. Subscriptions
// still held for the instance afterwards are released.
func (el *Instance) Disconnect() error {
	reg := el.class.hooks
	var errs []error

	if err := reg.Invoke(hooks.Disconnect, hooks.Before, el, hooks.Args{}); err != nil {
		errs = append(errs, err)
	}
	if err := el.class.base.base(hooks.Disconnect)(el, hooks.Args{}); err != nil {
		errs = append(errs, err)
	}
	if err := reg.Invoke(hooks.Disconnect, hooks.After, el, hooks.Args{}); err != nil {
		errs = append(errs, err)
	}
	if n := el.class.subs.ReleaseAll(el); n > 0 {
		el.class.log.DebugContext(el.ctx, "released leftover subscriptions", slog.Int("count", n))
	}

	el.mu.Lock()
	el.connected = false
	el.mu.Unlock()

	if len(errs) == 0 {
		return nil
	}
	err := &LifecycleError{Tag: el.class.tag, Phase: hooks.Disconnect, Err: errors.Join(errs...)}
	el.class.log.WarnContext(el.ctx, "element teardown reported errors", slog.String("err", err.Error()))
	return err
}

// AttributeChanged runs the attributeChange phase for an observed attribute.
// Changes to attributes the class does not observe are ignored. A nil value
// means the attribute is absent.
func (el *Instance) AttributeChanged(name string, oldValue, newValue *string) error {
	if !el.observes(name) {
		return nil
	}
	return el.run(hooks.AttributeChange, hooks.Args{Name: name, OldValue: oldValue, NewValue: newValue})
}

func (el *Instance) observes(name string) bool {
	for _, o := range el.class.observed {
		if o == name {
			return true
		}
	}
	return false
}

// run executes before interceptors, base behaviour and after interceptors.
func (el *Instance) run(phase hooks.Phase, args hooks.Args) error {
	reg := el.class.hooks
	wrap := func(err error) error {
		return &LifecycleError{Tag: el.class.tag, Phase: phase, Err: err}
	}

	if err := reg.Invoke(phase, hooks.Before, el, args); err != nil {
		return wrap(err)
	}
	if err := el.class.base.base(phase)(el, args); err != nil {
		return wrap(err)
	}
	if err := reg.Invoke(phase, hooks.After, el, args); err != nil {
		return wrap(err)
	}
	return nil
}

// Get reads a property. Undefined names fall back to the raw slot.
func (el *Instance) Get(name string) (any, bool) {
	if p, ok := el.class.props[name]; ok && p.Get != nil {
		return p.Get(el), true
	}
	return el.Slot(name)
}

// Prop returns the value of a property, or nil when it has none. It is meant
// for templates, which cannot call two-valued methods.
func (el *Instance) Prop(name string) any {
	v, _ := el.Get(name)
	return v
}

// Set writes a property through its setter. Undefined names write the slot.
func (el *Instance) Set(name string, value any) error {
	p, ok := el.class.props[name]
	if !ok {
		el.SetSlot(name, value)
		return nil
	}
	if p.ReadOnly {
		return fmt.Errorf("%w: <%s>.%s", ErrReadOnly, el.class.tag, name)
	}
	if p.Set != nil {
		return p.Set(el, value)
	}
	el.SetSlot(name, value)
	return nil
}

// Slot reads the raw backing value of name, bypassing accessors.
func (el *Instance) Slot(name string) (any, bool) {
	el.mu.RLock()
	defer el.mu.RUnlock()
	v, ok := el.slots[name]
	return v, ok
}

// SetSlot writes the raw backing value of name, bypassing accessors.
func (el *Instance) SetSlot(name string, value any) {
	el.mu.Lock()
	el.slots[name] = value
	el.mu.Unlock()
}

// Call invokes the resolved method chain registered under name.
func (el *Instance) Call(name string, args ...any) (any, error) {
	m, ok := el.class.methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: <%s>.%s", ErrNoMethod, el.class.tag, name)
	}
	return m(el, args...)
}
