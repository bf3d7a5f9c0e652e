package builder

import (
	"context"

	"github.com/ggoodman/ceb-go"
	"github.com/ggoodman/ceb-go/element"
	"github.com/ggoodman/ceb-go/hooks"
	"github.com/ggoodman/ceb-go/messaging"
)

// BusListener reacts to a bus event on behalf of a connected element.
type BusListener func(ctx context.Context, el *element.Instance, event messaging.AnyEvent) error

// SubscribeBuilder listens to bus events while the element is connected.
type SubscribeBuilder struct {
	bus       messaging.Bus
	eventType string
	listener  BusListener
}

// Subscribe returns a builder listening to events of eventType on bus.
func Subscribe(bus messaging.Bus, eventType string) *SubscribeBuilder {
	return &SubscribeBuilder{bus: bus, eventType: eventType}
}

// Invoke sets the listener.
func (b *SubscribeBuilder) Invoke(fn BusListener) *SubscribeBuilder {
	b.listener = fn
	return b
}

func (b *SubscribeBuilder) Build(d *element.Descriptor, h element.Hooks) error {
	switch {
	case b.bus == nil:
		return ceb.Configurationf("builder", "subscription to %q has no bus", b.eventType)
	case b.eventType == "":
		return ceb.Configurationf("builder", "subscription without event type")
	case b.listener == nil:
		return ceb.Configurationf("builder", "subscription to %q has no listener", b.eventType)
	}
	subs := d.Subscriptions()

	err := h.After(hooks.Connect, func(el *element.Instance, _ hooks.Args) error {
		reg, err := b.bus.Subscribe(b.eventType, func(ctx context.Context, evt messaging.AnyEvent) error {
			return b.listener(ctx, el, evt)
		})
		if err != nil {
			return err
		}
		subs.Add(el, b, reg.Remove)
		return nil
	})
	if err != nil {
		return err
	}
	return h.Before(hooks.Disconnect, func(el *element.Instance, _ hooks.Args) error {
		subs.Release(el, b)
		return nil
	})
}

var _ element.Builder = (*SubscribeBuilder)(nil)
