package builder

import (
	"sync"

	"github.com/ggoodman/ceb-go"
	"github.com/ggoodman/ceb-go/element"
	"github.com/ggoodman/ceb-go/hooks"
)

// Observer consumes the values written to a property. The channel is closed
// when the element disconnects.
type Observer func(el *element.Instance, values <-chan any)

// ObserveBuilder streams writes of a property to an Observer while the
// element is connected. A slow observer only sees the latest unread value.
type ObserveBuilder struct {
	prop     string
	observer Observer

	mu      sync.Mutex
	streams map[*element.Instance]*stream
}

// Observe returns a builder streaming writes of the property name. The
// property must be defined by an earlier builder.
func Observe(name string) *ObserveBuilder {
	return &ObserveBuilder{prop: name, streams: make(map[*element.Instance]*stream)}
}

// Invoke sets the observer started on every connect.
func (b *ObserveBuilder) Invoke(fn Observer) *ObserveBuilder {
	b.observer = fn
	return b
}

func (b *ObserveBuilder) Build(d *element.Descriptor, h element.Hooks) error {
	switch {
	case b.prop == "":
		return ceb.Configurationf("builder", "observed property name is missing")
	case b.observer == nil:
		return ceb.Configurationf("builder", "property %q has no observer", b.prop)
	}
	p, ok := d.Property(b.prop)
	if !ok {
		return ceb.Configurationf("builder", "observed property %q is not defined", b.prop)
	}
	if p.ReadOnly || p.Set == nil {
		return ceb.Configurationf("builder", "observed property %q is read-only", b.prop)
	}

	set := p.Set
	p.Set = func(el *element.Instance, value any) error {
		if err := set(el, value); err != nil {
			return err
		}
		if s := b.stream(el); s != nil {
			s.push(value)
		}
		return nil
	}
	if err := d.DefineProperty(b.prop, p); err != nil {
		return err
	}

	subs := d.Subscriptions()
	err := h.After(hooks.Connect, func(el *element.Instance, _ hooks.Args) error {
		s := &stream{ch: make(chan any, 1)}
		b.mu.Lock()
		b.streams[el] = s
		b.mu.Unlock()

		go b.observer(el, s.ch)
		subs.Add(el, b, func() {
			b.mu.Lock()
			delete(b.streams, el)
			b.mu.Unlock()
			s.close()
		})
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

func (b *ObserveBuilder) stream(el *element.Instance) *stream {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.streams[el]
}

type stream struct {
	mu     sync.Mutex
	ch     chan any
	closed bool
}

// push delivers v, replacing an unread value.
func (s *stream) push(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- v:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- v
}

func (s *stream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

var _ element.Builder = (*ObserveBuilder)(nil)
