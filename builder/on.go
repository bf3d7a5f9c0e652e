package builder

import (
	"errors"
	"strings"

	"github.com/ggoodman/ceb-go"
	"github.com/ggoodman/ceb-go/dom"
	"github.com/ggoodman/ceb-go/element"
	"github.com/ggoodman/ceb-go/hooks"
)

// ErrNoShadowRoot is returned when a builder targets the shadow root of a
// host that has none.
var ErrNoShadowRoot = errors.New("builder: host has no shadow root")

// OnListener handles a DOM event. target is the node matched by the
// delegation selector, or the host when the builder does not delegate.
type OnListener func(el *element.Instance, evt dom.Event, target dom.Node)

type clause struct {
	event    string
	selector string
}

// OnBuilder attaches DOM event listeners while the element is connected.
type OnBuilder struct {
	clauses  string
	listener OnListener
	capture  bool
	prevent  bool
	stop     bool
	delegate string
	shadow   bool
}

// On returns a builder for the comma separated clauses. A clause is an event
// type optionally followed by a selector: "click", "input input.name".
func On(clauses string) *OnBuilder {
	return &OnBuilder{clauses: clauses}
}

// Invoke sets the listener.
func (b *OnBuilder) Invoke(fn OnListener) *OnBuilder {
	b.listener = fn
	return b
}

// Capture listens during the capture phase.
func (b *OnBuilder) Capture() *OnBuilder {
	b.capture = true
	return b
}

// Prevent calls PreventDefault on matching events.
func (b *OnBuilder) Prevent() *OnBuilder {
	b.prevent = true
	return b
}

// Stop calls StopPropagation on matching events.
func (b *OnBuilder) Stop() *OnBuilder {
	b.stop = true
	return b
}

// Skip is Prevent and Stop.
func (b *OnBuilder) Skip() *OnBuilder {
	return b.Prevent().Stop()
}

// Delegate only handles events whose target is, or is inside, a node matching
// selector. The matched node is passed to the listener.
func (b *OnBuilder) Delegate(selector string) *OnBuilder {
	b.delegate = selector
	return b
}

// Shadow resolves selectors inside the host's shadow root.
func (b *OnBuilder) Shadow() *OnBuilder {
	b.shadow = true
	return b
}

func parseClauses(s string) ([]clause, error) {
	var out []clause
	for _, raw := range strings.Split(s, ",") {
		fields := strings.Fields(raw)
		if len(fields) == 0 {
			return nil, ceb.Configurationf("builder", "empty event clause in %q", s)
		}
		out = append(out, clause{event: fields[0], selector: strings.Join(fields[1:], " ")})
	}
	return out, nil
}

func (b *OnBuilder) Build(d *element.Descriptor, h element.Hooks) error {
	if strings.TrimSpace(b.clauses) == "" {
		return ceb.Configurationf("builder", "event clauses are missing")
	}
	clauses, err := parseClauses(b.clauses)
	if err != nil {
		return err
	}
	subs := d.Subscriptions()

	err = h.Before(hooks.Connect, func(el *element.Instance, _ hooks.Args) error {
		base, err := resolveBase(el.Host(), b.shadow)
		if err != nil {
			return err
		}
		listener := b.dispatch(el, base)
		opts := dom.ListenerOptions{Capture: b.capture}
		for _, c := range clauses {
			var target dom.Node = base
			if c.selector != "" {
				found, ok := base.QuerySelector(c.selector)
				if !ok {
					continue
				}
				target = found
			}
			subs.Add(el, b, target.AddEventListener(c.event, listener, opts))
		}
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

func (b *OnBuilder) dispatch(el *element.Instance, base dom.Node) dom.Listener {
	return func(evt dom.Event) {
		var target dom.Node = el.Host()
		if b.delegate != "" {
			target = nil
			for _, candidate := range base.QuerySelectorAll(b.delegate) {
				if candidate.Contains(evt.Target()) {
					target = candidate
					break
				}
			}
			if target == nil {
				return
			}
		}
		if b.stop {
			evt.StopPropagation()
		}
		if b.prevent {
			evt.PreventDefault()
		}
		if b.listener != nil {
			b.listener(el, evt, target)
		}
	}
}

func resolveBase(host dom.Element, shadow bool) (dom.Node, error) {
	if !shadow {
		return host, nil
	}
	root, ok := host.ShadowRoot()
	if !ok {
		return nil, ErrNoShadowRoot
	}
	return root, nil
}

var _ element.Builder = (*OnBuilder)(nil)
