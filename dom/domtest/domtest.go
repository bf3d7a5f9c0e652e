// Package domtest provides an in-memory dom.Element for tests and examples.
//
// It performs no selector parsing: children are registered under the exact
// selector strings they should answer to.
package domtest

import (
	"slices"
	"sync"

	"github.com/ggoodman/ceb-go/dom"
)

type listener struct {
	fn      dom.Listener
	capture bool
}

type node struct {
	mu         sync.Mutex
	parent     *node
	bySelector map[string][]*Element
	listeners  map[string][]*listener
	innerHTML  string
	renders    int
}

func newNode() *node {
	return &node{
		bySelector: make(map[string][]*Element),
		listeners:  make(map[string][]*listener),
	}
}

func (n *node) QuerySelector(selector string) (dom.Element, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if els := n.bySelector[selector]; len(els) > 0 {
		return els[0], true
	}
	return nil, false
}

func (n *node) QuerySelectorAll(selector string) []dom.Element {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]dom.Element, 0, len(n.bySelector[selector]))
	for _, el := range n.bySelector[selector] {
		out = append(out, el)
	}
	return out
}

func (n *node) Contains(other dom.Node) bool {
	for cur := nodeOf(other); cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}

func (n *node) AddEventListener(eventType string, fn dom.Listener, opts dom.ListenerOptions) func() {
	l := &listener{fn: fn, capture: opts.Capture}
	n.mu.Lock()
	n.listeners[eventType] = append(n.listeners[eventType], l)
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		n.listeners[eventType] = slices.DeleteFunc(n.listeners[eventType], func(c *listener) bool { return c == l })
	}
}

func (n *node) SetInnerHTML(markup string) {
	n.mu.Lock()
	n.innerHTML = markup
	n.renders++
	n.mu.Unlock()
}

// InnerHTML returns the last markup rendered into the node.
func (n *node) InnerHTML() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.innerHTML
}

// Renders counts SetInnerHTML calls.
func (n *node) Renders() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.renders
}

// ListenerCount returns the number of listeners attached for eventType.
func (n *node) ListenerCount(eventType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners[eventType])
}

func (n *node) append(selector string, child *Element) {
	n.mu.Lock()
	defer n.mu.Unlock()
	child.parent = n
	n.bySelector[selector] = append(n.bySelector[selector], child)
}

func (n *node) snapshot(eventType string, capture bool) []dom.Listener {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []dom.Listener
	for _, l := range n.listeners[eventType] {
		if l.capture == capture {
			out = append(out, l.fn)
		}
	}
	return out
}

func nodeOf(n dom.Node) *node {
	switch v := n.(type) {
	case *Element:
		return v.node
	case *Root:
		return v.node
	}
	return nil
}

// Root is a shadow root.
type Root struct {
	*node
	host *Element
}

// Host returns the element the root is attached to.
func (r *Root) Host() *Element { return r.host }

// Append registers child as a descendant answering to selector.
func (r *Root) Append(selector string, child *Element) *Element {
	r.node.append(selector, child)
	return child
}

// Element is a fake dom.Element.
type Element struct {
	*node

	tag    string
	attrs  map[string]string
	props  map[string]any
	shadow *Root
	init   dom.ShadowRootInit
}

// NewElement returns a detached element with the given tag name.
func NewElement(tag string) *Element {
	e := &Element{
		node:  newNode(),
		tag:   tag,
		attrs: make(map[string]string),
		props: make(map[string]any),
	}
	return e
}

// Append registers child as a descendant answering to selector and returns it.
func (e *Element) Append(selector string, child *Element) *Element {
	e.node.append(selector, child)
	return child
}

func (e *Element) TagName() string { return e.tag }

func (e *Element) GetAttribute(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.attrs[name]
	return v, ok
}

func (e *Element) SetAttribute(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs[name] = value
}

func (e *Element) RemoveAttribute(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.attrs, name)
}

func (e *Element) HasAttribute(name string) bool {
	_, ok := e.GetAttribute(name)
	return ok
}

func (e *Element) GetProperty(name string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.props[name]
	return v, ok
}

func (e *Element) SetProperty(name string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.props[name] = value
}

func (e *Element) ShadowRoot() (dom.Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shadow == nil {
		return nil, false
	}
	return e.shadow, true
}

// Shadow returns the concrete shadow root, or nil.
func (e *Element) Shadow() *Root {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shadow
}

func (e *Element) AttachShadow(init dom.ShadowRootInit) dom.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shadow == nil {
		root := &Root{node: newNode(), host: e}
		root.node.parent = e.node
		e.shadow = root
		e.init = init
	}
	return e.shadow
}

// ShadowInit returns the options the shadow root was attached with.
func (e *Element) ShadowInit() dom.ShadowRootInit {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.init
}

// Event is a fake dom.Event.
type Event struct {
	typ              string
	target           dom.Node
	DefaultPrevented bool
	Stopped          bool
}

func (e *Event) Type() string     { return e.typ }
func (e *Event) Target() dom.Node { return e.target }
func (e *Event) PreventDefault()  { e.DefaultPrevented = true }
func (e *Event) StopPropagation() { e.Stopped = true }

// Dispatch fires an event of eventType at target, running capture listeners
// from the outermost ancestor inwards and then bubbling listeners from the
// target outwards.
func Dispatch(target dom.Node, eventType string) *Event {
	evt := &Event{typ: eventType, target: target}

	var path []*node
	for cur := nodeOf(target); cur != nil; cur = cur.parent {
		path = append(path, cur)
	}

	for i := len(path) - 1; i >= 0 && !evt.Stopped; i-- {
		for _, fn := range path[i].snapshot(eventType, true) {
			fn(evt)
		}
	}
	for i := 0; i < len(path) && !evt.Stopped; i++ {
		for _, fn := range path[i].snapshot(eventType, false) {
			fn(evt)
		}
	}
	return evt
}

var (
	_ dom.Element = (*Element)(nil)
	_ dom.Node    = (*Root)(nil)
	_ dom.Event   = (*Event)(nil)
)
