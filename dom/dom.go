// Package dom describes the host capability surface the element core hooks
// into. Implementations live in the host runtime (a browser bridge, a server
// side renderer, a test fake); this package only declares what the builders
// are allowed to ask of them.
//
// Selector matching is entirely the host's concern: the core passes selector
// strings through verbatim.
package dom

// Listener receives dispatched events.
type Listener func(evt Event)

// ListenerOptions mirrors the options bag of addEventListener.
type ListenerOptions struct {
	Capture bool
}

// ShadowRootInit configures AttachShadow.
type ShadowRootInit struct {
	DelegatesFocus bool
}

// Node is anything that can hold children, receive listeners and be rendered into.
type Node interface {
	// QuerySelector returns the first descendant matching selector.
	QuerySelector(selector string) (Element, bool)
	// QuerySelectorAll returns every descendant matching selector, in document order.
	QuerySelectorAll(selector string) []Element
	// Contains reports whether other is this node or one of its descendants.
	Contains(other Node) bool
	// AddEventListener attaches fn and returns the function that detaches it.
	AddEventListener(eventType string, fn Listener, opts ListenerOptions) (remove func())
	// SetInnerHTML replaces the children of the node with the given markup.
	SetInnerHTML(markup string)
}

// Element is a Node with attributes, properties and an optional shadow root.
type Element interface {
	Node

	TagName() string

	GetAttribute(name string) (string, bool)
	SetAttribute(name, value string)
	RemoveAttribute(name string)
	HasAttribute(name string) bool

	GetProperty(name string) (any, bool)
	SetProperty(name string, value any)

	ShadowRoot() (Node, bool)
	AttachShadow(init ShadowRootInit) Node
}

// Event is the subset of the DOM Event interface builders rely on.
type Event interface {
	Type() string
	Target() Node
	PreventDefault()
	StopPropagation()
}
