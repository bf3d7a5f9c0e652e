// Package ceb is the root of a fluent builder library for Custom Elements.
//
// Element classes are composed from small, independent builders that each
// register before/after interceptors on four lifecycle phases (construct,
// connect, disconnect, attributeChange) and may install properties or wrap
// methods on the shared class descriptor:
//
//	class, err := element.New("hello-world").
//	    Builder(
//	        builder.Attribute("name").Default("World"),
//	        builder.On("click button").Invoke(onClick),
//	        builder.Template().Method("render"),
//	    ).
//	    Compose()
//
// The DOM itself is an external collaborator described by package dom; the
// core never matches selectors or renders markup.
//
// Package messaging provides the in-memory command/query/event bus that
// elements use to talk to each other, with messaging/memory as the default
// implementation and messaging/redis as an optional cross-process relay.
package ceb
