package messaging

import (
	"context"
	"fmt"
)

// ActionHandler answers an action. Returning a nil result answers with Void.
type ActionHandler func(ctx context.Context, action Action) (AnyResult, error)

// EventListener reacts to an event.
type EventListener func(ctx context.Context, event AnyEvent) error

// Observer receives diagnostics. Observers run synchronously on the goroutine
// that produced the diagnostic and must not block.
type Observer func(d Diagnostic)

// Registration detaches a handler, listener or observer.
type Registration interface {
	Remove()
}

// RegistrationFunc adapts a function to Registration.
type RegistrationFunc func()

func (f RegistrationFunc) Remove() { f() }

// Bus dispatches actions to their handler and events to their listeners.
type Bus interface {
	// Handle registers the single handler of an action type. A second handler
	// for the same type is a configuration error.
	Handle(messageType string, handler ActionHandler) (Registration, error)

	// Execute dispatches action to its handler and waits for the result. An
	// action without handler resolves to Void. A failing handler yields a
	// *HandlerError.
	Execute(ctx context.Context, action Action) (AnyResult, error)

	// ExecuteAsync is Execute without waiting. The channel receives exactly one
	// terminal Outcome.
	ExecuteAsync(ctx context.Context, action Action) <-chan Outcome

	// Subscribe adds a listener for an event type. Duplicate listeners are
	// allowed and each fires.
	Subscribe(eventType string, listener EventListener) (Registration, error)

	// Publish delivers event to every listener registered for its type at the
	// time of the call and waits for them. Listener failures are reported as
	// diagnostics and never fail Publish.
	Publish(ctx context.Context, event AnyEvent) error

	// Observe registers an observer of diagnostics.
	Observe(fn Observer) Registration

	// Dispose releases every registration and waits for in-flight handlers
	// and listeners until ctx is done. Later calls fail with *DisposedError.
	Dispose(ctx context.Context) error
}

// State is the position of an action in its lifecycle.
type State int

const (
	Submitted State = iota
	Dispatched
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Submitted:
		return "submitted"
	case Dispatched:
		return "dispatched"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether s is Completed or Failed.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}

// Outcome is the terminal state of an executed action.
type Outcome struct {
	Action Action
	State  State
	Result AnyResult
	Err    error
}
