package messaging

// Diagnostic is a side-channel report of the bus.
type Diagnostic interface {
	DiagnosticName() string
}

// ActionHandlerFailed is emitted when an action handler fails.
type ActionHandlerFailed struct {
	Action Action
	Err    error
}

func (ActionHandlerFailed) DiagnosticName() string { return "action_handler_failed" }

// EventListenerFailed is emitted for each failing event listener.
type EventListenerFailed struct {
	Event AnyEvent
	Err   error
}

func (EventListenerFailed) DiagnosticName() string { return "event_listener_failed" }

// ActionStateChanged is emitted on every lifecycle transition of an action.
type ActionStateChanged struct {
	Action Action
	State  State
}

func (ActionStateChanged) DiagnosticName() string { return "action_state_changed" }
