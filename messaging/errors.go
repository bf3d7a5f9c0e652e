package messaging

import (
	"errors"
	"fmt"
)

var (
	// ErrDisposed is matched by every *DisposedError.
	ErrDisposed = errors.New("messaging: bus disposed")
	// ErrUnexpectedResult is returned by ExecuteAs when the result has
	// another type than requested.
	ErrUnexpectedResult = errors.New("messaging: unexpected result type")
	// ErrUnexpectedMessage is returned by typed handlers and listeners
	// receiving a message of another Go type than they accept.
	ErrUnexpectedMessage = errors.New("messaging: unexpected message type")
	// ErrInvalidMessage is returned for nil messages and messages without a
	// message type.
	ErrInvalidMessage = errors.New("messaging: invalid message")
)

// HandlerError reports a failed action handler. Recovered panics are
// reported with Panic set.
type HandlerError struct {
	Headers Headers
	Err     error
	Panic   any
}

func (e *HandlerError) Error() string {
	id := e.Headers.MessageType + "/" + e.Headers.MessageID
	if e.Panic != nil {
		return fmt.Sprintf("messaging: handler of %s panicked: %v", id, e.Panic)
	}
	return fmt.Sprintf("messaging: handler of %s failed: %v", id, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// DisposedError is returned by operations on a disposed bus.
type DisposedError struct {
	Op string
}

func (e *DisposedError) Error() string {
	return fmt.Sprintf("messaging: %s on disposed bus", e.Op)
}

func (e *DisposedError) Is(target error) bool { return target == ErrDisposed }

// ValidateMessage checks that m can be dispatched.
func ValidateMessage(m Message) error {
	if m == nil {
		return fmt.Errorf("%w: nil message", ErrInvalidMessage)
	}
	if m.MessageHeaders().MessageType == "" {
		return fmt.Errorf("%w: missing message type", ErrInvalidMessage)
	}
	return nil
}
