package messaging

import (
	"context"
	"fmt"
)

// HandleFunc registers a handler accepting actions of Go type A and
// answering with results of Go type R.
func HandleFunc[A Action, R AnyResult](bus Bus, messageType string, fn func(ctx context.Context, action A) (R, error)) (Registration, error) {
	return bus.Handle(messageType, func(ctx context.Context, action Action) (AnyResult, error) {
		a, ok := action.(A)
		if !ok {
			return nil, fmt.Errorf("%w: %s handler got %T", ErrUnexpectedMessage, messageType, action)
		}
		r, err := fn(ctx, a)
		if err != nil || IsVoid(r) {
			return nil, err
		}
		return r, nil
	})
}

// SubscribeFunc registers a listener for events of Go type E.
func SubscribeFunc[E AnyEvent](bus Bus, eventType string, fn func(ctx context.Context, event E) error) (Registration, error) {
	return bus.Subscribe(eventType, func(ctx context.Context, event AnyEvent) error {
		e, ok := event.(E)
		if !ok {
			return fmt.Errorf("%w: %s listener got %T", ErrUnexpectedMessage, eventType, event)
		}
		return fn(ctx, e)
	})
}

// ExecuteAs executes action and returns its result as R. A Void result
// yields the zero R and no error.
func ExecuteAs[R AnyResult](ctx context.Context, bus Bus, action Action) (R, error) {
	var zero R
	res, err := bus.Execute(ctx, action)
	if err != nil {
		return zero, err
	}
	if IsVoid(res) {
		return zero, nil
	}
	r, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: want %T, got %T", ErrUnexpectedResult, zero, res)
	}
	return r, nil
}
