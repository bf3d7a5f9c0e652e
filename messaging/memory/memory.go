// Package memory provides the in-process implementation of messaging.Bus.
// Handlers and listeners run on their own goroutines; registries are guarded
// by a read-write mutex.
package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/joeshaw/envdecode"

	"github.com/ggoodman/ceb-go"
	"github.com/ggoodman/ceb-go/internal/logctx"
	"github.com/ggoodman/ceb-go/messaging"
)

// Config can be loaded from the environment with NewFromEnv.
type Config struct {
	// ErrorsToLog logs handler and listener failures at error level.
	// ENV: CEB_BUS_ERRORS_TO_LOG
	ErrorsToLog bool `env:"CEB_BUS_ERRORS_TO_LOG,default=false"`
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogHandler sets the handler for bus logs. Logs are discarded by default.
func WithLogHandler(h slog.Handler) Option {
	return func(b *Bus) { b.log = slog.New(logctx.Wrap(h)) }
}

// WithErrorsToLog logs every ActionHandlerFailed and EventListenerFailed
// diagnostic.
func WithErrorsToLog(enabled bool) Option {
	return func(b *Bus) { b.errorsToLog = enabled }
}

type handlerEntry struct {
	fn messaging.ActionHandler
}

type listenerEntry struct {
	fn messaging.EventListener
}

type observerEntry struct {
	fn messaging.Observer
}

// Bus is an in-memory messaging.Bus.
type Bus struct {
	log         *slog.Logger
	errorsToLog bool

	mu        sync.RWMutex
	handlers  map[string]*handlerEntry
	listeners map[string][]*listenerEntry
	observers []*observerEntry
	disposed  bool

	inflight sync.WaitGroup
}

// New returns an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		log:       slog.New(slog.DiscardHandler),
		handlers:  make(map[string]*handlerEntry),
		listeners: make(map[string][]*listenerEntry),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewFromEnv returns a bus configured from the environment. Options are
// applied after the environment.
func NewFromEnv(opts ...Option) (*Bus, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("memory bus config: %w", err)
	}
	return New(append([]Option{WithErrorsToLog(cfg.ErrorsToLog)}, opts...)...), nil
}

func (b *Bus) Handle(messageType string, handler messaging.ActionHandler) (messaging.Registration, error) {
	if messageType == "" {
		return nil, ceb.Configurationf("messaging", "handler registered without message type")
	}
	if handler == nil {
		return nil, ceb.Configurationf("messaging", "nil handler for %q", messageType)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed {
		return nil, &messaging.DisposedError{Op: "handle"}
	}
	if _, ok := b.handlers[messageType]; ok {
		return nil, ceb.Configurationf("messaging", "a handler is already registered for %q", messageType)
	}
	entry := &handlerEntry{fn: handler}
	b.handlers[messageType] = entry

	return messaging.RegistrationFunc(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.handlers[messageType] == entry {
			delete(b.handlers, messageType)
		}
	}), nil
}

func (b *Bus) Subscribe(eventType string, listener messaging.EventListener) (messaging.Registration, error) {
	if eventType == "" {
		return nil, ceb.Configurationf("messaging", "listener registered without event type")
	}
	if listener == nil {
		return nil, ceb.Configurationf("messaging", "nil listener for %q", eventType)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed {
		return nil, &messaging.DisposedError{Op: "subscribe"}
	}
	entry := &listenerEntry{fn: listener}
	b.listeners[eventType] = append(b.listeners[eventType], entry)

	return messaging.RegistrationFunc(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.listeners[eventType] = slices.DeleteFunc(b.listeners[eventType], func(e *listenerEntry) bool { return e == entry })
		if len(b.listeners[eventType]) == 0 {
			delete(b.listeners, eventType)
		}
	}), nil
}

func (b *Bus) Observe(fn messaging.Observer) messaging.Registration {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed || fn == nil {
		return messaging.RegistrationFunc(func() {})
	}
	entry := &observerEntry{fn: fn}
	b.observers = append(b.observers, entry)

	return messaging.RegistrationFunc(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.observers = slices.DeleteFunc(b.observers, func(e *observerEntry) bool { return e == entry })
	})
}

func (b *Bus) Execute(ctx context.Context, action messaging.Action) (messaging.AnyResult, error) {
	select {
	case o := <-b.ExecuteAsync(ctx, action):
		return o.Result, o.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *Bus) ExecuteAsync(ctx context.Context, action messaging.Action) <-chan messaging.Outcome {
	out := make(chan messaging.Outcome, 1)
	fail := func(err error) <-chan messaging.Outcome {
		out <- messaging.Outcome{Action: action, State: messaging.Failed, Err: err}
		return out
	}

	if err := messaging.ValidateMessage(action); err != nil {
		return fail(err)
	}
	headers := action.MessageHeaders()

	b.mu.RLock()
	if b.disposed {
		b.mu.RUnlock()
		return fail(&messaging.DisposedError{Op: "execute"})
	}
	entry := b.handlers[headers.MessageType]
	b.inflight.Add(1)
	b.mu.RUnlock()

	b.transition(action, messaging.Submitted)

	if entry == nil {
		defer b.inflight.Done()
		b.log.DebugContext(messageContext(ctx, action), "no handler registered, resolving with void result")
		b.transition(action, messaging.Completed)
		out <- messaging.Outcome{Action: action, State: messaging.Completed, Result: messaging.Void}
		return out
	}

	go func() {
		defer b.inflight.Done()
		b.transition(action, messaging.Dispatched)

		res, err := callHandler(ctx, entry.fn, action)
		if err != nil {
			herr := &messaging.HandlerError{Headers: headers}
			if perr, ok := err.(panicError); ok {
				herr.Panic = perr.value
			} else {
				herr.Err = err
			}
			b.emit(messaging.ActionHandlerFailed{Action: action, Err: herr})
			if b.errorsToLog {
				b.log.ErrorContext(messageContext(ctx, action), "action handler failed",
					slog.String("message", identifier(headers)),
					slog.String("err", herr.Error()),
				)
			}
			b.transition(action, messaging.Failed)
			out <- messaging.Outcome{Action: action, State: messaging.Failed, Err: herr}
			return
		}
		if messaging.IsVoid(res) {
			res = messaging.Void
		}
		b.transition(action, messaging.Completed)
		out <- messaging.Outcome{Action: action, State: messaging.Completed, Result: res}
	}()
	return out
}

func (b *Bus) Publish(ctx context.Context, event messaging.AnyEvent) error {
	if err := messaging.ValidateMessage(event); err != nil {
		return err
	}
	headers := event.MessageHeaders()

	b.mu.RLock()
	if b.disposed {
		b.mu.RUnlock()
		return &messaging.DisposedError{Op: "publish"}
	}
	entries := slices.Clone(b.listeners[headers.MessageType])
	b.inflight.Add(len(entries))
	b.mu.RUnlock()

	if len(entries) == 0 {
		b.log.DebugContext(messageContext(ctx, event), "event has no listener")
		return nil
	}

	var wg sync.WaitGroup
	for _, entry := range entries {
		wg.Add(1)
		go func() {
			defer b.inflight.Done()
			defer wg.Done()
			if err := callListener(ctx, entry.fn, event); err != nil {
				b.emit(messaging.EventListenerFailed{Event: event, Err: err})
				if b.errorsToLog {
					b.log.ErrorContext(messageContext(ctx, event), "event listener failed",
						slog.String("message", identifier(headers)),
						slog.String("err", err.Error()),
					)
				}
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) Dispose(ctx context.Context) error {
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return nil
	}
	b.disposed = true
	b.handlers = make(map[string]*handlerEntry)
	b.listeners = make(map[string][]*listenerEntry)
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	b.mu.Lock()
	b.observers = nil
	b.mu.Unlock()
	b.log.Debug("bus disposed")
	return err
}

func (b *Bus) transition(action messaging.Action, state messaging.State) {
	b.emit(messaging.ActionStateChanged{Action: action, State: state})
}

func (b *Bus) emit(d messaging.Diagnostic) {
	b.mu.RLock()
	observers := slices.Clone(b.observers)
	b.mu.RUnlock()

	for _, o := range observers {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					b.log.Debug("diagnostic observer panicked",
						slog.String("diagnostic", d.DiagnosticName()),
						slog.String("err", fmt.Sprint(rec)),
					)
				}
			}()
			o.fn(d)
		}()
	}
}

type panicError struct {
	value any
}

func (p panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }

func callHandler(ctx context.Context, fn messaging.ActionHandler, action messaging.Action) (res messaging.AnyResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			res, err = nil, panicError{value: rec}
		}
	}()
	return fn(ctx, action)
}

func callListener(ctx context.Context, fn messaging.EventListener, event messaging.AnyEvent) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = panicError{value: rec}
		}
	}()
	return fn(ctx, event)
}

func identifier(h messaging.Headers) string {
	return h.MessageType + "/" + h.MessageID
}

func messageContext(ctx context.Context, m messaging.Message) context.Context {
	h := m.MessageHeaders()
	return logctx.WithMessageData(ctx, &logctx.MessageData{
		Kind:          string(m.MessageKind()),
		Type:          h.MessageType,
		ID:            h.MessageID,
		CausationID:   h.CausationID,
		CorrelationID: h.CorrelationID,
	})
}

var _ messaging.Bus = (*Bus)(nil)
