// Package messagingtest provides a conformance suite for messaging.Bus
// implementations.
package messagingtest

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ggoodman/ceb-go"
	"github.com/ggoodman/ceb-go/messaging"
)

// BusFactory creates a fresh bus for one test.
type BusFactory func(t *testing.T) messaging.Bus

// CommandA is a command carrying a string body.
type CommandA struct {
	messaging.Command[string]
}

// NewCommandA returns a CommandA with fresh headers.
func NewCommandA(body string) *CommandA {
	return &CommandA{Command: *messaging.NewCommand("CommandA", body)}
}

// QueryA is a query carrying a string body.
type QueryA struct {
	messaging.Query[string]
}

// NewQueryA returns a QueryA with fresh headers.
func NewQueryA(body string) *QueryA {
	return &QueryA{Query: *messaging.NewQuery("QueryA", body)}
}

// ResultA answers CommandA and QueryA.
type ResultA struct {
	messaging.Result[string]
}

// NewResultA returns a ResultA caused by action.
func NewResultA(action messaging.Action, body string) *ResultA {
	return &ResultA{Result: *messaging.NewResult("ResultA", action, body)}
}

// ResultB is a result type distinct from ResultA.
type ResultB struct {
	messaging.Result[int]
}

// EventA is an event carrying a string body.
type EventA struct {
	messaging.Event[string]
}

// NewEventA returns an EventA with fresh headers.
func NewEventA(body string) *EventA {
	return &EventA{Event: *messaging.NewEvent("EventA", body)}
}

// RunBusTests runs the complete bus test suite against the provided factory.
func RunBusTests(t *testing.T, factory BusFactory) {
	t.Run("ExecuteWithoutHandlerResolvesVoid", func(t *testing.T) {
		testExecuteWithoutHandler(t, factory)
	})
	t.Run("NilHandlerResultResolvesVoid", func(t *testing.T) {
		testNilHandlerResult(t, factory)
	})
	t.Run("ExecuteReturnsHandlerResult", func(t *testing.T) {
		testExecuteReturnsHandlerResult(t, factory)
	})
	t.Run("QueryWithUnexpectedResultType", func(t *testing.T) {
		testQueryWithUnexpectedResultType(t, factory)
	})
	t.Run("DuplicateHandlerIsConfigurationError", func(t *testing.T) {
		testDuplicateHandler(t, factory)
	})
	t.Run("HandlerErrorFailsExecution", func(t *testing.T) {
		testHandlerError(t, factory)
	})
	t.Run("HandlerPanicFailsExecution", func(t *testing.T) {
		testHandlerPanic(t, factory)
	})
	t.Run("ExecuteAsyncReportsLifecycle", func(t *testing.T) {
		testExecuteAsyncLifecycle(t, factory)
	})
	t.Run("PublishFansOutSameInstance", func(t *testing.T) {
		testPublishFanOut(t, factory)
	})
	t.Run("ListenerFailureDoesNotStopFanOut", func(t *testing.T) {
		testListenerFailure(t, factory)
	})
	t.Run("DuplicateListenersBothFire", func(t *testing.T) {
		testDuplicateListeners(t, factory)
	})
	t.Run("RemoveRegistrations", func(t *testing.T) {
		testRemoveRegistrations(t, factory)
	})
	t.Run("InvalidMessages", func(t *testing.T) {
		testInvalidMessages(t, factory)
	})
	t.Run("DisposeRejectsFurtherCalls", func(t *testing.T) {
		testDispose(t, factory)
	})
	t.Run("DisposeWaitsForInflightHandlers", func(t *testing.T) {
		testDisposeWaits(t, factory)
	})
}

func newBus(t *testing.T, factory BusFactory) messaging.Bus {
	t.Helper()
	b := factory(t)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = b.Dispose(ctx)
	})
	return b
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// diagnostics collects diagnostics emitted by a bus.
type diagnostics struct {
	mu  sync.Mutex
	all []messaging.Diagnostic
}

func observe(b messaging.Bus) *diagnostics {
	d := &diagnostics{}
	b.Observe(func(diag messaging.Diagnostic) {
		d.mu.Lock()
		d.all = append(d.all, diag)
		d.mu.Unlock()
	})
	return d
}

func (d *diagnostics) named(name string) []messaging.Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []messaging.Diagnostic
	for _, diag := range d.all {
		if diag.DiagnosticName() == name {
			out = append(out, diag)
		}
	}
	return out
}

func (d *diagnostics) states(action messaging.Action) []messaging.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []messaging.State
	for _, diag := range d.all {
		if sc, ok := diag.(messaging.ActionStateChanged); ok && sc.Action == action {
			out = append(out, sc.State)
		}
	}
	return out
}

func testExecuteWithoutHandler(t *testing.T, factory BusFactory) {
	b := newBus(t, factory)

	res, err := b.Execute(testContext(t), NewCommandA("x"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !messaging.IsVoid(res) {
		t.Fatalf("expected void result, got %#v", res)
	}
}

func testNilHandlerResult(t *testing.T, factory BusFactory) {
	b := newBus(t, factory)

	_, err := messaging.HandleFunc(b, "CommandA", func(context.Context, *CommandA) (*ResultA, error) {
		return nil, nil
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	_, err = b.Handle("QueryA", func(context.Context, messaging.Action) (messaging.AnyResult, error) {
		return (*ResultA)(nil), nil
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	for _, action := range []messaging.Action{NewCommandA("typed"), NewQueryA("raw")} {
		res, err := b.Execute(testContext(t), action)
		if err != nil {
			t.Fatalf("Execute(%s): %v", action.MessageHeaders().MessageType, err)
		}
		if res != messaging.Void {
			t.Fatalf("Execute(%s) = %#v, want Void", action.MessageHeaders().MessageType, res)
		}
		if h := res.MessageHeaders(); h.MessageType != messaging.VoidType {
			t.Fatalf("void headers = %+v", h)
		}
	}

	got, err := messaging.ExecuteAs[*ResultA](testContext(t), b, NewCommandA("again"))
	if err != nil || got != nil {
		t.Fatalf("ExecuteAs = %#v, %v; want nil, nil", got, err)
	}
}

func testExecuteReturnsHandlerResult(t *testing.T, factory BusFactory) {
	b := newBus(t, factory)

	_, err := messaging.HandleFunc(b, "CommandA", func(_ context.Context, cmd *CommandA) (*ResultA, error) {
		return NewResultA(cmd, cmd.Body), nil
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	cmd := NewCommandA("x")
	res, err := messaging.ExecuteAs[*ResultA](testContext(t), b, cmd)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Body != cmd.Body {
		t.Fatalf("result body = %q, want %q", res.Body, cmd.Body)
	}
	if res.Headers.CausationID != cmd.Headers.MessageID {
		t.Fatalf("causationId = %q, want %q", res.Headers.CausationID, cmd.Headers.MessageID)
	}
}

func testQueryWithUnexpectedResultType(t *testing.T, factory BusFactory) {
	b := newBus(t, factory)

	_, err := b.Handle("QueryA", func(_ context.Context, action messaging.Action) (messaging.AnyResult, error) {
		return &ResultB{Result: *messaging.NewResult("ResultB", action, 1)}, nil
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	_, err = messaging.ExecuteAs[*ResultA](testContext(t), b, NewQueryA("q"))
	if !errors.Is(err, messaging.ErrUnexpectedResult) {
		t.Fatalf("ExecuteAs = %v, want ErrUnexpectedResult", err)
	}
	res, err := messaging.ExecuteAs[*ResultB](testContext(t), b, NewQueryA("q"))
	if err != nil || res.Body != 1 {
		t.Fatalf("ExecuteAs[*ResultB] = (%v, %v)", res, err)
	}
}

func testDuplicateHandler(t *testing.T, factory BusFactory) {
	b := newBus(t, factory)
	handler := func(context.Context, messaging.Action) (messaging.AnyResult, error) { return nil, nil }

	if _, err := b.Handle("CommandA", handler); err != nil {
		t.Fatalf("first Handle: %v", err)
	}
	_, err := b.Handle("CommandA", handler)
	var cerr *ceb.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("second Handle = %v, want ConfigurationError", err)
	}
}

func testHandlerError(t *testing.T, factory BusFactory) {
	b := newBus(t, factory)
	diags := observe(b)
	boom := errors.New("boom")

	if _, err := b.Handle("CommandA", func(context.Context, messaging.Action) (messaging.AnyResult, error) {
		return nil, boom
	}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	cmd := NewCommandA("x")
	_, err := b.Execute(testContext(t), cmd)
	var herr *messaging.HandlerError
	if !errors.As(err, &herr) || !errors.Is(err, boom) {
		t.Fatalf("Execute = %v, want HandlerError wrapping boom", err)
	}
	if herr.Headers.MessageID != cmd.Headers.MessageID {
		t.Fatalf("HandlerError headers = %+v", herr.Headers)
	}

	failed := diags.named("action_handler_failed")
	if len(failed) != 1 {
		t.Fatalf("action_handler_failed emitted %d times", len(failed))
	}
	if d := failed[0].(messaging.ActionHandlerFailed); d.Action != messaging.Action(cmd) || !errors.Is(d.Err, boom) {
		t.Fatalf("diagnostic = %+v", d)
	}
}

func testHandlerPanic(t *testing.T, factory BusFactory) {
	b := newBus(t, factory)

	if _, err := b.Handle("CommandA", func(context.Context, messaging.Action) (messaging.AnyResult, error) {
		panic("kaboom")
	}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	_, err := b.Execute(testContext(t), NewCommandA("x"))
	var herr *messaging.HandlerError
	if !errors.As(err, &herr) || herr.Panic != "kaboom" {
		t.Fatalf("Execute = %v, want HandlerError with panic", err)
	}
}

func testExecuteAsyncLifecycle(t *testing.T, factory BusFactory) {
	b := newBus(t, factory)
	diags := observe(b)
	release := make(chan struct{})

	if _, err := b.Handle("CommandA", func(_ context.Context, action messaging.Action) (messaging.AnyResult, error) {
		<-release
		return NewResultA(action, "done"), nil
	}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	cmd := NewCommandA("x")
	outcomes := b.ExecuteAsync(testContext(t), cmd)

	select {
	case o := <-outcomes:
		t.Fatalf("outcome delivered before handler completed: %+v", o)
	case <-time.After(20 * time.Millisecond):
	}
	close(release)

	select {
	case o := <-outcomes:
		if o.State != messaging.Completed || o.Err != nil || o.Action != messaging.Action(cmd) {
			t.Fatalf("outcome = %+v", o)
		}
		if r, ok := o.Result.(*ResultA); !ok || r.Body != "done" {
			t.Fatalf("result = %#v", o.Result)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no outcome")
	}

	want := []messaging.State{messaging.Submitted, messaging.Dispatched, messaging.Completed}
	if got := diags.states(cmd); !slices.Equal(got, want) {
		t.Fatalf("states = %v, want %v", got, want)
	}
}

func testPublishFanOut(t *testing.T, factory BusFactory) {
	b := newBus(t, factory)

	var mu sync.Mutex
	var received []messaging.AnyEvent
	listener := func(_ context.Context, evt messaging.AnyEvent) error {
		mu.Lock()
		received = append(received, evt)
		mu.Unlock()
		return nil
	}
	for range 2 {
		if _, err := b.Subscribe("EventA", listener); err != nil {
			t.Fatalf("Subscribe: %v", err)
		}
	}
	if _, err := b.Subscribe("EventB", listener); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	evt := NewEventA("hello")
	if err := b.Publish(testContext(t), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("received %d events, want 2", len(received))
	}
	for _, got := range received {
		if got != messaging.AnyEvent(evt) {
			t.Fatalf("listener received a different instance: %p vs %p", got, evt)
		}
	}
}

func testListenerFailure(t *testing.T, factory BusFactory) {
	b := newBus(t, factory)
	diags := observe(b)

	var second atomic.Bool
	if _, err := b.Subscribe("EventA", func(context.Context, messaging.AnyEvent) error {
		return errors.New("first failed")
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := messaging.SubscribeFunc(b, "EventA", func(_ context.Context, evt *EventA) error {
		second.Store(evt.Body == "hello")
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Subscribe("EventA", func(context.Context, messaging.AnyEvent) error {
		panic("third panicked")
	}); err != nil {
		t.Fatal(err)
	}

	evt := NewEventA("hello")
	if err := b.Publish(testContext(t), evt); err != nil {
		t.Fatalf("Publish = %v, listener failures must not fail the publisher", err)
	}
	if !second.Load() {
		t.Fatal("second listener was not invoked")
	}

	failed := diags.named("event_listener_failed")
	if len(failed) != 2 {
		t.Fatalf("event_listener_failed emitted %d times, want 2", len(failed))
	}
	for _, d := range failed {
		if d.(messaging.EventListenerFailed).Event != messaging.AnyEvent(evt) {
			t.Fatalf("diagnostic carries another event: %+v", d)
		}
	}
}

func testDuplicateListeners(t *testing.T, factory BusFactory) {
	b := newBus(t, factory)

	var calls atomic.Int32
	listener := func(context.Context, messaging.AnyEvent) error {
		calls.Add(1)
		return nil
	}
	for range 2 {
		if _, err := b.Subscribe("EventA", listener); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.Publish(testContext(t), NewEventA("x")); err != nil {
		t.Fatal(err)
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("calls = %d, want 2", n)
	}
}

func testRemoveRegistrations(t *testing.T, factory BusFactory) {
	b := newBus(t, factory)

	handler, err := b.Handle("CommandA", func(_ context.Context, action messaging.Action) (messaging.AnyResult, error) {
		return NewResultA(action, "handled"), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	var calls atomic.Int32
	listener, err := b.Subscribe("EventA", func(context.Context, messaging.AnyEvent) error {
		calls.Add(1)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	handler.Remove()
	listener.Remove()
	listener.Remove()

	res, err := b.Execute(testContext(t), NewCommandA("x"))
	if err != nil || !messaging.IsVoid(res) {
		t.Fatalf("Execute after Remove = (%v, %v), want void", res, err)
	}
	if err := b.Publish(testContext(t), NewEventA("x")); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 0 {
		t.Fatal("removed listener invoked")
	}
	if _, err := b.Handle("CommandA", func(context.Context, messaging.Action) (messaging.AnyResult, error) { return nil, nil }); err != nil {
		t.Fatalf("re-Handle after Remove: %v", err)
	}
}

func testInvalidMessages(t *testing.T, factory BusFactory) {
	b := newBus(t, factory)
	ctx := testContext(t)

	if _, err := b.Execute(ctx, &CommandA{}); !errors.Is(err, messaging.ErrInvalidMessage) {
		t.Fatalf("Execute(no type) = %v", err)
	}
	if err := b.Publish(ctx, nil); !errors.Is(err, messaging.ErrInvalidMessage) {
		t.Fatalf("Publish(nil) = %v", err)
	}
	var cerr *ceb.ConfigurationError
	if _, err := b.Handle("", nil); !errors.As(err, &cerr) {
		t.Fatalf("Handle(\"\") = %v", err)
	}
	if _, err := b.Subscribe("EventA", nil); !errors.As(err, &cerr) {
		t.Fatalf("Subscribe(nil) = %v", err)
	}
}

func testDispose(t *testing.T, factory BusFactory) {
	b := factory(t)
	ctx := testContext(t)

	if err := b.Dispose(ctx); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if err := b.Dispose(ctx); err != nil {
		t.Fatalf("second Dispose: %v", err)
	}

	if _, err := b.Execute(ctx, NewCommandA("x")); !errors.Is(err, messaging.ErrDisposed) {
		t.Fatalf("Execute after Dispose = %v", err)
	}
	o := <-b.ExecuteAsync(ctx, NewCommandA("x"))
	if o.State != messaging.Failed || !errors.Is(o.Err, messaging.ErrDisposed) {
		t.Fatalf("ExecuteAsync after Dispose = %+v", o)
	}
	err := b.Publish(ctx, NewEventA("x"))
	var derr *messaging.DisposedError
	if !errors.As(err, &derr) {
		t.Fatalf("Publish after Dispose = %v", err)
	}
	if _, err := b.Handle("CommandA", func(context.Context, messaging.Action) (messaging.AnyResult, error) { return nil, nil }); !errors.Is(err, messaging.ErrDisposed) {
		t.Fatalf("Handle after Dispose = %v", err)
	}
	if _, err := b.Subscribe("EventA", func(context.Context, messaging.AnyEvent) error { return nil }); !errors.Is(err, messaging.ErrDisposed) {
		t.Fatalf("Subscribe after Dispose = %v", err)
	}
}

func testDisposeWaits(t *testing.T, factory BusFactory) {
	b := factory(t)
	started := make(chan struct{})
	var finished atomic.Bool

	if _, err := b.Handle("CommandA", func(context.Context, messaging.Action) (messaging.AnyResult, error) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
		return nil, nil
	}); err != nil {
		t.Fatal(err)
	}

	outcome := b.ExecuteAsync(testContext(t), NewCommandA("x"))
	<-started

	if err := b.Dispose(testContext(t)); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if !finished.Load() {
		t.Fatal("Dispose returned before the in-flight handler finished")
	}
	if o := <-outcome; o.State != messaging.Completed || !messaging.IsVoid(o.Result) {
		t.Fatalf("in-flight outcome = %+v", o)
	}
}
