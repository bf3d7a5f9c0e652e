package element_test

import (
	"bytes"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/ggoodman/ceb-go"
	"github.com/ggoodman/ceb-go/dom/domtest"
	"github.com/ggoodman/ceb-go/element"
	"github.com/ggoodman/ceb-go/hooks"
	"github.com/ggoodman/ceb-go/hooks/hookstest"
)

func recordingBuilder(rec *hookstest.Recorder, name string) element.Builder {
	return element.BuilderFunc(func(d *element.Descriptor, h element.Hooks) error {
		for _, phase := range hooks.Phases() {
			if err := h.Before(phase, hookstest.Interceptor[*element.Instance](rec, name+":before:"+string(phase))); err != nil {
				return err
			}
			if err := h.After(phase, hookstest.Interceptor[*element.Instance](rec, name+":after:"+string(phase))); err != nil {
				return err
			}
		}
		return d.ObserveAttribute("value")
	})
}

func recordingBase(rec *hookstest.Recorder) element.Lifecycle {
	base := func(phase hooks.Phase) func(*element.Instance) error {
		return func(*element.Instance) error {
			rec.Record("base:"+string(phase), hooks.Args{})
			return nil
		}
	}
	return element.Lifecycle{
		Construct:  base(hooks.Construct),
		Connect:    base(hooks.Connect),
		Disconnect: base(hooks.Disconnect),
		AttributeChanged: func(_ *element.Instance, args hooks.Args) error {
			rec.Record("base:"+string(hooks.AttributeChange), args)
			return nil
		},
	}
}

func strPtr(s string) *string { return &s }

func TestLifecycleOrdering(t *testing.T) {
	rec := hookstest.NewRecorder()
	class, err := element.New("x-order").
		Builder(recordingBuilder(rec, "a"), recordingBuilder(rec, "b")).
		Base(recordingBase(rec)).
		Compose()
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	el, err := class.New(domtest.NewElement("x-order"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	steps := map[hooks.Phase]func() error{
		hooks.Connect:         el.Connect,
		hooks.AttributeChange: func() error { return el.AttributeChanged("value", nil, strPtr("1")) },
		hooks.Disconnect:      el.Disconnect,
	}

	want := func(phase hooks.Phase) []string {
		p := string(phase)
		return []string{"a:before:" + p, "b:before:" + p, "base:" + p, "a:after:" + p, "b:after:" + p}
	}

	if got := rec.Labels(); !slices.Equal(got, want(hooks.Construct)) {
		t.Fatalf("construct order = %v, want %v", got, want(hooks.Construct))
	}

	for _, phase := range []hooks.Phase{hooks.Connect, hooks.AttributeChange, hooks.Disconnect} {
		t.Run(string(phase), func(t *testing.T) {
			rec.Reset()
			if err := steps[phase](); err != nil {
				t.Fatalf("%s: %v", phase, err)
			}
			if got := rec.Labels(); !slices.Equal(got, want(phase)) {
				t.Fatalf("order = %v, want %v", got, want(phase))
			}
		})
	}
}

func TestAttributeChangedArgs(t *testing.T) {
	rec := hookstest.NewRecorder()
	class, err := element.New("x-args").Builder(recordingBuilder(rec, "a")).Compose()
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	el, err := class.New(domtest.NewElement("x-args"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec.Reset()

	if err := el.AttributeChanged("value", strPtr("old"), nil); err != nil {
		t.Fatalf("AttributeChanged: %v", err)
	}
	for _, c := range rec.Calls() {
		if c.Args.Name != "value" || c.Args.OldValue == nil || *c.Args.OldValue != "old" || c.Args.NewValue != nil {
			t.Fatalf("%s received %+v", c.Label, c.Args)
		}
	}

	rec.Reset()
	if err := el.AttributeChanged("other", nil, strPtr("x")); err != nil {
		t.Fatalf("AttributeChanged(unobserved): %v", err)
	}
	if n := len(rec.Calls()); n != 0 {
		t.Fatalf("unobserved attribute triggered %d calls", n)
	}
}

func TestRepeatedConnectCyclesDoNotGrowHooks(t *testing.T) {
	rec := hookstest.NewRecorder()
	class, err := element.New("x-cycle").Builder(recordingBuilder(rec, "a")).Compose()
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	el, err := class.New(domtest.NewElement("x-cycle"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := range 3 {
		rec.Reset()
		if err := el.Connect(); err != nil {
			t.Fatalf("cycle %d Connect: %v", i, err)
		}
		if !el.Connected() {
			t.Fatalf("cycle %d: not connected", i)
		}
		if err := el.Disconnect(); err != nil {
			t.Fatalf("cycle %d Disconnect: %v", i, err)
		}
		if el.Connected() {
			t.Fatalf("cycle %d: still connected", i)
		}
		if n := len(rec.Labels()); n != 4 {
			t.Fatalf("cycle %d: %d calls, want 4", i, n)
		}
	}
	if n := class.Hooks(hooks.Connect, hooks.Before); n != 1 {
		t.Fatalf("connect before hooks = %d, want 1", n)
	}
}

func TestConnectFailureAbortsOnlyThatPhase(t *testing.T) {
	rec := hookstest.NewRecorder()
	boom := errors.New("boom")
	class, err := element.New("x-fail").
		Builder(element.BuilderFunc(func(_ *element.Descriptor, h element.Hooks) error {
			if err := h.Before(hooks.Connect, hookstest.Failing[*element.Instance](rec, "fail", boom)); err != nil {
				return err
			}
			if err := h.Before(hooks.Connect, hookstest.Interceptor[*element.Instance](rec, "skipped")); err != nil {
				return err
			}
			return h.Before(hooks.Disconnect, hookstest.Interceptor[*element.Instance](rec, "teardown"))
		})).
		Base(recordingBase(rec)).
		Compose()
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	el, err := class.New(domtest.NewElement("x-fail"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec.Reset()

	err = el.Connect()
	if !errors.Is(err, boom) {
		t.Fatalf("Connect error = %v, want boom", err)
	}
	var lerr *element.LifecycleError
	if !errors.As(err, &lerr) || lerr.Phase != hooks.Connect || lerr.Tag != "x-fail" {
		t.Fatalf("expected LifecycleError for connect, got %#v", err)
	}
	if el.Connected() {
		t.Fatal("failed connect left instance connected")
	}
	if !rec.Equal("fail") {
		t.Fatalf("calls = %v, want [fail]", rec.Labels())
	}

	rec.Reset()
	if err := el.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if !rec.Equal("teardown", "base:disconnect") {
		t.Fatalf("calls = %v", rec.Labels())
	}
}

func TestFailedConnectReleasesAcquiredSubscriptions(t *testing.T) {
	type owner struct{}
	boom := errors.New("boom")
	var acquired, released int
	failNext := true
	class, err := element.New("x-retry").Builder(element.BuilderFunc(func(d *element.Descriptor, h element.Hooks) error {
		subs := d.Subscriptions()
		if err := h.Before(hooks.Connect, func(el *element.Instance, _ hooks.Args) error {
			acquired++
			subs.Add(el, owner{}, func() { released++ })
			return nil
		}); err != nil {
			return err
		}
		return h.Before(hooks.Connect, func(*element.Instance, hooks.Args) error {
			if failNext {
				failNext = false
				return boom
			}
			return nil
		})
	})).Compose()
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	el, err := class.New(domtest.NewElement("x-retry"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := el.Connect(); !errors.Is(err, boom) {
		t.Fatalf("Connect error = %v, want boom", err)
	}
	if n := class.Subscriptions().Len(el); n != 0 {
		t.Fatalf("failed connect kept %d subscriptions", n)
	}
	if released != 1 {
		t.Fatalf("released = %d, want 1", released)
	}

	if err := el.Connect(); err != nil {
		t.Fatalf("retry Connect: %v", err)
	}
	if n := class.Subscriptions().Len(el); n != 1 {
		t.Fatalf("after retry the instance holds %d subscriptions, want 1", n)
	}
	if acquired != 2 || !el.Connected() {
		t.Fatalf("acquired = %d connected = %v", acquired, el.Connected())
	}
}

func TestBuildersReceiveWriteOnlyHooks(t *testing.T) {
	_, err := element.New("x-peek").Builder(
		element.BuilderFunc(func(_ *element.Descriptor, h element.Hooks) error {
			return h.Before(hooks.Connect, func(*element.Instance, hooks.Args) error { return nil })
		}),
		element.BuilderFunc(func(_ *element.Descriptor, h element.Hooks) error {
			if _, ok := h.(*hooks.Registry[*element.Instance]); ok {
				t.Error("builder can recover the hook registry")
			}
			if _, ok := h.(interface {
				Len(hooks.Phase, hooks.Timing) int
			}); ok {
				t.Error("builder can count other builders' hooks")
			}
			return nil
		}),
	).Compose()
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
}

func TestConstructFailureReturnsNoInstance(t *testing.T) {
	boom := errors.New("boom")
	class, err := element.New("x-broken").
		Base(element.Lifecycle{Construct: func(*element.Instance) error { return boom }}).
		Compose()
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	el, err := class.New(domtest.NewElement("x-broken"))
	if el != nil || !errors.Is(err, boom) {
		t.Fatalf("New = (%v, %v), want (nil, boom)", el, err)
	}
}

func TestDisconnectIsBestEffort(t *testing.T) {
	rec := hookstest.NewRecorder()
	var buf bytes.Buffer
	logHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	class, err := element.New("x-teardown", element.WithLogHandler(logHandler)).
		Builder(element.BuilderFunc(func(_ *element.Descriptor, h element.Hooks) error {
			if err := h.Before(hooks.Disconnect, hookstest.Panicking[*element.Instance](rec, "a")); err != nil {
				return err
			}
			if err := h.Before(hooks.Disconnect, hookstest.Failing[*element.Instance](rec, "b", errors.New("b failed"))); err != nil {
				return err
			}
			return h.After(hooks.Disconnect, hookstest.Interceptor[*element.Instance](rec, "c"))
		})).
		Base(element.Lifecycle{Disconnect: func(*element.Instance) error {
			rec.Record("base", hooks.Args{})
			return errors.New("base failed")
		}}).
		Compose()
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	el, err := class.New(domtest.NewElement("x-teardown"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := el.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	err = el.Disconnect()
	if err == nil {
		t.Fatal("expected joined teardown error")
	}
	if !rec.Equal("a", "b", "base", "c") {
		t.Fatalf("calls = %v", rec.Labels())
	}
	for _, want := range []string{"b failed", "base failed"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
	if el.Connected() {
		t.Fatal("instance still connected after disconnect")
	}
	if !strings.Contains(buf.String(), "el.tag=x-teardown") {
		t.Errorf("teardown warning not logged with element context: %s", buf.String())
	}
}

func TestMethodWrapOrder(t *testing.T) {
	var trail []string
	wrapper := func(name string) element.Wrapper {
		return func(next element.Method) element.Method {
			return func(el *element.Instance, args ...any) (any, error) {
				trail = append(trail, name+">")
				v, err := next(el, args...)
				trail = append(trail, "<"+name)
				return v, err
			}
		}
	}

	class, err := element.New("x-wrap").
		Builder(
			element.BuilderFunc(func(d *element.Descriptor, _ element.Hooks) error {
				return d.DefineMethod("render", func(_ *element.Instance, args ...any) (any, error) {
					trail = append(trail, "render")
					return len(args), nil
				})
			}),
			element.BuilderFunc(func(d *element.Descriptor, _ element.Hooks) error {
				return d.WrapMethod("render", wrapper("first"))
			}),
			element.BuilderFunc(func(d *element.Descriptor, _ element.Hooks) error {
				return d.WrapMethod("render", wrapper("second"))
			}),
		).
		Compose()
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	el, err := class.New(domtest.NewElement("x-wrap"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := el.Call("render", 1, 2)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != 2 {
		t.Fatalf("Call result = %v, want 2", got)
	}
	want := []string{"second>", "first>", "render", "<first", "<second"}
	if !slices.Equal(trail, want) {
		t.Fatalf("trail = %v, want %v", trail, want)
	}

	if _, err := el.Call("missing"); !errors.Is(err, element.ErrNoMethod) {
		t.Fatalf("Call(missing) = %v, want ErrNoMethod", err)
	}
}

func TestPropertyLastDefinitionWins(t *testing.T) {
	define := func(v string) element.Builder {
		return element.BuilderFunc(func(d *element.Descriptor, _ element.Hooks) error {
			return d.DefineProperty("label", element.Property{Get: func(*element.Instance) any { return v }})
		})
	}
	class, err := element.New("x-props").
		Builder(define("first"), define("second"),
			element.BuilderFunc(func(d *element.Descriptor, _ element.Hooks) error {
				return d.DefineProperty("frozen", element.Property{Default: 42, ReadOnly: true})
			}),
		).
		Compose()
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	el, err := class.New(domtest.NewElement("x-props"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if v, _ := el.Get("label"); v != "second" {
		t.Fatalf("label = %v, want second", v)
	}
	if v, _ := el.Get("frozen"); v != 42 {
		t.Fatalf("frozen = %v, want 42", v)
	}
	if err := el.Set("frozen", 1); !errors.Is(err, element.ErrReadOnly) {
		t.Fatalf("Set(frozen) = %v, want ErrReadOnly", err)
	}
	if err := el.Set("free", "x"); err != nil {
		t.Fatalf("Set(free): %v", err)
	}
	if v, ok := el.Get("free"); !ok || v != "x" {
		t.Fatalf("free = %v, %v", v, ok)
	}
	if got := class.Properties(); !slices.Equal(got, []string{"frozen", "label"}) {
		t.Fatalf("Properties = %v", got)
	}
}

func TestBuilderRunsOnceAndComposeIsCached(t *testing.T) {
	calls := 0
	c := element.New("x-once").Builder(element.BuilderFunc(func(*element.Descriptor, element.Hooks) error {
		calls++
		return nil
	}))
	first, err := c.Compose()
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	second, err := c.Compose()
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if first != second || calls != 1 {
		t.Fatalf("builder ran %d times, classes equal=%v", calls, first == second)
	}
}

func TestComposeErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name     string
		composer *element.Composer
		config   bool
	}{
		{"empty tag", element.New(""), true},
		{"no hyphen", element.New("counter"), true},
		{"uppercase", element.New("x-Counter"), true},
		{"leading digit", element.New("1-counter"), true},
		{"nil builder", element.New("x-nil").Builder(nil), true},
		{"builder error", element.New("x-err").Builder(element.BuilderFunc(func(*element.Descriptor, element.Hooks) error { return boom })), false},
		{"invalid phase", element.New("x-phase").Builder(element.BuilderFunc(func(_ *element.Descriptor, h element.Hooks) error {
			return h.Before(hooks.Phase("render"), func(*element.Instance, hooks.Args) error { return nil })
		})), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, err := tt.composer.Compose()
			if err == nil || class != nil {
				t.Fatalf("Compose = (%v, %v), want error", class, err)
			}
			var cerr *ceb.ConfigurationError
			if got := errors.As(err, &cerr); got != tt.config {
				t.Fatalf("ConfigurationError = %v, want %v (err: %v)", got, tt.config, err)
			}
		})
	}
}

func TestDescriptorSealedAfterCompose(t *testing.T) {
	var kept *element.Descriptor
	_, err := element.New("x-sealed").Builder(element.BuilderFunc(func(d *element.Descriptor, _ element.Hooks) error {
		kept = d
		return nil
	})).Compose()
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	var cerr *ceb.ConfigurationError
	if err := kept.DefineProperty("late", element.Property{}); !errors.As(err, &cerr) {
		t.Fatalf("DefineProperty after compose = %v, want ConfigurationError", err)
	}
}

func TestFieldsShareAcrossBuilders(t *testing.T) {
	var found element.Field
	class, err := element.New("x-fields").Builder(
		element.BuilderFunc(func(d *element.Descriptor, _ element.Hooks) error {
			return d.DeclareField(element.Field{Attribute: "user-name", Property: "userName"})
		}),
		element.BuilderFunc(func(d *element.Descriptor, _ element.Hooks) error {
			f, ok := d.Field("user-name")
			if !ok {
				return errors.New("field not visible")
			}
			found = f
			return nil
		}),
	).Compose()
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if found.Property != "userName" || len(class.Fields()) != 1 {
		t.Fatalf("found = %+v, fields = %+v", found, class.Fields())
	}
}

func TestRegistry(t *testing.T) {
	reg := element.NewRegistry()
	if _, err := element.New("x-one").Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := element.New("x-one").Register(reg)
	var cerr *ceb.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("duplicate Register = %v, want ConfigurationError", err)
	}
	if _, ok := reg.Lookup("x-one"); !ok {
		t.Fatal("Lookup(x-one) failed")
	}
	if got := reg.Tags(); !slices.Equal(got, []string{"x-one"}) {
		t.Fatalf("Tags = %v", got)
	}
}

func TestSubscriptionsReleasedOnDisconnect(t *testing.T) {
	type owner struct{}
	var released []int
	class, err := element.New("x-subs").Builder(element.BuilderFunc(func(d *element.Descriptor, h element.Hooks) error {
		subs := d.Subscriptions()
		return h.After(hooks.Connect, func(el *element.Instance, _ hooks.Args) error {
			subs.Add(el, owner{}, func() { released = append(released, 1) })
			subs.Add(el, owner{}, func() { released = append(released, 2) })
			return nil
		})
	})).Compose()
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	a, _ := class.New(domtest.NewElement("x-subs"))
	b, _ := class.New(domtest.NewElement("x-subs"))
	if err := a.Connect(); err != nil {
		t.Fatal(err)
	}
	if err := b.Connect(); err != nil {
		t.Fatal(err)
	}
	if n := class.Subscriptions().Len(a); n != 2 {
		t.Fatalf("a holds %d subscriptions", n)
	}

	if err := a.Disconnect(); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(released, []int{2, 1}) {
		t.Fatalf("released = %v, want LIFO", released)
	}
	if n := class.Subscriptions().Len(b); n != 2 {
		t.Fatalf("disconnecting a touched b: %d", n)
	}
}
