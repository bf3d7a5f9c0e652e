package template

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ggoodman/ceb-go/dom"
	"github.com/ggoodman/ceb-go/dom/domtest"
)

func TestHTMLRenderEscapes(t *testing.T) {
	tpl := Must(Parse("greeting", `<p>Hello, {{.}}!</p>`))
	host := domtest.NewElement("x-greeting")

	if err := tpl.Render(host, "<World>"); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got, want := host.InnerHTML(), "<p>Hello, &lt;World&gt;!</p>"; got != want {
		t.Fatalf("InnerHTML = %q, want %q", got, want)
	}
}

func TestRawAndFunc(t *testing.T) {
	host := domtest.NewElement("x-raw")
	if err := Raw("<b>x</b>").Render(host, nil); err != nil {
		t.Fatal(err)
	}
	if host.InnerHTML() != "<b>x</b>" {
		t.Fatalf("InnerHTML = %q", host.InnerHTML())
	}

	var gotParams any
	fn := Func(func(dest dom.Node, params any) error {
		gotParams = params
		dest.SetInnerHTML("fn")
		return nil
	})
	if err := fn.Render(host, 7); err != nil {
		t.Fatal(err)
	}
	if gotParams != 7 || host.InnerHTML() != "fn" {
		t.Fatalf("params = %v, InnerHTML = %q", gotParams, host.InnerHTML())
	}
}

func TestParseError(t *testing.T) {
	if _, err := Parse("bad", "{{.Unclosed"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFileReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.html")
	writeFile(t, path, `<h1>{{.}}</h1>`)

	f, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	host := domtest.NewElement("x-card")
	if err := f.Render(host, "v1"); err != nil {
		t.Fatal(err)
	}
	if host.InnerHTML() != "<h1>v1</h1>" {
		t.Fatalf("InnerHTML = %q", host.InnerHTML())
	}

	writeFile(t, path, `{{.Broken`)
	if err := f.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if err := f.Render(host, "v2"); err != nil {
		t.Fatalf("Render after failed reload: %v", err)
	}
	if host.InnerHTML() != "<h1>v2</h1>" {
		t.Fatalf("previous template not kept: %q", host.InnerHTML())
	}
}

func TestFileWatchNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.html")
	writeFile(t, path, `<h1>{{.}}</h1>`)

	f, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	changes := f.Subscriber()
	defer f.Unsubscribe(changes)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- f.Watch(ctx, nil) }()

	// Keep writing until the watcher is established and reports a change.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
loop:
	for {
		select {
		case <-changes:
			break loop
		case <-tick.C:
			writeFile(t, path, `<h2>{{.}}</h2>`)
		case <-deadline:
			t.Fatal("no change notification")
		}
	}

	host := domtest.NewElement("x-card")
	if err := f.Render(host, "hot"); err != nil {
		t.Fatal(err)
	}
	if host.InnerHTML() != "<h2>hot</h2>" {
		t.Fatalf("InnerHTML = %q", host.InnerHTML())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop")
	}
}

func TestNotifier(t *testing.T) {
	var n Notifier
	a := n.Subscriber()
	b := n.Subscriber()

	n.Notify()
	n.Notify()
	for _, ch := range []<-chan struct{}{a, b} {
		select {
		case <-ch:
		default:
			t.Fatal("subscriber not signalled")
		}
		select {
		case <-ch:
			t.Fatal("signals should coalesce")
		default:
		}
	}

	n.Unsubscribe(a)
	if _, ok := <-a; ok {
		t.Fatal("unsubscribed channel should be closed")
	}
	n.Close()
	if _, ok := <-b; ok {
		t.Fatal("Close should close subscribers")
	}
	if _, ok := <-n.Subscriber(); ok {
		t.Fatal("subscribe after Close should yield a closed channel")
	}
}

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}
}
