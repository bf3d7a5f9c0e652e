package domtest

import (
	"testing"

	"github.com/ggoodman/ceb-go/dom"
)

func TestDispatchOrder(t *testing.T) {
	host := NewElement("x-host")
	button := host.Append("button", NewElement("button"))

	var order []string
	host.AddEventListener("click", func(dom.Event) { order = append(order, "host-capture") }, dom.ListenerOptions{Capture: true})
	host.AddEventListener("click", func(dom.Event) { order = append(order, "host-bubble") }, dom.ListenerOptions{})
	button.AddEventListener("click", func(dom.Event) { order = append(order, "button") }, dom.ListenerOptions{})

	Dispatch(button, "click")

	want := []string{"host-capture", "button", "host-bubble"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestStopPropagation(t *testing.T) {
	host := NewElement("x-host")
	button := host.Append("button", NewElement("button"))

	hostCalled := false
	host.AddEventListener("click", func(dom.Event) { hostCalled = true }, dom.ListenerOptions{})
	button.AddEventListener("click", func(e dom.Event) { e.StopPropagation() }, dom.ListenerOptions{})

	evt := Dispatch(button, "click")
	if !evt.Stopped {
		t.Error("expected event to be stopped")
	}
	if hostCalled {
		t.Error("host listener should not run after StopPropagation")
	}
}

func TestRemoveListener(t *testing.T) {
	el := NewElement("x-el")
	remove := el.AddEventListener("input", func(dom.Event) {}, dom.ListenerOptions{})
	if el.ListenerCount("input") != 1 {
		t.Fatalf("expected 1 listener")
	}
	remove()
	remove()
	if el.ListenerCount("input") != 0 {
		t.Fatalf("expected 0 listeners after remove")
	}
}

func TestContainsAndShadow(t *testing.T) {
	host := NewElement("x-host")
	root := host.AttachShadow(dom.ShadowRootInit{DelegatesFocus: true})
	if again := host.AttachShadow(dom.ShadowRootInit{}); again != root {
		t.Fatal("AttachShadow should return the existing root")
	}
	inner := host.Shadow().Append("input", NewElement("input"))

	if !root.Contains(inner) {
		t.Error("shadow root should contain its child")
	}
	if !host.Contains(inner) {
		t.Error("host should contain shadow descendants")
	}
	if inner.Contains(host) {
		t.Error("child should not contain its host")
	}
	if !host.ShadowInit().DelegatesFocus {
		t.Error("expected DelegatesFocus to be recorded")
	}
	if found, ok := root.QuerySelector("input"); !ok || found != dom.Element(inner) {
		t.Error("QuerySelector should find the registered child")
	}
}

func TestAttributesAndProperties(t *testing.T) {
	el := NewElement("x-el")
	if el.HasAttribute("name") {
		t.Fatal("unexpected attribute")
	}
	el.SetAttribute("name", "a")
	if v, ok := el.GetAttribute("name"); !ok || v != "a" {
		t.Fatalf("GetAttribute = %q, %v", v, ok)
	}
	el.RemoveAttribute("name")
	if el.HasAttribute("name") {
		t.Fatal("attribute should be removed")
	}
	el.SetProperty("value", 42)
	if v, ok := el.GetProperty("value"); !ok || v != 42 {
		t.Fatalf("GetProperty = %v, %v", v, ok)
	}
	el.SetInnerHTML("<p>hi</p>")
	if el.InnerHTML() != "<p>hi</p>" || el.Renders() != 1 {
		t.Fatalf("unexpected render state %q %d", el.InnerHTML(), el.Renders())
	}
}
