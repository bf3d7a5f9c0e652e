// Package template renders markup into host nodes.
//
// A Template is what an element's render method returns; the template builder
// renders it into the element (or its shadow root) each time the method runs.
// HTML templates are backed by html/template so that interpolated values are
// escaped for the context they appear in.
package template

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"

	"github.com/ggoodman/ceb-go/dom"
)

// Template updates the children of a node.
type Template interface {
	Render(dest dom.Node, params any) error
}

// Func adapts a function to the Template interface.
type Func func(dest dom.Node, params any) error

func (f Func) Render(dest dom.Node, params any) error { return f(dest, params) }

// Raw is trusted markup rendered verbatim.
type Raw string

func (r Raw) Render(dest dom.Node, _ any) error {
	dest.SetInnerHTML(string(r))
	return nil
}

// HTML is a parsed html/template.
type HTML struct {
	tmpl *htmltemplate.Template
}

// Parse parses text as an HTML template named name.
func Parse(name, text string) (*HTML, error) {
	t, err := htmltemplate.New(name).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", name, err)
	}
	return &HTML{tmpl: t}, nil
}

// Must panics if err is non-nil. Intended for package-level templates.
func Must(t *HTML, err error) *HTML {
	if err != nil {
		panic(err)
	}
	return t
}

// Render executes the template with params and replaces dest's children.
func (h *HTML) Render(dest dom.Node, params any) error {
	return execute(h.tmpl, dest, params)
}

func execute(t *htmltemplate.Template, dest dom.Node, params any) error {
	var buf bytes.Buffer
	if err := t.Execute(&buf, params); err != nil {
		return fmt.Errorf("template %q: %w", t.Name(), err)
	}
	dest.SetInnerHTML(buf.String())
	return nil
}

var (
	_ Template = Func(nil)
	_ Template = Raw("")
	_ Template = (*HTML)(nil)
	_ Template = (*File)(nil)
)
