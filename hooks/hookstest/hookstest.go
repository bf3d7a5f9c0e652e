// Package hookstest provides helpers for asserting the order in which
// lifecycle interceptors and base behaviour run.
package hookstest

import (
	"errors"
	"slices"
	"sync"

	"github.com/ggoodman/ceb-go/hooks"
)

// Call is one observed invocation.
type Call struct {
	Label string
	Args  hooks.Args
}

// Recorder collects labelled calls in the order they happen.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends a call with the given label.
func (r *Recorder) Record(label string, args hooks.Args) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Label: label, Args: args})
}

// Interceptor returns an interceptor that records label and succeeds.
func Interceptor[E any](r *Recorder, label string) hooks.Interceptor[E] {
	return func(_ E, args hooks.Args) error {
		r.Record(label, args)
		return nil
	}
}

// Failing returns an interceptor that records label and then returns err.
func Failing[E any](r *Recorder, label string, err error) hooks.Interceptor[E] {
	return func(_ E, args hooks.Args) error {
		r.Record(label, args)
		return err
	}
}

// Panicking returns an interceptor that records label and then panics.
func Panicking[E any](r *Recorder, label string) hooks.Interceptor[E] {
	return func(_ E, args hooks.Args) error {
		r.Record(label, args)
		panic(errors.New(label))
	}
}

// Labels returns the recorded labels in order.
func (r *Recorder) Labels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.Label
	}
	return out
}

// Calls returns a copy of every recorded call.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// Reset forgets every recorded call.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

// Equal reports whether the recorded labels match want exactly.
func (r *Recorder) Equal(want ...string) bool {
	return slices.Equal(r.Labels(), want)
}
