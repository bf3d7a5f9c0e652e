// Package hooks provides the per-class lifecycle interceptor table that
// builders register into while an element class is being composed.
//
// A Registry is shared by every instance of one element class. It accepts
// registrations until Finalize is called and is read-only afterwards, so
// invocation needs no locking on the hot path.
package hooks

import (
	"errors"
	"sync"

	"github.com/ggoodman/ceb-go"
)

// Interceptor is a side-effecting tap on a hook point. Every interceptor of a
// hook point receives the same element and the same Args.
type Interceptor[E any] func(el E, args Args) error

// Registration is the write-only view of a Registry handed to builders.
// It offers no way to read back what other builders registered.
type Registration[E any] interface {
	Before(phase Phase, fn Interceptor[E]) error
	After(phase Phase, fn Interceptor[E]) error
}

// Registry maps each hook point to its ordered list of interceptors.
type Registry[E any] struct {
	mu        sync.RWMutex
	points    map[HookPoint][]Interceptor[E]
	finalized bool
}

// NewRegistry returns an empty registry open for registration.
func NewRegistry[E any]() *Registry[E] {
	return &Registry[E]{points: make(map[HookPoint][]Interceptor[E])}
}

// Register appends fn to the hook point (phase, timing).
func (r *Registry[E]) Register(phase Phase, timing Timing, fn Interceptor[E]) error {
	if !phase.Valid() {
		return ceb.Configurationf("hooks", "unknown phase %q", string(phase))
	}
	if !timing.Valid() {
		return ceb.Configurationf("hooks", "unknown timing %s", timing)
	}
	if fn == nil {
		return ceb.Configurationf("hooks", "nil interceptor for %s", HookPoint{phase, timing})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return ceb.Configurationf("hooks", "registry is finalized, cannot register %s", HookPoint{phase, timing})
	}

	hp := HookPoint{Phase: phase, Timing: timing}
	r.points[hp] = append(r.points[hp], fn)
	return nil
}

// Before registers fn to run before the base behaviour of phase.
func (r *Registry[E]) Before(phase Phase, fn Interceptor[E]) error {
	return r.Register(phase, Before, fn)
}

// After registers fn to run after the base behaviour of phase.
func (r *Registry[E]) After(phase Phase, fn Interceptor[E]) error {
	return r.Register(phase, After, fn)
}

// Finalize closes the composition window. Subsequent registrations fail.
func (r *Registry[E]) Finalize() {
	r.mu.Lock()
	r.finalized = true
	r.mu.Unlock()
}

// Finalized reports whether Finalize has been called.
func (r *Registry[E]) Finalized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.finalized
}

// Len returns the number of interceptors registered at (phase, timing).
func (r *Registry[E]) Len(phase Phase, timing Timing) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.points[HookPoint{phase, timing}])
}

// Invoke runs the interceptors of (phase, timing) in registration order.
//
// For Disconnect every interceptor runs regardless of earlier failures and the
// failures are joined. For every other phase the first failure stops the hook
// point and is returned.
func (r *Registry[E]) Invoke(phase Phase, timing Timing, el E, args Args) error {
	hp := HookPoint{Phase: phase, Timing: timing}

	r.mu.RLock()
	fns := r.points[hp]
	r.mu.RUnlock()

	if phase == Disconnect {
		var errs []error
		for i, fn := range fns {
			if err := call(hp, i, fn, el, args); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	for i, fn := range fns {
		if err := call(hp, i, fn, el, args); err != nil {
			return err
		}
	}
	return nil
}

func call[E any](hp HookPoint, idx int, fn Interceptor[E], el E, args Args) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &InterceptorError{Point: hp, Index: idx, Panic: rec}
		}
	}()
	if e := fn(el, args); e != nil {
		return &InterceptorError{Point: hp, Index: idx, Err: e}
	}
	return nil
}

var _ Registration[any] = (*Registry[any])(nil)
