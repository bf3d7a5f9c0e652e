package hooks

import "fmt"

// InterceptorError wraps a failure raised by an interceptor while a hook
// point was being invoked. Recovered panics are reported with Panic set.
type InterceptorError struct {
	Point HookPoint
	Index int // position of the interceptor within its hook point
	Err   error
	Panic any
}

func (e *InterceptorError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("interceptor %d at %s panicked: %v", e.Index, e.Point, e.Panic)
	}
	return fmt.Sprintf("interceptor %d at %s failed: %v", e.Index, e.Point, e.Err)
}

func (e *InterceptorError) Unwrap() error {
	return e.Err
}
