package element

import (
	"errors"
	"fmt"

	"github.com/ggoodman/ceb-go/hooks"
)

var (
	// ErrReadOnly is returned when setting a property defined as read-only.
	ErrReadOnly = errors.New("element: property is read-only")
	// ErrNoMethod is returned by Call for names no builder defined.
	ErrNoMethod = errors.New("element: no such method")
)

// LifecycleError reports a failed lifecycle phase of one instance.
type LifecycleError struct {
	Tag   string
	Phase hooks.Phase
	Err   error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("element <%s>: %s failed: %v", e.Tag, e.Phase, e.Err)
}

func (e *LifecycleError) Unwrap() error { return e.Err }
