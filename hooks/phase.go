package hooks

import "fmt"

// Phase identifies one of the four lifecycle callbacks a host runtime invokes
// on a custom element. The set is closed.
type Phase string

const (
	// Construct runs once when an instance is created.
	Construct Phase = "construct"
	// Connect runs each time the instance is attached to a document.
	Connect Phase = "connect"
	// Disconnect runs each time the instance is detached from a document.
	// Interceptors on this phase are best-effort teardown.
	Disconnect Phase = "disconnect"
	// AttributeChange runs when an observed attribute is mutated.
	AttributeChange Phase = "attributeChange"
)

var phases = []Phase{Construct, Connect, Disconnect, AttributeChange}

// Phases returns every lifecycle phase in the order a host typically fires them.
func Phases() []Phase {
	out := make([]Phase, len(phases))
	copy(out, phases)
	return out
}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case Construct, Connect, Disconnect, AttributeChange:
		return true
	}
	return false
}

// Timing positions an interceptor relative to a phase's base behaviour.
type Timing int

const (
	Before Timing = iota
	After
)

func (t Timing) String() string {
	switch t {
	case Before:
		return "before"
	case After:
		return "after"
	default:
		return fmt.Sprintf("Timing(%d)", int(t))
	}
}

// Valid reports whether t is Before or After.
func (t Timing) Valid() bool {
	return t == Before || t == After
}

// HookPoint is the (phase, timing) pair interceptors are registered against.
type HookPoint struct {
	Phase  Phase
	Timing Timing
}

func (hp HookPoint) String() string {
	return hp.Timing.String() + ":" + string(hp.Phase)
}

// Args carries the phase-specific arguments threaded to every interceptor of a
// hook point. Only AttributeChange populates it; a nil OldValue or NewValue
// means the attribute was absent.
type Args struct {
	Name     string
	OldValue *string
	NewValue *string
}
