package element

import (
	"sync"
)

// Subscriptions is the side table of per-instance active subscriptions (event
// listeners, bus registrations, watchers). Entries are grouped by an owner key
// so that each builder only releases what it added.
type Subscriptions struct {
	mu      sync.Mutex
	entries map[*Instance]map[any][]func()
}

func newSubscriptions() *Subscriptions {
	return &Subscriptions{entries: make(map[*Instance]map[any][]func())}
}

// Add records cancel under (el, owner).
func (s *Subscriptions) Add(el *Instance, owner any, cancel func()) {
	if cancel == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	byOwner, ok := s.entries[el]
	if !ok {
		byOwner = make(map[any][]func())
		s.entries[el] = byOwner
	}
	byOwner[owner] = append(byOwner[owner], cancel)
}

// Release runs and forgets every cancel function recorded under (el, owner),
// most recent first. It returns the number of functions run.
func (s *Subscriptions) Release(el *Instance, owner any) int {
	s.mu.Lock()
	cancels := s.entries[el][owner]
	if byOwner, ok := s.entries[el]; ok {
		delete(byOwner, owner)
		if len(byOwner) == 0 {
			delete(s.entries, el)
		}
	}
	s.mu.Unlock()

	return runReversed(cancels)
}

// ReleaseAll drops everything recorded for el regardless of owner.
func (s *Subscriptions) ReleaseAll(el *Instance) int {
	s.mu.Lock()
	byOwner := s.entries[el]
	delete(s.entries, el)
	s.mu.Unlock()

	n := 0
	for _, cancels := range byOwner {
		n += runReversed(cancels)
	}
	return n
}

// Len reports how many cancel functions are recorded for el.
func (s *Subscriptions) Len(el *Instance) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, cancels := range s.entries[el] {
		n += len(cancels)
	}
	return n
}

func runReversed(cancels []func()) int {
	for i := len(cancels) - 1; i >= 0; i-- {
		cancels[i]()
	}
	return len(cancels)
}
