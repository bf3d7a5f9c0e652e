package element

import (
	"slices"
	"sync"

	"github.com/ggoodman/ceb-go"
)

// Registry maps tag names to composed classes, like a document's custom
// element registry.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*Class)}
}

// Define registers class under its tag name. Tags can be defined once.
func (r *Registry) Define(class *Class) error {
	if class == nil {
		return ceb.Configurationf("element", "define nil class")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.classes[class.tag]; ok {
		return ceb.Configurationf("element", "tag <%s> is already defined", class.tag)
	}
	r.classes[class.tag] = class
	return nil
}

// Lookup returns the class defined for tag.
func (r *Registry) Lookup(tag string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[tag]
	return c, ok
}

// Tags returns the defined tag names in sorted order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.classes))
	for tag := range r.classes {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}
