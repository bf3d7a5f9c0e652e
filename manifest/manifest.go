// Package manifest describes composed element classes as JSON Schema
// documents so tooling can discover the attributes and properties an element
// exposes without instantiating it.
package manifest

import (
	"encoding/json"
	"reflect"
	"slices"

	"github.com/ggoodman/ceb-go/element"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Extension keywords added to generated schemas.
const (
	KeywordTag                = "x-tag"
	KeywordAttribute          = "x-attribute"
	KeywordObservedAttributes = "x-observed-attributes"
	KeywordMethods            = "x-methods"
)

// Manifest maps tag names to element schemas in definition order.
type Manifest struct {
	elements *orderedmap.OrderedMap[string, *jsonschema.Schema]
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{elements: orderedmap.New[string, *jsonschema.Schema]()}
}

// FromRegistry builds a manifest for every class defined in r, sorted by tag.
func FromRegistry(r *element.Registry) *Manifest {
	m := New()
	for _, tag := range r.Tags() {
		if c, ok := r.Lookup(tag); ok {
			m.Add(c)
		}
	}
	return m
}

// Add describes c in the manifest, replacing any previous entry for its tag.
func (m *Manifest) Add(c *element.Class) {
	m.elements.Set(c.TagName(), Schema(c))
}

// Lookup returns the schema recorded for tag.
func (m *Manifest) Lookup(tag string) (*jsonschema.Schema, bool) {
	return m.elements.Get(tag)
}

// Tags lists the described tags in insertion order.
func (m *Manifest) Tags() []string {
	tags := make([]string, 0, m.elements.Len())
	for pair := m.elements.Oldest(); pair != nil; pair = pair.Next() {
		tags = append(tags, pair.Key)
	}
	return tags
}

// MarshalJSON encodes the manifest as an object keyed by tag name.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.elements)
}

// Schema returns an object schema for c. Declared fields come first in
// declaration order; properties defined without a field follow sorted by name.
// Hidden fields and properties are omitted.
func Schema(c *element.Class) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Version:    jsonschema.Version,
		Type:       "object",
		Title:      c.TagName(),
		Properties: jsonschema.NewProperties(),
		Extras: map[string]any{
			KeywordTag: c.TagName(),
		},
	}
	if observed := c.ObservedAttributes(); len(observed) > 0 {
		s.Extras[KeywordObservedAttributes] = observed
	}
	if methods := c.Methods(); len(methods) > 0 {
		s.Extras[KeywordMethods] = methods
	}

	public := c.Properties()
	for _, f := range c.Fields() {
		if f.Hidden || f.Property == "" || !slices.Contains(public, f.Property) {
			continue
		}
		if _, seen := s.Properties.Get(f.Property); seen {
			continue
		}
		p, _ := c.Property(f.Property)
		s.Properties.Set(f.Property, fieldSchema(f, p))
	}
	for _, name := range public {
		if _, seen := s.Properties.Get(name); seen {
			continue
		}
		p, _ := c.Property(name)
		s.Properties.Set(name, propertySchema(p))
	}
	return s
}

func fieldSchema(f element.Field, p element.Property) *jsonschema.Schema {
	var s *jsonschema.Schema
	switch {
	case f.Boolean:
		s = &jsonschema.Schema{Type: "boolean"}
	case f.Attribute != "":
		s = &jsonschema.Schema{Type: "string"}
	default:
		s = valueSchema(f.Default)
	}
	if f.Default != nil {
		s.Default = f.Default
	} else if p.Default != nil {
		s.Default = p.Default
	}
	if p.ReadOnly || p.Set == nil {
		s.ReadOnly = true
	}
	if f.Attribute != "" {
		if s.Extras == nil {
			s.Extras = map[string]any{}
		}
		s.Extras[KeywordAttribute] = f.Attribute
	}
	return s
}

func propertySchema(p element.Property) *jsonschema.Schema {
	s := valueSchema(p.Default)
	s.Default = p.Default
	if p.ReadOnly || p.Set == nil {
		s.ReadOnly = true
	}
	return s
}

// valueSchema reflects the type of an example value. Without a value the
// schema accepts anything.
func valueSchema(v any) *jsonschema.Schema {
	if v == nil {
		return &jsonschema.Schema{}
	}
	r := &jsonschema.Reflector{DoNotReference: true}
	s := r.ReflectFromType(reflect.TypeOf(v))
	s.Version = ""
	s.ID = ""
	s.Definitions = nil
	return s
}
