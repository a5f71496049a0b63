// Package schema describes node and component state generically. Every node
// kind and component kind exposes a static Schema: an ordered list of typed
// property descriptors with getter/setter functions. Loading, saving, cloning,
// override application and reference remapping all go through these
// descriptors instead of branching on concrete Go types.
package schema

import (
	"errors"
	"fmt"
)

// ErrReadOnly is returned when setting a property whose hints mark it read-only
// and the schema has no setter for it.
var ErrReadOnly = errors.New("property is read-only")

// ErrUnknownProperty indicates a property name that the schema does not declare.
var ErrUnknownProperty = errors.New("unknown property")

// Type is the declared value kind of a property. Decoding, encoding and
// flattening key off the declared type, never off the runtime shape of a value.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBool    Type = "bool"
	TypeVector2 Type = "vector2"
	TypeVector3 Type = "vector3"
	TypeEuler   Type = "euler" // degrees in documents, radians on live nodes
	TypeAngle   Type = "angle" // scalar variant of TypeEuler
	TypeColor   Type = "color"
	TypeEnum    Type = "enum"
	TypeNodeRef Type = "nodeRef"
	TypeObject  Type = "object"
)

// Hints carries editor-facing metadata. The loader and saver only read
// Hidden and ReadOnly.
type Hints struct {
	Label    string
	Category string
	Min      *float64
	Max      *float64
	Step     float64
	Options  []string
	Hidden   bool
	ReadOnly bool
}

// Property describes one reflected field.
type Property struct {
	Name string
	Type Type

	// Aliases are alternate document keys accepted when reading.
	Aliases []string

	// Transform marks properties that the saver collapses into the
	// "transform" object and that the loader also reads from it.
	Transform bool

	// Default is the canonical value the saver elides.
	Default any

	Hints Hints

	Get func(inst any) any
	Set func(inst any, value any) error
}

// Prop builds a Property whose accessors are typed on the instance type T.
// A nil set produces a read-only property.
func Prop[T any](name string, typ Type, def any, get func(T) any, set func(T, any) error) Property {
	p := Property{
		Name:    name,
		Type:    typ,
		Default: def,
		Get: func(inst any) any {
			v, ok := inst.(T)
			if !ok {
				return nil
			}
			return get(v)
		},
	}
	if set == nil {
		p.Hints.ReadOnly = true
		p.Set = func(any, any) error {
			return fmt.Errorf("%w: %s", ErrReadOnly, name)
		}
		return p
	}
	p.Set = func(inst any, value any) error {
		v, ok := inst.(T)
		if !ok {
			return fmt.Errorf("property %s: instance is %T", name, inst)
		}
		return set(v, value)
	}
	return p
}

// WithAliases returns a copy of p accepting the given alternate keys.
func (p Property) WithAliases(aliases ...string) Property {
	p.Aliases = append(append([]string(nil), p.Aliases...), aliases...)
	return p
}

// InTransform returns a copy of p marked as a transform field.
func (p Property) InTransform() Property {
	p.Transform = true
	return p
}

// WithHints returns a copy of p with the given hints, preserving ReadOnly
// when the property has no setter.
func (p Property) WithHints(h Hints) Property {
	ro := p.Hints.ReadOnly
	p.Hints = h
	p.Hints.ReadOnly = p.Hints.ReadOnly || ro
	return p
}

// Editable reports whether the property participates in snapshots and
// overrides.
func (p Property) Editable() bool {
	return !p.Hints.Hidden && !p.Hints.ReadOnly
}

// Schema is the descriptor set of one node or component kind.
type Schema struct {
	NodeType   string
	Extends    string
	Properties []Property
	Groups     []string
}

// Extend returns a schema for nodeType whose properties are the parent's
// followed by props. Subtyping is plain concatenation.
func Extend(parent *Schema, nodeType string, props ...Property) *Schema {
	s := &Schema{NodeType: nodeType}
	if parent != nil {
		s.Extends = parent.NodeType
		s.Properties = append(s.Properties, parent.Properties...)
		s.Groups = append(s.Groups, parent.Groups...)
	}
	s.Properties = append(s.Properties, props...)
	for _, p := range props {
		if c := p.Hints.Category; c != "" && !contains(s.Groups, c) {
			s.Groups = append(s.Groups, c)
		}
	}
	return s
}

// Lookup finds a property by name or alias.
func (s *Schema) Lookup(name string) (Property, bool) {
	if s == nil {
		return Property{}, false
	}
	for _, p := range s.Properties {
		if p.Name == name {
			return p, true
		}
	}
	for _, p := range s.Properties {
		if contains(p.Aliases, name) {
			return p, true
		}
	}
	return Property{}, false
}

// LookupTransform finds a transform property by name or alias.
func (s *Schema) LookupTransform(name string) (Property, bool) {
	p, ok := s.Lookup(name)
	if !ok || !p.Transform {
		return Property{}, false
	}
	return p, true
}

// Get reads a property value by name.
func (s *Schema) Get(inst any, name string) (any, error) {
	p, ok := s.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProperty, name)
	}
	return p.Get(inst), nil
}

// Set writes a canonical property value by name.
func (s *Schema) Set(inst any, name string, value any) error {
	p, ok := s.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProperty, name)
	}
	return p.Set(inst, value)
}

// Values returns every property value keyed by name. Values are deep copies.
func (s *Schema) Values(inst any) map[string]any {
	out := make(map[string]any, len(s.Properties))
	for _, p := range s.Properties {
		out[p.Name] = Clone(p.Get(inst))
	}
	return out
}

// EditableValues returns deep copies of the values of every property that is
// neither hidden nor read-only.
func (s *Schema) EditableValues(inst any) map[string]any {
	out := make(map[string]any)
	if s == nil {
		return out
	}
	for _, p := range s.Properties {
		if p.Editable() {
			out[p.Name] = Clone(p.Get(inst))
		}
	}
	return out
}

// NodeRefs returns the properties declared as node references.
func (s *Schema) NodeRefs() []Property {
	if s == nil {
		return nil
	}
	var refs []Property
	for _, p := range s.Properties {
		if p.Type == TypeNodeRef {
			refs = append(refs, p)
		}
	}
	return refs
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
