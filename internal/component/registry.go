// Package component provides the component registry consumed by the loader
// and the built-in component kinds.
package component

import (
	"sort"
	"sync"

	"github.com/papapumpkin/scenery/internal/scene"
	"github.com/papapumpkin/scenery/internal/schema"
)

// Factory creates a component instance with its defaults.
type Factory func(id string) scene.Component

type entry struct {
	schema  *schema.Schema
	factory Factory
}

// Registry maps component type names to factories and schemas. It
// satisfies scene.ComponentRegistry and is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Default returns a registry holding the built-in components. types is
// used by script components to reach node schemas.
func Default(types *scene.Types) *Registry {
	r := NewRegistry()
	r.Register(TypeSpin, SpinSchema, func(string) scene.Component { return &Spin{} })
	r.Register(TypeFollow, FollowSchema, func(string) scene.Component { return &Follow{EnabledWhenMissing: true} })
	r.Register(TypeTag, TagSchema, func(string) scene.Component { return &Tag{} })
	r.Register(TypeScript, ScriptSchema, func(string) scene.Component { return NewScript(types) })
	return r
}

// Register adds or replaces a component type.
func (r *Registry) Register(typ string, s *schema.Schema, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[typ] = entry{schema: s, factory: f}
}

// CreateComponent returns a new component, or false for unknown types.
func (r *Registry) CreateComponent(typ, id string) (scene.Component, bool) {
	r.mu.RLock()
	e, ok := r.entries[typ]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.factory(id), true
}

// ComponentSchema returns the schema for typ, or nil.
func (r *Registry) ComponentSchema(typ string) *schema.Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[typ].schema
}

// Types lists the registered type names sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for t := range r.entries {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
