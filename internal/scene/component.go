package scene

import (
	"fmt"

	"github.com/papapumpkin/scenery/internal/schema"
)

// Component is the behavior attached to a node. Implementations opt into
// lifecycle callbacks through the optional interfaces below.
type Component interface{}

// Attacher is notified when its component is attached to a node.
type Attacher interface {
	OnAttach(ctx *Context)
}

// Starter is notified once before its first update.
type Starter interface {
	OnStart(ctx *Context)
}

// Updater runs every tick while its component is enabled and started.
type Updater interface {
	OnUpdate(ctx *Context, dt float64) error
}

// Detacher is notified when its component is removed.
type Detacher interface {
	OnDetach(ctx *Context)
}

// MessageHandler answers group broadcasts.
type MessageHandler interface {
	HandleMessage(ctx *Context, method string, args []any) (any, error)
}

// Context is passed to component callbacks.
type Context struct {
	Graph *Graph
	Node  Node
	Slot  *ComponentSlot
}

// ComponentRegistry creates components by type and exposes their schemas.
type ComponentRegistry interface {
	CreateComponent(typ, id string) (Component, bool)
	ComponentSchema(typ string) *schema.Schema
}

// ComponentState is the lifecycle position of an attached component.
type ComponentState int

const (
	Unattached ComponentState = iota
	Attached
	Started
	Removed
)

func (s ComponentState) String() string {
	switch s {
	case Unattached:
		return "unattached"
	case Attached:
		return "attached"
	case Started:
		return "started"
	case Removed:
		return "removed"
	}
	return fmt.Sprintf("ComponentState(%d)", int(s))
}

// ComponentSlot is one component attached to a node.
type ComponentSlot struct {
	ID      string
	Type    string
	Enabled bool
	Impl    Component
	State   ComponentState
}

// Pending reports whether the slot is waiting for its first start.
func (s *ComponentSlot) Pending() bool {
	return s.Enabled && s.State == Attached
}

// Components returns the node's slots in attach order.
func (n *NodeBase) Components() []*ComponentSlot {
	return n.components
}

// Component returns the slot with the given id, or nil.
func (n *NodeBase) Component(id string) *ComponentSlot {
	for _, s := range n.components {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// ComponentOfType returns the first slot of the given type, or nil.
func (n *NodeBase) ComponentOfType(typ string) *ComponentSlot {
	for _, s := range n.components {
		if s.Type == typ {
			return s
		}
	}
	return nil
}

// ConfigureComponent applies a config object through the component schema.
// Unknown keys are returned so callers can warn about them.
func ConfigureComponent(s *schema.Schema, c Component, config map[string]any) (unknown []string, err error) {
	for key, raw := range config {
		p, ok := s.Lookup(key)
		if !ok || p.Hints.ReadOnly {
			unknown = append(unknown, key)
			continue
		}
		v, err := schema.DecodeProperty(p, raw, p.Get(c))
		if err != nil {
			return unknown, err
		}
		if err := p.Set(c, v); err != nil {
			return unknown, fmt.Errorf("property %s: %w", p.Name, err)
		}
	}
	return unknown, nil
}

// CopyComponents recreates src's components on dst through reg, carrying
// their state over through the component schemas.
func CopyComponents(reg ComponentRegistry, src, dst Node) error {
	d := dst.AsNode()
	for _, slot := range src.AsNode().components {
		impl, ok := reg.CreateComponent(slot.Type, slot.ID)
		if !ok {
			continue
		}
		if s := reg.ComponentSchema(slot.Type); s != nil {
			for _, p := range s.Properties {
				if p.Hints.ReadOnly {
					continue
				}
				if err := p.Set(impl, schema.Clone(p.Get(slot.Impl))); err != nil {
					return fmt.Errorf("scene: copy component %s.%s: %w", slot.ID, p.Name, err)
				}
			}
		}
		d.AddComponent(&ComponentSlot{ID: slot.ID, Type: slot.Type, Enabled: slot.Enabled, Impl: impl})
	}
	return nil
}
