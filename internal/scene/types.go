package scene

import (
	"fmt"
	"sort"
	"sync"

	"github.com/papapumpkin/scenery/internal/schema"
)

// Constructor returns a fresh node of one kind with its defaults applied.
type Constructor func() Node

type kind struct {
	schema *schema.Schema
	ctor   Constructor
}

// Types is the type-keyed constructor table. It is safe for concurrent use.
type Types struct {
	mu    sync.RWMutex
	kinds map[string]kind
}

// NewTypes returns an empty table. Unknown types always resolve to the
// generic container.
func NewTypes() *Types {
	return &Types{kinds: make(map[string]kind)}
}

// DefaultTypes returns a table holding every built-in kind.
func DefaultTypes() *Types {
	t := NewTypes()
	t.Register(TypeNode, NodeSchema, func() Node { return NewGeneric(TypeNode) })
	t.Register(TypeNode3D, Node3DSchema, func() Node { return NewNode3D() })
	t.Register(TypeGroup, GroupSchema, func() Node { return NewGroup() })
	t.Register(TypeMesh, MeshSchema, func() Node { return NewMesh() })
	t.Register(TypeDirectionalLight, DirectionalLightSchema, func() Node { return NewDirectionalLight() })
	t.Register(TypePointLight, PointLightSchema, func() Node { return NewPointLight() })
	t.Register(TypeCamera, CameraSchema, func() Node { return NewCamera() })
	t.Register(TypeNode2D, Node2DSchema, func() Node { return NewNode2D() })
	t.Register(TypeSprite2D, Sprite2DSchema, func() Node { return NewSprite2D() })
	t.Register(TypeControl, ControlSchema, func() Node { return NewControl() })
	return t
}

// Register adds or replaces a kind.
func (t *Types) Register(name string, s *schema.Schema, ctor Constructor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.kinds[name] = kind{schema: s, ctor: ctor}
}

// Known reports whether name is registered.
func (t *Types) Known(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.kinds[name]
	return ok
}

// Names lists the registered type names sorted.
func (t *Types) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.kinds))
	for n := range t.kinds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New constructs a node of the given type. Unknown types produce the
// generic container carrying the declared type string.
func (t *Types) New(typ string) Node {
	t.mu.RLock()
	k, ok := t.kinds[typ]
	t.mu.RUnlock()
	if !ok {
		return NewGeneric(typ)
	}
	n := k.ctor()
	n.AsNode().Type = typ
	return n
}

// Schema returns the schema for a type name, falling back to NodeSchema.
func (t *Types) Schema(typ string) *schema.Schema {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if k, ok := t.kinds[typ]; ok {
		return k.schema
	}
	return NodeSchema
}

// SchemaOf returns the schema for a live node's declared type.
func (t *Types) SchemaOf(n Node) *schema.Schema {
	return t.Schema(n.AsNode().Type)
}

// Duplicate deep-copies n and its descendants into fresh nodes of the same
// types. The copies carry no id, parent or components.
func (t *Types) Duplicate(n Node) (Node, error) {
	src := n.AsNode()
	dup := t.New(src.Type)
	if err := dup.AsNode().CopyFieldsFrom(n); err != nil {
		return nil, fmt.Errorf("scene: duplicate %s: %w", src.ID, err)
	}
	dup.AsNode().ID = ""
	for _, c := range src.children {
		cd, err := t.Duplicate(c)
		if err != nil {
			return nil, err
		}
		dup.AsNode().AddChild(cd)
	}
	return dup, nil
}
