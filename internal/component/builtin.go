package component

import (
	"fmt"

	"github.com/papapumpkin/scenery/internal/scene"
	"github.com/papapumpkin/scenery/internal/schema"
)

// Built-in component type names.
const (
	TypeSpin   = "spin"
	TypeFollow = "follow"
	TypeTag    = "tag"
	TypeScript = "script"
)

type spatial interface{ AsNode3D() *scene.Node3D }

// Spin rotates a 3D node at a constant angular velocity. Speed is stored in
// radians per second and authored in degrees per second.
type Spin struct {
	Speed schema.Vector3
}

// SpinSchema describes Spin.
var SpinSchema = schema.Extend(nil, TypeSpin,
	schema.Prop("speed", schema.TypeEuler, schema.Vector3{},
		func(s *Spin) any { return s.Speed },
		func(s *Spin, v any) error {
			s.Speed = schema.ParseVector3(v, s.Speed)
			return nil
		}),
)

// OnUpdate advances the node's rotation.
func (s *Spin) OnUpdate(ctx *scene.Context, dt float64) error {
	n, ok := ctx.Node.(spatial)
	if !ok {
		return nil
	}
	t := n.AsNode3D()
	t.Rotation = t.Rotation.Add(s.Speed.Scale(dt))
	return nil
}

// Follow keeps a 3D node at a fixed offset from a target node.
type Follow struct {
	Target             string
	Offset             schema.Vector3
	EnabledWhenMissing bool
}

// FollowSchema describes Follow.
var FollowSchema = schema.Extend(nil, TypeFollow,
	schema.Prop("target", schema.TypeNodeRef, "",
		func(f *Follow) any { return f.Target },
		func(f *Follow, v any) error {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("target must be a node id, got %T", v)
			}
			f.Target = s
			return nil
		}),
	schema.Prop("offset", schema.TypeVector3, schema.Vector3{},
		func(f *Follow) any { return f.Offset },
		func(f *Follow, v any) error {
			f.Offset = schema.ParseVector3(v, f.Offset)
			return nil
		}),
	schema.Prop("enabledWhenMissing", schema.TypeBool, true,
		func(f *Follow) any { return f.EnabledWhenMissing },
		func(f *Follow, v any) error {
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("enabledWhenMissing must be a bool, got %T", v)
			}
			f.EnabledWhenMissing = b
			return nil
		}),
)

// OnUpdate moves the node next to its target. A missing target disables the
// component unless EnabledWhenMissing is set.
func (f *Follow) OnUpdate(ctx *scene.Context, _ float64) error {
	target := ctx.Graph.FindByID(f.Target)
	if target == nil {
		if !f.EnabledWhenMissing {
			ctx.Slot.Enabled = false
		}
		return nil
	}
	self, ok := ctx.Node.(spatial)
	if !ok {
		return nil
	}
	t, ok := target.(spatial)
	if !ok {
		return nil
	}
	self.AsNode3D().Position = t.AsNode3D().Position.Add(f.Offset)
	return nil
}

// Tag labels a node and answers group broadcasts.
type Tag struct {
	Label string
	Calls int
}

// TagSchema describes Tag. The call counter is runtime state and read-only.
var TagSchema = schema.Extend(nil, TypeTag,
	schema.Prop("label", schema.TypeString, "",
		func(t *Tag) any { return t.Label },
		func(t *Tag, v any) error {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("label must be a string, got %T", v)
			}
			t.Label = s
			return nil
		}),
	schema.Prop("calls", schema.TypeInteger, 0,
		func(t *Tag) any { return t.Calls }, nil),
)

// HandleMessage answers "ping" with the label and "relabel" by replacing it.
func (t *Tag) HandleMessage(ctx *scene.Context, method string, args []any) (any, error) {
	t.Calls++
	switch method {
	case "ping":
		return t.Label, nil
	case "relabel":
		if len(args) != 1 {
			return nil, fmt.Errorf("relabel takes one argument, got %d", len(args))
		}
		s, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("relabel argument must be a string, got %T", args[0])
		}
		t.Label = s
		return s, nil
	}
	return nil, nil
}
