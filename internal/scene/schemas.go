package scene

import (
	"fmt"
	"math"

	"github.com/papapumpkin/scenery/internal/schema"
)

type spatial interface{ AsNode3D() *Node3D }

type planar interface{ AsNode2D() *Node2D }

func ptr(f float64) *float64 { return &f }

func toString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

func toBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", v)
	}
	return b, nil
}

func toNumber(v any, h schema.Hints) (float64, error) {
	f, ok := schema.Number(v)
	if !ok || math.IsNaN(f) {
		return 0, fmt.Errorf("expected number, got %v", v)
	}
	if h.Min != nil && f < *h.Min {
		return 0, fmt.Errorf("%v is below minimum %v", f, *h.Min)
	}
	if h.Max != nil && f > *h.Max {
		return 0, fmt.Errorf("%v is above maximum %v", f, *h.Max)
	}
	return f, nil
}

func setString(dst *string, v any) error {
	s, err := toString(v)
	if err == nil {
		*dst = s
	}
	return err
}

func setBool(dst *bool, v any) error {
	b, err := toBool(v)
	if err == nil {
		*dst = b
	}
	return err
}

func setNumber(dst *float64, v any, h schema.Hints) error {
	f, err := toNumber(v, h)
	if err == nil {
		*dst = f
	}
	return err
}

func setColor(dst *string, v any) error {
	c, err := toColor(v)
	if err == nil {
		*dst = c
	}
	return err
}

func setEnum(dst *string, v any, options []string) error {
	s, err := toEnum(v, options)
	if err == nil {
		*dst = s
	}
	return err
}

func toColor(v any) (string, error) {
	c, err := schema.Decode(schema.TypeColor, v, nil)
	if err != nil {
		return "", err
	}
	return c.(string), nil
}

func toEnum(v any, options []string) (string, error) {
	s, err := toString(v)
	if err != nil {
		return "", err
	}
	for _, o := range options {
		if o == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("%q is not one of %v", s, options)
}

// NodeSchema is the schema shared by every node kind.
var NodeSchema = schema.Extend(nil, TypeNode,
	schema.Prop("visible", schema.TypeBool, true,
		func(n Node) any { return n.AsNode().Visible },
		func(n Node, v any) error {
			return setBool(&n.AsNode().Visible, v)
		}).WithHints(schema.Hints{Category: "Node"}),
)

var rotationOrderHints = schema.Hints{Category: "Transform", Options: RotationOrders}

// Node3DSchema adds the 3D transform.
var Node3DSchema = schema.Extend(NodeSchema, TypeNode3D,
	schema.Prop("position", schema.TypeVector3, schema.Vector3{},
		func(n spatial) any { return n.AsNode3D().Position },
		func(n spatial, v any) error {
			t := n.AsNode3D()
			t.Position = schema.ParseVector3(v, t.Position)
			return nil
		}).InTransform().WithAliases("translate").WithHints(schema.Hints{Category: "Transform"}),
	schema.Prop("rotation", schema.TypeEuler, schema.Vector3{},
		func(n spatial) any { return n.AsNode3D().Rotation },
		func(n spatial, v any) error {
			t := n.AsNode3D()
			t.Rotation = schema.ParseVector3(v, t.Rotation)
			return nil
		}).InTransform().WithAliases("rotationEuler", "euler").WithHints(schema.Hints{Category: "Transform"}),
	schema.Prop("scale", schema.TypeVector3, schema.Vec3(1, 1, 1),
		func(n spatial) any { return n.AsNode3D().Scale },
		func(n spatial, v any) error {
			t := n.AsNode3D()
			t.Scale = schema.ParseVector3(v, t.Scale)
			return nil
		}).InTransform().WithHints(schema.Hints{Category: "Transform"}),
	schema.Prop("rotationOrder", schema.TypeEnum, "XYZ",
		func(n spatial) any { return n.AsNode3D().RotationOrder },
		func(n spatial, v any) error {
			return setEnum(&n.AsNode3D().RotationOrder, v, RotationOrders)
		}).InTransform().WithHints(rotationOrderHints),
)

// GroupSchema is Node3DSchema under another name.
var GroupSchema = schema.Extend(Node3DSchema, TypeGroup)

var (
	intensityHints = schema.Hints{Category: "Light", Min: ptr(0)}
	lightHints     = schema.Hints{Category: "Light"}
)

// MeshSchema describes primitive meshes.
var MeshSchema = schema.Extend(Node3DSchema, TypeMesh,
	schema.Prop("geometry", schema.TypeEnum, "box",
		func(n *Mesh) any { return n.Geometry },
		func(n *Mesh, v any) error {
			return setEnum(&n.Geometry, v, Geometries)
		}).WithHints(schema.Hints{Category: "Mesh", Options: Geometries}),
	schema.Prop("size", schema.TypeVector3, schema.Vec3(1, 1, 1),
		func(n *Mesh) any { return n.Size },
		func(n *Mesh, v any) error {
			n.Size = schema.ParseVector3(v, n.Size)
			return nil
		}).WithHints(schema.Hints{Category: "Mesh"}),
	schema.Prop("color", schema.TypeColor, "#ffffff",
		func(n *Mesh) any { return n.Color },
		func(n *Mesh, v any) error {
			return setColor(&n.Color, v)
		}).WithHints(schema.Hints{Category: "Material"}),
	schema.Prop("material", schema.TypeString, "",
		func(n *Mesh) any { return n.Material },
		func(n *Mesh, v any) error {
			return setString(&n.Material, v)
		}).WithHints(schema.Hints{Category: "Material"}),
	schema.Prop("castShadow", schema.TypeBool, false,
		func(n *Mesh) any { return n.CastShadow },
		func(n *Mesh, v any) error {
			return setBool(&n.CastShadow, v)
		}).WithHints(schema.Hints{Category: "Shadow"}),
	schema.Prop("receiveShadow", schema.TypeBool, false,
		func(n *Mesh) any { return n.ReceiveShadow },
		func(n *Mesh, v any) error {
			return setBool(&n.ReceiveShadow, v)
		}).WithHints(schema.Hints{Category: "Shadow"}),
)

// DirectionalLightSchema describes directional lights.
var DirectionalLightSchema = schema.Extend(Node3DSchema, TypeDirectionalLight,
	schema.Prop("color", schema.TypeColor, "#ffffff",
		func(n *DirectionalLight) any { return n.Color },
		func(n *DirectionalLight, v any) error {
			return setColor(&n.Color, v)
		}).WithHints(lightHints),
	schema.Prop("intensity", schema.TypeNumber, 1.0,
		func(n *DirectionalLight) any { return n.Intensity },
		func(n *DirectionalLight, v any) error {
			return setNumber(&n.Intensity, v, intensityHints)
		}).WithHints(intensityHints),
	schema.Prop("castShadow", schema.TypeBool, false,
		func(n *DirectionalLight) any { return n.CastShadow },
		func(n *DirectionalLight, v any) error {
			return setBool(&n.CastShadow, v)
		}).WithHints(lightHints),
	schema.Prop("target", schema.TypeNodeRef, "",
		func(n *DirectionalLight) any { return n.Target },
		func(n *DirectionalLight, v any) error {
			return setString(&n.Target, v)
		}).WithHints(lightHints),
)

// PointLightSchema describes point lights.
var PointLightSchema = schema.Extend(Node3DSchema, TypePointLight,
	schema.Prop("color", schema.TypeColor, "#ffffff",
		func(n *PointLight) any { return n.Color },
		func(n *PointLight, v any) error {
			return setColor(&n.Color, v)
		}).WithHints(lightHints),
	schema.Prop("intensity", schema.TypeNumber, 1.0,
		func(n *PointLight) any { return n.Intensity },
		func(n *PointLight, v any) error {
			return setNumber(&n.Intensity, v, intensityHints)
		}).WithHints(intensityHints),
	schema.Prop("distance", schema.TypeNumber, 0.0,
		func(n *PointLight) any { return n.Distance },
		func(n *PointLight, v any) error {
			return setNumber(&n.Distance, v, intensityHints)
		}).WithHints(intensityHints),
	schema.Prop("decay", schema.TypeNumber, 2.0,
		func(n *PointLight) any { return n.Decay },
		func(n *PointLight, v any) error {
			return setNumber(&n.Decay, v, intensityHints)
		}).WithHints(intensityHints),
)

var (
	fovHints  = schema.Hints{Category: "Camera", Min: ptr(1), Max: ptr(179)}
	clipHints = schema.Hints{Category: "Camera", Min: ptr(0)}
)

// CameraSchema describes perspective cameras.
var CameraSchema = schema.Extend(Node3DSchema, TypeCamera,
	schema.Prop("fov", schema.TypeNumber, 50.0,
		func(n *Camera) any { return n.FOV },
		func(n *Camera, v any) error {
			return setNumber(&n.FOV, v, fovHints)
		}).WithHints(fovHints),
	schema.Prop("near", schema.TypeNumber, 0.1,
		func(n *Camera) any { return n.Near },
		func(n *Camera, v any) error {
			return setNumber(&n.Near, v, clipHints)
		}).WithHints(clipHints),
	schema.Prop("far", schema.TypeNumber, 1000.0,
		func(n *Camera) any { return n.Far },
		func(n *Camera, v any) error {
			return setNumber(&n.Far, v, clipHints)
		}).WithHints(clipHints),
	schema.Prop("current", schema.TypeBool, false,
		func(n *Camera) any { return n.Current },
		func(n *Camera, v any) error {
			return setBool(&n.Current, v)
		}).WithHints(schema.Hints{Category: "Camera"}),
	schema.Prop("lookAt", schema.TypeNodeRef, "",
		func(n *Camera) any { return n.LookAt },
		func(n *Camera, v any) error {
			return setString(&n.LookAt, v)
		}).WithHints(schema.Hints{Category: "Camera"}),
)

// Node2DSchema adds the 2D transform.
var Node2DSchema = schema.Extend(NodeSchema, TypeNode2D,
	schema.Prop("position", schema.TypeVector2, schema.Vector2{},
		func(n planar) any { return n.AsNode2D().Position },
		func(n planar, v any) error {
			t := n.AsNode2D()
			t.Position = schema.ParseVector2(v, t.Position)
			return nil
		}).InTransform().WithAliases("translate").WithHints(schema.Hints{Category: "Transform"}),
	schema.Prop("rotation", schema.TypeAngle, 0.0,
		func(n planar) any { return n.AsNode2D().Rotation },
		func(n planar, v any) error {
			return setNumber(&n.AsNode2D().Rotation, v, schema.Hints{})
		}).InTransform().WithHints(schema.Hints{Category: "Transform"}),
	schema.Prop("scale", schema.TypeVector2, schema.Vec2(1, 1),
		func(n planar) any { return n.AsNode2D().Scale },
		func(n planar, v any) error {
			t := n.AsNode2D()
			t.Scale = schema.ParseVector2(v, t.Scale)
			return nil
		}).InTransform().WithHints(schema.Hints{Category: "Transform"}),
	schema.Prop("zIndex", schema.TypeInteger, 0,
		func(n planar) any { return n.AsNode2D().ZIndex },
		func(n planar, v any) error {
			f, err := toNumber(v, schema.Hints{})
			if err != nil {
				return err
			}
			n.AsNode2D().ZIndex = int(f)
			return nil
		}).WithHints(schema.Hints{Category: "Ordering"}),
)

// Sprite2DSchema describes textured sprites.
var Sprite2DSchema = schema.Extend(Node2DSchema, TypeSprite2D,
	schema.Prop("texture", schema.TypeString, "",
		func(n *Sprite2D) any { return n.Texture },
		func(n *Sprite2D, v any) error {
			return setString(&n.Texture, v)
		}).WithHints(schema.Hints{Category: "Sprite"}),
	schema.Prop("size", schema.TypeVector2, schema.Vector2{},
		func(n *Sprite2D) any { return n.Size },
		func(n *Sprite2D, v any) error {
			n.Size = schema.ParseVector2(v, n.Size)
			return nil
		}).WithHints(schema.Hints{Category: "Sprite"}),
	schema.Prop("pivot", schema.TypeVector2, schema.Vec2(0.5, 0.5),
		func(n *Sprite2D) any { return n.Pivot },
		func(n *Sprite2D, v any) error {
			n.Pivot = schema.ParseVector2(v, n.Pivot)
			return nil
		}).WithHints(schema.Hints{Category: "Sprite"}),
	schema.Prop("color", schema.TypeColor, "#ffffff",
		func(n *Sprite2D) any { return n.Color },
		func(n *Sprite2D, v any) error {
			return setColor(&n.Color, v)
		}).WithHints(schema.Hints{Category: "Sprite"}),
	schema.Prop("flipX", schema.TypeBool, false,
		func(n *Sprite2D) any { return n.FlipX },
		func(n *Sprite2D, v any) error {
			return setBool(&n.FlipX, v)
		}).WithHints(schema.Hints{Category: "Sprite"}),
)

func controlVec(name string, def schema.Vector2, field func(*Control) *schema.Vector2) schema.Property {
	return schema.Prop(name, schema.TypeVector2, def,
		func(n *Control) any { return *field(n) },
		func(n *Control, v any) error {
			f := field(n)
			*f = schema.ParseVector2(v, *f)
			return nil
		}).WithHints(schema.Hints{Category: "Layout"})
}

// ControlSchema describes anchored UI rectangles.
var ControlSchema = schema.Extend(NodeSchema, TypeControl,
	controlVec("anchorMin", schema.Vector2{}, func(n *Control) *schema.Vector2 { return &n.AnchorMin }),
	controlVec("anchorMax", schema.Vector2{}, func(n *Control) *schema.Vector2 { return &n.AnchorMax }),
	controlVec("offsetMin", schema.Vector2{}, func(n *Control) *schema.Vector2 { return &n.OffsetMin }),
	controlVec("offsetMax", schema.Vector2{}, func(n *Control) *schema.Vector2 { return &n.OffsetMax }),
	controlVec("pivot", schema.Vec2(0.5, 0.5), func(n *Control) *schema.Vector2 { return &n.Pivot }),
	schema.Prop("text", schema.TypeString, "",
		func(n *Control) any { return n.Text },
		func(n *Control, v any) error {
			return setString(&n.Text, v)
		}).WithHints(schema.Hints{Category: "Text"}),
)
