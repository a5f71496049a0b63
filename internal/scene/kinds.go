package scene

import "github.com/papapumpkin/scenery/internal/schema"

// Type names of the built-in kinds.
const (
	TypeNode             = "Node"
	TypeNode3D           = "Node3D"
	TypeGroup            = "Group"
	TypeMesh             = "Mesh"
	TypeDirectionalLight = "DirectionalLight"
	TypePointLight       = "PointLight"
	TypeCamera           = "Camera"
	TypeNode2D           = "Node2D"
	TypeSprite2D         = "Sprite2D"
	TypeControl          = "Control"
)

// RotationOrders are the accepted Euler orders.
var RotationOrders = []string{"XYZ", "XZY", "YXZ", "YZX", "ZXY", "ZYX"}

// Geometries are the primitive shapes a Mesh can carry.
var Geometries = []string{"box", "sphere", "plane", "cylinder", "cone", "torus"}

// Node3D is a node with a 3D transform. Rotation is stored in radians.
type Node3D struct {
	NodeBase
	Position      schema.Vector3
	Rotation      schema.Vector3
	Scale         schema.Vector3
	RotationOrder string
}

// AsNode3D returns the embedded transform node.
func (n *Node3D) AsNode3D() *Node3D { return n }

// NewNode3D returns a Node3D with unit scale.
func NewNode3D() *Node3D {
	n := &Node3D{}
	n.init3D(n, TypeNode3D)
	return n
}

func (n *Node3D) init3D(this Node, typ string) {
	n.init(this, typ)
	n.Scale = schema.Vec3(1, 1, 1)
	n.RotationOrder = "XYZ"
}

// Group is a Node3D that only organizes children.
type Group struct {
	Node3D
}

// NewGroup returns an empty group.
func NewGroup() *Group {
	n := &Group{}
	n.init3D(n, TypeGroup)
	return n
}

// Mesh is a primitive shape.
type Mesh struct {
	Node3D
	Geometry      string
	Size          schema.Vector3
	Color         string
	Material      string
	CastShadow    bool
	ReceiveShadow bool
}

// NewMesh returns a unit box.
func NewMesh() *Mesh {
	n := &Mesh{Geometry: "box", Size: schema.Vec3(1, 1, 1), Color: "#ffffff"}
	n.init3D(n, TypeMesh)
	return n
}

// DirectionalLight lights the scene along a direction, optionally aimed at
// another node.
type DirectionalLight struct {
	Node3D
	Color      string
	Intensity  float64
	CastShadow bool
	Target     string
}

// NewDirectionalLight returns a white light of intensity 1.
func NewDirectionalLight() *DirectionalLight {
	n := &DirectionalLight{Color: "#ffffff", Intensity: 1}
	n.init3D(n, TypeDirectionalLight)
	return n
}

// PointLight emits in all directions from its position.
type PointLight struct {
	Node3D
	Color     string
	Intensity float64
	Distance  float64
	Decay     float64
}

// NewPointLight returns a white light with physical decay.
func NewPointLight() *PointLight {
	n := &PointLight{Color: "#ffffff", Intensity: 1, Decay: 2}
	n.init3D(n, TypePointLight)
	return n
}

// Camera is a perspective camera.
type Camera struct {
	Node3D
	FOV     float64
	Near    float64
	Far     float64
	Current bool
	LookAt  string
}

// NewCamera returns a 50 degree perspective camera.
func NewCamera() *Camera {
	n := &Camera{FOV: 50, Near: 0.1, Far: 1000}
	n.init3D(n, TypeCamera)
	return n
}

// Node2D is a node with a 2D transform. Rotation is stored in radians.
type Node2D struct {
	NodeBase
	Position schema.Vector2
	Rotation float64
	Scale    schema.Vector2
	ZIndex   int
}

// AsNode2D returns the embedded 2D transform node.
func (n *Node2D) AsNode2D() *Node2D { return n }

// NewNode2D returns a Node2D with unit scale.
func NewNode2D() *Node2D {
	n := &Node2D{}
	n.init2D(n, TypeNode2D)
	return n
}

func (n *Node2D) init2D(this Node, typ string) {
	n.init(this, typ)
	n.Scale = schema.Vec2(1, 1)
}

// Sprite2D draws a texture.
type Sprite2D struct {
	Node2D
	Texture string
	Size    schema.Vector2
	Pivot   schema.Vector2
	Color   string
	FlipX   bool
}

// NewSprite2D returns a centered sprite.
func NewSprite2D() *Sprite2D {
	n := &Sprite2D{Pivot: schema.Vec2(0.5, 0.5), Color: "#ffffff"}
	n.init2D(n, TypeSprite2D)
	return n
}

// Control is a UI rectangle laid out by anchors and offsets.
type Control struct {
	NodeBase
	AnchorMin schema.Vector2
	AnchorMax schema.Vector2
	OffsetMin schema.Vector2
	OffsetMax schema.Vector2
	Pivot     schema.Vector2
	Text      string
}

// NewControl returns a control anchored to the top-left corner.
func NewControl() *Control {
	n := &Control{Pivot: schema.Vec2(0.5, 0.5)}
	n.init(n, TypeControl)
	return n
}

// NewGeneric returns the generic container, keeping typ as its declared
// type.
func NewGeneric(typ string) *NodeBase {
	n := &NodeBase{}
	n.init(n, typ)
	return n
}
