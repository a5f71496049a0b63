// Package scene holds the live node tree: node kinds, the type-keyed
// constructor table, attached components and the Graph that owns a parsed
// tree together with its id index and prefab provenance.
package scene

import (
	"sort"
	"strings"

	"github.com/jinzhu/copier"

	"github.com/papapumpkin/scenery/internal/schema"
)

// Node is implemented by every live node kind. Concrete kinds embed
// NodeBase (directly or through another kind) and so satisfy it.
type Node interface {
	AsNode() *NodeBase
}

// NodeBase is the shared state of every node. It is also the generic
// container used for the default "Node" type and for unknown types.
type NodeBase struct {
	ID      string
	Type    string
	Name    string
	Visible bool

	// Properties is the free-form bag for document properties the node's
	// schema does not declare.
	Properties map[string]any

	// Metadata is the free-form metadata bag. Prefab provenance is kept on
	// the Graph, not here.
	Metadata map[string]any

	Groups map[string]bool

	// This is the node as its outermost concrete type.
	This Node `copier:"-"`

	parent     Node
	children   []Node
	components []*ComponentSlot
	graph      *Graph
}

// AsNode returns the NodeBase for this node.
func (n *NodeBase) AsNode() *NodeBase {
	return n
}

// init wires This and the defaults shared by all kinds.
func (n *NodeBase) init(this Node, typ string) {
	n.This = this
	n.Type = typ
	n.Visible = true
}

// Graph returns the graph the node is registered in, or nil.
func (n *NodeBase) Graph() *Graph {
	return n.graph
}

// Parent returns the parent node, or nil for a root.
func (n *NodeBase) Parent() Node {
	return n.parent
}

// Children returns the direct children in order. The slice must not be
// modified.
func (n *NodeBase) Children() []Node {
	return n.children
}

// AddChild appends child, first detaching it from any previous parent.
func (n *NodeBase) AddChild(child Node) {
	cb := child.AsNode()
	if cb.parent != nil {
		cb.parent.AsNode().RemoveChild(child)
	}
	cb.parent = n.self()
	n.children = append(n.children, cb.self())
}

// RemoveChild detaches child. It reports whether child was a direct child.
func (n *NodeBase) RemoveChild(child Node) bool {
	cb := child.AsNode()
	for i, c := range n.children {
		if c.AsNode() == cb {
			n.children = append(n.children[:i], n.children[i+1:]...)
			cb.parent = nil
			return true
		}
	}
	return false
}

// FindChild returns the first direct child whose id or name equals key.
func (n *NodeBase) FindChild(key string) Node {
	for _, c := range n.children {
		cb := c.AsNode()
		if cb.ID == key || cb.Name == key {
			return c
		}
	}
	return nil
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func (n *NodeBase) Walk(fn func(Node) bool) {
	if !fn(n.self()) {
		return
	}
	for _, c := range n.children {
		c.AsNode().Walk(fn)
	}
}

// Path returns the slash-joined ids from the root to n.
func (n *NodeBase) Path() string {
	var parts []string
	for cur := n.self(); cur != nil; cur = cur.AsNode().parent {
		parts = append(parts, cur.AsNode().ID)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/")
}

// Depth is the number of ancestors.
func (n *NodeBase) Depth() int {
	d := 0
	for cur := n.parent; cur != nil; cur = cur.AsNode().parent {
		d++
	}
	return d
}

func (n *NodeBase) self() Node {
	if n.This != nil {
		return n.This
	}
	return n
}

// Property returns a free-form bag entry.
func (n *NodeBase) Property(key string) (any, bool) {
	v, ok := n.Properties[key]
	return v, ok
}

// SetProperty stores a deep copy of v in the free-form bag.
func (n *NodeBase) SetProperty(key string, v any) {
	if n.Properties == nil {
		n.Properties = make(map[string]any)
	}
	n.Properties[key] = schema.Clone(v)
}

// AddGroup adds the node to a group.
func (n *NodeBase) AddGroup(group string) {
	if n.Groups == nil {
		n.Groups = make(map[string]bool)
	}
	if !n.Groups[group] {
		n.Groups[group] = true
		n.touch()
	}
}

// RemoveGroup removes the node from a group.
func (n *NodeBase) RemoveGroup(group string) {
	if n.Groups[group] {
		delete(n.Groups, group)
		n.touch()
	}
}

// InGroup reports group membership.
func (n *NodeBase) InGroup(group string) bool {
	return n.Groups[group]
}

// GroupNames returns the node's groups sorted.
func (n *NodeBase) GroupNames() []string {
	names := make([]string, 0, len(n.Groups))
	for g := range n.Groups {
		names = append(names, g)
	}
	sort.Strings(names)
	return names
}

func (n *NodeBase) touch() {
	if n.graph != nil {
		n.graph.revision++
	}
}

// CopyFieldsFrom deep-copies the exported fields of from into n, which must
// be of the same concrete type. Tree links, components and graph
// registration are kept; the free-form bags are cloned.
func (n *NodeBase) CopyFieldsFrom(from Node) error {
	this, parent, children, components, graph := n.This, n.parent, n.children, n.components, n.graph
	err := copier.CopyWithOption(n.self(), from.AsNode().self(), copier.Option{CaseSensitive: true, DeepCopy: true})
	n.This, n.parent, n.children, n.components, n.graph = this, parent, children, components, graph
	if err != nil {
		return err
	}
	src := from.AsNode()
	n.Properties = schema.CloneMap(src.Properties)
	n.Metadata = schema.CloneMap(src.Metadata)
	n.Groups = nil
	for g := range src.Groups {
		n.AddGroup(g)
	}
	return nil
}
