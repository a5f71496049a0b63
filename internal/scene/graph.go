package scene

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/papapumpkin/scenery/internal/schema"
)

// ErrDuplicateID is returned when registering an id already in the index.
var ErrDuplicateID = errors.New("duplicate node id")

// ErrNotFound is returned when an id is not in the index.
var ErrNotFound = errors.New("node not found")

// PrefabMarker records where an instanced node came from. Markers live in
// the Graph keyed by runtime node id.
type PrefabMarker struct {
	// LocalID is the node's id as written in SourcePath.
	LocalID string
	// EffectiveLocalID addresses the node relative to its outermost
	// instance root and is the override key space.
	EffectiveLocalID string
	// InstanceRootID is the runtime id of the outermost instance root.
	InstanceRootID string
	// SourcePath is the normalized path of the document that declared the
	// node.
	SourcePath string

	// The remaining fields are set on instance roots only.

	// InstancePath is the instance reference as written.
	InstancePath string
	// BaseProperties is the pre-override snapshot keyed by effective
	// local id.
	BaseProperties map[string]map[string]any
	BaseName       string
	BaseGroups     []string
	BaseMetadata   map[string]any
}

// IsInstanceRoot reports whether the marker belongs to an instance root.
func (m *PrefabMarker) IsInstanceRoot() bool {
	return m != nil && m.InstancePath != ""
}

// Graph owns one parsed tree.
type Graph struct {
	// SessionID identifies this graph instance across reloads.
	SessionID   string
	Version     string
	Description string
	Metadata    map[string]any
	SourcePath  string

	// Dependencies lists every normalized document path instanced while
	// building the graph, in first-visit order.
	Dependencies []string

	// Warnings collects non-fatal load conditions.
	Warnings []string

	roots    []Node
	index    map[string]Node
	markers  map[string]*PrefabMarker
	revision uint64
	running  bool
	held     bool
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		SessionID: uuid.NewString(),
		index:     make(map[string]Node),
		markers:   make(map[string]*PrefabMarker),
	}
}

// Roots returns the top-level nodes.
func (g *Graph) Roots() []Node {
	return g.roots
}

// AddRoot appends n to the root list.
func (g *Graph) AddRoot(n Node) {
	g.roots = append(g.roots, n)
	g.revision++
}

// Revision increases on every structural or group change.
func (g *Graph) Revision() uint64 {
	return g.revision
}

// Len is the number of registered nodes.
func (g *Graph) Len() int {
	return len(g.index)
}

// Register adds n to the id index and attaches its pending components.
func (g *Graph) Register(n Node) error {
	b := n.AsNode()
	if b.ID == "" {
		return fmt.Errorf("scene: register: empty node id")
	}
	if _, ok := g.index[b.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, b.ID)
	}
	g.index[b.ID] = b.self()
	b.graph = g
	g.revision++
	if g.held {
		return nil
	}
	for _, s := range b.components {
		if s.State == Unattached {
			g.attach(b.self(), s)
		}
	}
	return nil
}

// RegisterTree registers n and its descendants, stopping at the first error.
func (g *Graph) RegisterTree(n Node) error {
	var err error
	n.AsNode().Walk(func(c Node) bool {
		if err != nil {
			return false
		}
		err = g.Register(c)
		return err == nil
	})
	return err
}

// Has reports whether id is registered.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// FindByID returns the node registered under id, or nil.
func (g *Graph) FindByID(id string) Node {
	return g.index[id]
}

// Nodes returns every node depth-first from the roots.
func (g *Graph) Nodes() []Node {
	var out []Node
	g.Walk(func(n Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

// IDs returns the registered ids sorted.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.index))
	for id := range g.index {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Walk visits every node depth-first from the roots.
func (g *Graph) Walk(fn func(Node) bool) {
	for _, r := range g.roots {
		r.AsNode().Walk(fn)
	}
}

// Remove detaches the node with the given id and its subtree from the graph,
// firing detach callbacks and dropping their markers.
func (g *Graph) Remove(id string) error {
	n, ok := g.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	b := n.AsNode()
	if b.parent != nil {
		b.parent.AsNode().RemoveChild(n)
	} else {
		for i, r := range g.roots {
			if r.AsNode() == b {
				g.roots = append(g.roots[:i], g.roots[i+1:]...)
				break
			}
		}
	}
	b.Walk(func(c Node) bool {
		cb := c.AsNode()
		for len(cb.components) > 0 {
			g.detach(c, cb.components[0])
		}
		delete(g.index, cb.ID)
		delete(g.markers, cb.ID)
		cb.graph = nil
		return true
	})
	g.revision++
	return nil
}

// Marker returns the prefab marker for a node id, or nil.
func (g *Graph) Marker(id string) *PrefabMarker {
	return g.markers[id]
}

// SetMarker records provenance for a node id. A nil marker clears it.
func (g *Graph) SetMarker(id string, m *PrefabMarker) {
	if m == nil {
		delete(g.markers, id)
		return
	}
	g.markers[id] = m
}

// InstanceRoot returns the outermost instance root containing id, or nil
// for nodes that did not come from an instance.
func (g *Graph) InstanceRoot(id string) Node {
	m := g.markers[id]
	if m == nil {
		return nil
	}
	return g.index[m.InstanceRootID]
}

// Warn records a non-fatal condition.
func (g *Graph) Warn(format string, args ...any) {
	g.Warnings = append(g.Warnings, fmt.Sprintf(format, args...))
}

// UniqueID returns base if unused, otherwise base_2, base_3 and so on.
// taken reports ids reserved outside the index.
func (g *Graph) UniqueID(base string, taken func(string) bool) string {
	used := func(id string) bool {
		return g.Has(id) || (taken != nil && taken(id))
	}
	if !used(base) {
		return base
	}
	for i := 2; ; i++ {
		id := fmt.Sprintf("%s_%d", base, i)
		if !used(id) {
			return id
		}
	}
}

// Snapshot reads the editable schema values of n plus its free-form bag.
func Snapshot(s *schema.Schema, n Node) map[string]any {
	out := s.EditableValues(n)
	for k, v := range n.AsNode().Properties {
		if _, ok := out[k]; !ok {
			out[k] = schema.Clone(v)
		}
	}
	return out
}
