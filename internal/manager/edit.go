package manager

import (
	"fmt"

	"github.com/papapumpkin/scenery/internal/scene"
	"github.com/papapumpkin/scenery/internal/telemetry"
)

// Duplicate copies the node with id and its subtree into graph name under
// parentID, or next to the original when parentID is empty. Copies get
// fresh ids derived from the originals and carry their components. They are
// plain nodes without prefab provenance.
func (m *Manager) Duplicate(name, id, parentID string) (scene.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	g := e.graph
	src := g.FindByID(id)
	if src == nil {
		return nil, fmt.Errorf("manager: %s: %w: %s", name, scene.ErrNotFound, id)
	}
	parent := src.AsNode().Parent()
	if parentID != "" {
		if parent = g.FindByID(parentID); parent == nil {
			return nil, fmt.Errorf("manager: %s: %w: %s", name, scene.ErrNotFound, parentID)
		}
	}

	dup, err := m.loader.Types().Duplicate(src)
	if err != nil {
		return nil, fmt.Errorf("manager: duplicate %s: %w", id, err)
	}
	taken := make(map[string]bool)
	if err := m.adopt(g, src, dup, taken); err != nil {
		return nil, fmt.Errorf("manager: duplicate %s: %w", id, err)
	}
	if parent != nil {
		parent.AsNode().AddChild(dup)
	} else {
		g.AddRoot(dup)
	}
	if err := g.RegisterTree(dup); err != nil {
		return nil, fmt.Errorf("manager: duplicate %s: %w", id, err)
	}

	m.telemetry.Emit(telemetry.Event{
		Kind:   telemetry.KindNodeDuplicated,
		File:   e.path,
		NodeID: dup.AsNode().ID,
		Data:   map[string]any{"name": name, "source": id, "nodes": len(taken)},
	})
	return dup, nil
}

// adopt gives dup and its descendants ids unused in g and recreates the
// components of the matching source nodes.
func (m *Manager) adopt(g *scene.Graph, src, dup scene.Node, taken map[string]bool) error {
	sb, db := src.AsNode(), dup.AsNode()
	db.ID = g.UniqueID(sb.ID, func(id string) bool { return taken[id] })
	taken[db.ID] = true
	if reg := m.loader.Registry(); reg != nil {
		if err := scene.CopyComponents(reg, src, dup); err != nil {
			return err
		}
	}
	kids := db.Children()
	for i, c := range sb.Children() {
		if err := m.adopt(g, c, kids[i], taken); err != nil {
			return err
		}
	}
	return nil
}
