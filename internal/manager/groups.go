package manager

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/papapumpkin/scenery/internal/scene"
)

// NodesInGroup returns the members of group in graph name, in tree order.
func (m *Manager) NodesInGroup(name, group string) ([]scene.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	return slices.Clone(m.members(e, group)), nil
}

// members returns the indexed members of group, rebuilding the index when
// it is stale.
func (m *Manager) members(e *entry, group string) []scene.Node {
	if e.groups == nil || e.groupsRevision != e.graph.Revision() || stale(e.graph, e.groups[group], group) {
		e.groups = make(map[string][]scene.Node)
		e.graph.Walk(func(n scene.Node) bool {
			for _, grp := range n.AsNode().GroupNames() {
				e.groups[grp] = append(e.groups[grp], n)
			}
			return true
		})
		e.groupsRevision = e.graph.Revision()
	}
	return e.groups[group]
}

func stale(g *scene.Graph, members []scene.Node, group string) bool {
	for _, n := range members {
		b := n.AsNode()
		if g.FindByID(b.ID) != n || !b.InGroup(group) {
			return true
		}
	}
	return false
}

// AddToGroup adds the node with id to group.
func (m *Manager) AddToGroup(name, id, group string) error {
	return m.withNode(name, id, func(n scene.Node) { n.AsNode().AddGroup(group) })
}

// RemoveFromGroup removes the node with id from group.
func (m *Manager) RemoveFromGroup(name, id, group string) error {
	return m.withNode(name, id, func(n scene.Node) { n.AsNode().RemoveGroup(group) })
}

func (m *Manager) withNode(name, id string, fn func(scene.Node)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.lookup(name)
	if err != nil {
		return err
	}
	n := e.graph.FindByID(id)
	if n == nil {
		return fmt.Errorf("manager: %s: %w: %s", name, scene.ErrNotFound, id)
	}
	fn(n)
	return nil
}

// CallGroup sends method to every component of every node in group and
// collects the non-nil results. Errors from individual nodes are joined;
// delivery continues past them.
func (m *Manager) CallGroup(name, group, method string, args ...any) ([]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	var results []any
	var errs []error
	for _, n := range slices.Clone(m.members(e, group)) {
		r, err := e.graph.Call(n, method, args...)
		results = append(results, r...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}

// Tick advances graph name by dt seconds.
func (m *Manager) Tick(name string, dt float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.lookup(name)
	if err != nil {
		return err
	}
	return e.graph.Tick(dt)
}

// TickAll advances every graph in name order and joins their errors.
func (m *Manager) TickAll(dt float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.entries))
	for n := range m.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	var errs []error
	for _, n := range names {
		if err := m.entries[n].graph.Tick(dt); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n, err))
		}
	}
	return errors.Join(errs...)
}
