package scene

import (
	"errors"
	"fmt"
)

// HoldAttach keeps components of newly registered nodes unattached until
// ReleaseAttach. A graph that is never released never fires OnAttach.
func (g *Graph) HoldAttach() {
	g.held = true
}

// ReleaseAttach ends a hold and attaches every unattached component in
// depth-first order.
func (g *Graph) ReleaseAttach() {
	if !g.held {
		return
	}
	g.held = false
	g.Walk(func(n Node) bool {
		b := n.AsNode()
		if b.graph != g {
			return true
		}
		for _, s := range append([]*ComponentSlot(nil), b.components...) {
			if s.State == Unattached {
				g.attach(b.self(), s)
			}
		}
		return true
	})
}

// Running reports whether the graph has ticked at least once.
func (g *Graph) Running() bool {
	return g.running
}

// AttachComponent adds slot to n, which must be registered in g.
func (g *Graph) AttachComponent(n Node, slot *ComponentSlot) error {
	b := n.AsNode()
	if b.graph != g {
		return fmt.Errorf("%w: %s", ErrNotFound, b.ID)
	}
	b.AddComponent(slot)
	return nil
}

// DetachComponent removes the slot with the given id from n.
func (g *Graph) DetachComponent(n Node, id string) error {
	b := n.AsNode()
	s := b.Component(id)
	if s == nil {
		return fmt.Errorf("scene: component %s not found on %s", id, b.ID)
	}
	g.detach(n, s)
	return nil
}

// AddComponent appends slot. If the node is registered the slot is attached
// right away; otherwise it attaches on registration.
func (n *NodeBase) AddComponent(slot *ComponentSlot) {
	slot.State = Unattached
	n.components = append(n.components, slot)
	if n.graph != nil && !n.graph.held {
		n.graph.attach(n.self(), slot)
	}
}

// SetComponentEnabled toggles a slot. Enabling a never-started slot leaves
// it pending for the next tick.
func (n *NodeBase) SetComponentEnabled(id string, enabled bool) bool {
	s := n.Component(id)
	if s == nil {
		return false
	}
	s.Enabled = enabled
	return true
}

func (g *Graph) attach(n Node, s *ComponentSlot) {
	s.State = Attached
	ctx := &Context{Graph: g, Node: n, Slot: s}
	if a, ok := s.Impl.(Attacher); ok {
		a.OnAttach(ctx)
	}
	if g.running {
		g.start(ctx)
	}
}

func (g *Graph) start(ctx *Context) {
	if !ctx.Slot.Pending() {
		return
	}
	ctx.Slot.State = Started
	if st, ok := ctx.Slot.Impl.(Starter); ok {
		st.OnStart(ctx)
	}
}

func (g *Graph) detach(n Node, s *ComponentSlot) {
	b := n.AsNode()
	for i, c := range b.components {
		if c == s {
			b.components = append(b.components[:i], b.components[i+1:]...)
			break
		}
	}
	if s.State == Attached || s.State == Started {
		if d, ok := s.Impl.(Detacher); ok {
			d.OnDetach(&Context{Graph: g, Node: n, Slot: s})
		}
	}
	s.State = Removed
}

// Tick advances every enabled component by dt seconds. Pending components
// start before their first update. Update errors are collected and returned
// together after the whole tree has ticked.
func (g *Graph) Tick(dt float64) error {
	g.running = true
	var errs []error
	g.Walk(func(n Node) bool {
		for _, s := range append([]*ComponentSlot(nil), n.AsNode().components...) {
			if !s.Enabled || s.State == Removed {
				continue
			}
			ctx := &Context{Graph: g, Node: n, Slot: s}
			g.start(ctx)
			if u, ok := s.Impl.(Updater); ok {
				if err := u.OnUpdate(ctx, dt); err != nil {
					errs = append(errs, fmt.Errorf("%s/%s: %w", n.AsNode().ID, s.ID, err))
				}
			}
		}
		return true
	})
	return errors.Join(errs...)
}

// Call invokes method on every MessageHandler component of n.
func (g *Graph) Call(n Node, method string, args ...any) ([]any, error) {
	var results []any
	for _, s := range n.AsNode().components {
		h, ok := s.Impl.(MessageHandler)
		if !ok || s.State == Removed {
			continue
		}
		r, err := h.HandleMessage(&Context{Graph: g, Node: n, Slot: s}, method, args)
		if err != nil {
			return results, fmt.Errorf("%s/%s: %s: %w", n.AsNode().ID, s.ID, method, err)
		}
		if r != nil {
			results = append(results, r)
		}
	}
	return results, nil
}
