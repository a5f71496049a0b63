package component

import (
	"math"
	"strings"
	"testing"

	"github.com/papapumpkin/scenery/internal/scene"
	"github.com/papapumpkin/scenery/internal/schema"
)

// attach builds a one-node graph of the given type carrying a single
// configured component.
func attach(t *testing.T, reg *Registry, nodeType, compType string, config map[string]any) (*scene.Graph, scene.Node, *scene.ComponentSlot) {
	t.Helper()
	types := scene.DefaultTypes()
	g := scene.NewGraph()
	n := types.New(nodeType)
	n.AsNode().ID = "self"
	g.AddRoot(n)
	if err := g.Register(n); err != nil {
		t.Fatalf("Register: %v", err)
	}
	impl, ok := reg.CreateComponent(compType, "c")
	if !ok {
		t.Fatalf("CreateComponent(%q) failed", compType)
	}
	if _, err := scene.ConfigureComponent(reg.ComponentSchema(compType), impl, config); err != nil {
		t.Fatalf("ConfigureComponent: %v", err)
	}
	slot := &scene.ComponentSlot{ID: "c", Type: compType, Enabled: true, Impl: impl}
	if err := g.AttachComponent(n, slot); err != nil {
		t.Fatalf("AttachComponent: %v", err)
	}
	return g, n, slot
}

func TestRegistry(t *testing.T) {
	t.Parallel()
	reg := Default(nil)
	if got := strings.Join(reg.Types(), ","); got != "follow,script,spin,tag" {
		t.Errorf("Types = %q", got)
	}
	if _, ok := reg.CreateComponent("missing", "x"); ok {
		t.Error("unknown type created")
	}
	if reg.ComponentSchema("missing") != nil {
		t.Error("unknown type has a schema")
	}
	refs := reg.ComponentSchema(TypeFollow).NodeRefs()
	if len(refs) != 1 || refs[0].Name != "target" {
		t.Errorf("follow NodeRefs = %v", refs)
	}
}

func TestConfigureReportsUnknownKeys(t *testing.T) {
	t.Parallel()
	reg := Default(nil)
	impl, _ := reg.CreateComponent(TypeTag, "t")
	unknown, err := scene.ConfigureComponent(reg.ComponentSchema(TypeTag), impl, map[string]any{
		"label": "hero",
		"bogus": 1,
		"calls": 5,
	})
	if err != nil {
		t.Fatalf("ConfigureComponent: %v", err)
	}
	if len(unknown) != 2 {
		t.Errorf("unknown = %v, want bogus and calls", unknown)
	}
	if impl.(*Tag).Label != "hero" || impl.(*Tag).Calls != 0 {
		t.Errorf("tag = %+v", impl)
	}
}

func TestSpinRotatesInRadians(t *testing.T) {
	t.Parallel()
	g, n, _ := attach(t, Default(nil), scene.TypeNode3D, TypeSpin, map[string]any{"speed": []any{0, 90, 0}})
	if err := g.Tick(1); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	got := n.(*scene.Node3D).Rotation.Y
	if math.Abs(got-math.Pi/2) > 1e-12 {
		t.Errorf("rotation.y = %v, want pi/2", got)
	}
}

func TestFollow(t *testing.T) {
	t.Parallel()

	t.Run("tracks target", func(t *testing.T) {
		t.Parallel()
		g, n, _ := attach(t, Default(nil), scene.TypeNode3D, TypeFollow, map[string]any{
			"target": "leader",
			"offset": map[string]any{"y": 2},
		})
		leader := scene.NewNode3D()
		leader.ID = "leader"
		leader.Position = schema.Vec3(5, 0, 1)
		g.AddRoot(leader)
		if err := g.Register(leader); err != nil {
			t.Fatal(err)
		}
		if err := g.Tick(0.1); err != nil {
			t.Fatal(err)
		}
		if got := n.(*scene.Node3D).Position; got != schema.Vec3(5, 2, 1) {
			t.Errorf("position = %+v", got)
		}
	})

	t.Run("disables when target missing", func(t *testing.T) {
		t.Parallel()
		g, _, slot := attach(t, Default(nil), scene.TypeNode3D, TypeFollow, map[string]any{
			"target":             "ghost",
			"enabledWhenMissing": false,
		})
		if err := g.Tick(0.1); err != nil {
			t.Fatal(err)
		}
		if slot.Enabled {
			t.Error("follow stayed enabled without a target")
		}
	})
}

func TestTagMessages(t *testing.T) {
	t.Parallel()
	g, n, slot := attach(t, Default(nil), scene.TypeNode, TypeTag, map[string]any{"label": "alpha"})
	got, err := g.Call(n, "ping")
	if err != nil || len(got) != 1 || got[0] != "alpha" {
		t.Fatalf("ping = %v, %v", got, err)
	}
	if _, err := g.Call(n, "relabel", "beta"); err != nil {
		t.Fatalf("relabel: %v", err)
	}
	if _, err := g.Call(n, "relabel"); err == nil {
		t.Error("relabel without args succeeded")
	}
	tag := slot.Impl.(*Tag)
	if tag.Label != "beta" || tag.Calls != 3 {
		t.Errorf("tag = %+v", tag)
	}
}

func TestScript(t *testing.T) {
	t.Parallel()

	t.Run("builtins reach the node", func(t *testing.T) {
		t.Parallel()
		g, n, slot := attach(t, Default(scene.DefaultTypes()), scene.TypeNode, TypeScript, map[string]any{
			"onStart":  `(setprop "visible" false)`,
			"onUpdate": `(setprop "owner" (nodeid))`,
		})
		if err := g.Tick(0.5); err != nil {
			t.Fatalf("Tick: %v", err)
		}
		b := n.AsNode()
		if b.Visible {
			t.Error("onStart did not hide the node")
		}
		if v, _ := b.Property("owner"); v != "self" {
			t.Errorf("owner = %v, want self", v)
		}
		if e := slot.Impl.(*Script).LastError; e != "" {
			t.Errorf("LastError = %q", e)
		}
	})

	t.Run("errors surface from tick", func(t *testing.T) {
		t.Parallel()
		g, _, slot := attach(t, Default(nil), scene.TypeNode, TypeScript, map[string]any{
			"onUpdate": `(getnodeprop "nobody" "visible")`,
		})
		if err := g.Tick(0.1); err == nil {
			t.Fatal("Tick succeeded with a failing script")
		}
		if slot.Impl.(*Script).LastError == "" {
			t.Error("LastError not recorded")
		}
	})

	t.Run("empty sources are no-ops", func(t *testing.T) {
		t.Parallel()
		g, _, _ := attach(t, Default(nil), scene.TypeNode, TypeScript, nil)
		if err := g.Tick(0.1); err != nil {
			t.Errorf("Tick: %v", err)
		}
	})
}
