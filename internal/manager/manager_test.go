package manager

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/papapumpkin/scenery/internal/component"
	"github.com/papapumpkin/scenery/internal/loader"
	"github.com/papapumpkin/scenery/internal/resource"
	"github.com/papapumpkin/scenery/internal/saver"
	"github.com/papapumpkin/scenery/internal/scene"
	"github.com/papapumpkin/scenery/internal/telemetry"
)

const cratePrefab = `
version: "1"
root:
  - id: crate
    type: Node3D
    groups: [props]
    components:
      - id: tag
        type: tag
        config:
          label: crate
`

const levelScene = `
version: "1"
root:
  - id: level
    children:
      - id: left
        instance: prefabs/crate.yaml
      - id: right
        instance: prefabs/crate.yaml
        properties:
          position: [4, 0, 0]
      - id: lamp
        type: DirectionalLight
        groups: [props, lights]
`

type fixture struct {
	fs      *resource.FS
	mgr     *Manager
	log     *bytes.Buffer
	events  *bytes.Buffer
	reloads chan string
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	mem := afero.NewMemMapFs()
	for p, text := range files {
		if err := afero.WriteFile(mem, p, []byte(text), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	fsys := resource.NewFS(mem)
	types := scene.DefaultTypes()
	reg := component.Default(types)
	f := &fixture{
		fs:      fsys,
		log:     &bytes.Buffer{},
		events:  &bytes.Buffer{},
		reloads: make(chan string, 8),
	}
	f.mgr = New(
		loader.New(types, reg, fsys),
		saver.New(types, reg),
		WithWriter(fsys),
		WithLogger(f.log),
		WithTelemetry(telemetry.NewWriterEmitter(f.events)),
		WithReloadHook(func(name string, _ *scene.Graph, err error) {
			if err != nil {
				name += ": " + err.Error()
			}
			f.reloads <- name
		}),
	)
	return f
}

func levelFiles() map[string]string {
	return map[string]string{
		"prefabs/crate.yaml": cratePrefab,
		"level.yaml":         levelScene,
	}
}

func ids(nodes []scene.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.AsNode().ID)
	}
	return out
}

func TestLoadRegistersGraph(t *testing.T) {
	t.Parallel()
	f := newFixture(t, levelFiles())

	g, err := f.mgr.Load(context.Background(), "level", "level.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.mgr.Graph("level") != g {
		t.Error("Graph(level) does not return the loaded graph")
	}
	if diff := cmp.Diff([]string{"level"}, f.mgr.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(f.events.String(), `"kind":"graph_registered"`) {
		t.Errorf("telemetry missing graph_registered:\n%s", f.events.String())
	}
}

func TestLoadFailureRegistersNothing(t *testing.T) {
	t.Parallel()
	f := newFixture(t, map[string]string{"broken.yaml": "root:\n  - type: Node\n"})

	if _, err := f.mgr.Load(context.Background(), "broken", "broken.yaml"); err == nil {
		t.Fatal("Load: expected error")
	}
	if _, err := f.mgr.Load(context.Background(), "absent", "absent.yaml"); !errors.Is(err, loader.ErrResource) {
		t.Fatalf("Load absent: got %v, want ErrResource", err)
	}
	if names := f.mgr.Names(); len(names) != 0 {
		t.Errorf("Names = %v, want none", names)
	}
}

func TestRegisterAndUnregister(t *testing.T) {
	t.Parallel()
	f := newFixture(t, levelFiles())

	if err := f.mgr.Register("", scene.NewGraph()); err == nil {
		t.Error("Register with empty name: expected error")
	}
	if err := f.mgr.Register("x", nil); err == nil {
		t.Error("Register nil graph: expected error")
	}

	g, err := f.mgr.Load(context.Background(), "level", "level.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	slot := g.FindByID("left").AsNode().Component("tag")
	if slot == nil {
		t.Fatal("left has no tag component")
	}
	if !f.mgr.Unregister("level") {
		t.Fatal("Unregister(level) = false")
	}
	if f.mgr.Unregister("level") {
		t.Error("second Unregister(level) = true")
	}
	if slot.State != scene.Removed {
		t.Errorf("component state after unregister = %v, want %v", slot.State, scene.Removed)
	}
	if f.mgr.Graph("level") != nil {
		t.Error("graph still registered")
	}
}

func TestUnknownGraph(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["NodesInGroup"] = f.mgr.NodesInGroup("nope", "props")
	_, checks["CallGroup"] = f.mgr.CallGroup("nope", "props", "ping")
	_, checks["Reload"] = f.mgr.Reload(ctx, "nope")
	checks["Save"] = f.mgr.Save(ctx, "nope")
	checks["Tick"] = f.mgr.Tick("nope", 0.1)
	checks["AddToGroup"] = f.mgr.AddToGroup("nope", "a", "b")

	for op, err := range checks {
		if !errors.Is(err, ErrUnknownGraph) {
			t.Errorf("%s: got %v, want ErrUnknownGraph", op, err)
		}
	}
}

func TestSaveAndReload(t *testing.T) {
	t.Parallel()
	f := newFixture(t, levelFiles())
	ctx := context.Background()
	g, err := f.mgr.Load(ctx, "level", "level.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	g.FindByID("lamp").AsNode().Name = "Lantern"
	if err := f.mgr.Save(ctx, "level"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	text, err := f.fs.ReadText(ctx, "level.yaml")
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if !strings.Contains(text, "Lantern") {
		t.Errorf("saved document lacks the edit:\n%s", text)
	}

	reloaded, err := f.mgr.Reload(ctx, "level")
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if reloaded == g {
		t.Fatal("Reload returned the old graph")
	}
	if name := reloaded.FindByID("lamp").AsNode().Name; name != "Lantern" {
		t.Errorf("reloaded lamp name = %q, want Lantern", name)
	}
	for _, kind := range []string{"graph_saved", "graph_reloaded"} {
		if !strings.Contains(f.events.String(), `"kind":"`+kind+`"`) {
			t.Errorf("telemetry missing %s", kind)
		}
	}
}

func TestSaveToOtherFormat(t *testing.T) {
	t.Parallel()
	f := newFixture(t, levelFiles())
	ctx := context.Background()
	if _, err := f.mgr.Load(ctx, "level", "level.yaml"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := f.mgr.SaveTo(ctx, "level", "out/level.json"); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	text, err := f.fs.ReadText(ctx, "out/level.json")
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(text), "{") {
		t.Errorf("expected JSON output, got:\n%s", text)
	}
	if got := f.mgr.Affected("out/level.json"); len(got) != 1 {
		t.Errorf("Affected(out/level.json) = %v, want [level]", got)
	}
}

func TestSaveWithoutPathOrWriter(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	if err := f.mgr.Register("fresh", scene.NewGraph()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := f.mgr.Save(context.Background(), "fresh"); !errors.Is(err, ErrNoPath) {
		t.Errorf("Save: got %v, want ErrNoPath", err)
	}
	if _, err := f.mgr.Reload(context.Background(), "fresh"); !errors.Is(err, ErrNoPath) {
		t.Errorf("Reload: got %v, want ErrNoPath", err)
	}

	types := scene.DefaultTypes()
	ro := New(loader.New(types, nil, nil), saver.New(types, nil))
	if err := ro.Register("fresh", scene.NewGraph()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := ro.SaveTo(context.Background(), "fresh", "x.yaml"); !errors.Is(err, ErrNoWriter) {
		t.Errorf("SaveTo: got %v, want ErrNoWriter", err)
	}
}

func TestReloadFailureKeepsGraph(t *testing.T) {
	t.Parallel()
	f := newFixture(t, levelFiles())
	ctx := context.Background()
	g, err := f.mgr.Load(ctx, "level", "level.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := f.fs.WriteText(ctx, "prefabs/crate.yaml", "root: []\n"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if _, err := f.mgr.Reload(ctx, "level"); !errors.Is(err, loader.ErrPrefabRoots) {
		t.Fatalf("Reload: got %v, want ErrPrefabRoots", err)
	}
	if f.mgr.Graph("level") != g {
		t.Error("failed reload replaced the graph")
	}
}
