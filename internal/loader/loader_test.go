package loader

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/papapumpkin/scenery/internal/component"
	"github.com/papapumpkin/scenery/internal/resource"
	"github.com/papapumpkin/scenery/internal/scene"
	"github.com/papapumpkin/scenery/internal/schema"
	"github.com/papapumpkin/scenery/internal/telemetry"
)

const playerPrefab = `
version: "1"
root:
  - id: player
    type: Node3D
    name: Player
    groups: [actors]
    properties:
      position: [1, 2, 3]
    components:
      - id: follow
        type: follow
        config:
          target: weapon
    children:
      - id: weapon
        type: Mesh
        properties:
          visible: true
      - id: shield
        type: Mesh
`

// countingProvider counts reads per path.
type countingProvider struct {
	src   resource.Provider
	reads map[string]int
}

func (c *countingProvider) ReadText(ctx context.Context, p string) (string, error) {
	c.reads[p]++
	return c.src.ReadText(ctx, p)
}

func newTestFS(t *testing.T, files map[string]string) *resource.FS {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for p, text := range files {
		if err := afero.WriteFile(fsys, p, []byte(text), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	return resource.NewFS(fsys)
}

func newTestLoader(t *testing.T, files map[string]string, opts ...Option) *Loader {
	t.Helper()
	types := scene.DefaultTypes()
	return New(types, component.Default(types), newTestFS(t, files), opts...)
}

func parse(t *testing.T, l *Loader, file, text string) *scene.Graph {
	t.Helper()
	g, err := l.ParseScene(context.Background(), text, ParseOptions{FilePath: file})
	if err != nil {
		t.Fatalf("ParseScene: %v", err)
	}
	return g
}

func requireCategory(t *testing.T, err error, cat ValidationCategory, sentinel error) *ValidationError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", cat)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if ve.Category != cat {
		t.Errorf("category = %q, want %q (%v)", ve.Category, cat, err)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("errors.Is(%v, %v) = false", err, sentinel)
	}
	return ve
}

func TestParseScene_PlainNodes(t *testing.T) {
	t.Parallel()
	l := newTestLoader(t, nil)
	g := parse(t, l, "main.yaml", `
version: "1"
description: demo
metadata:
  author: tests
root:
  - id: world
    children:
      - id: sun
        type: DirectionalLight
        groups: [lights]
        properties:
          intensity: 2.5
          health: 10
          transform:
            position: [0, 10, 0]
            rotation: {y: 90}
      - id: crate
        type: Mesh
        name: Crate
        metadata:
          note: heavy
`)
	if g.Version != "1" || g.Description != "demo" {
		t.Errorf("version/description = %q/%q", g.Version, g.Description)
	}
	if g.Metadata["author"] != "tests" {
		t.Errorf("metadata = %v", g.Metadata)
	}
	if got := g.IDs(); strings.Join(got, ",") != "crate,sun,world" {
		t.Errorf("ids = %v", got)
	}
	if len(g.Roots()) != 1 {
		t.Fatalf("roots = %d, want 1", len(g.Roots()))
	}

	sun, ok := g.FindByID("sun").(*scene.DirectionalLight)
	if !ok {
		t.Fatalf("sun is %T", g.FindByID("sun"))
	}
	if sun.Intensity != 2.5 {
		t.Errorf("intensity = %v", sun.Intensity)
	}
	if sun.Position != schema.Vec3(0, 10, 0) {
		t.Errorf("position = %+v", sun.Position)
	}
	if math.Abs(sun.Rotation.Y-math.Pi/2) > 1e-9 {
		t.Errorf("rotation.y = %v, want pi/2", sun.Rotation.Y)
	}
	if f, ok := schema.Number(sun.Properties["health"]); !ok || f != 10 {
		t.Errorf("bag health = %v", sun.Properties["health"])
	}
	if !sun.InGroup("lights") {
		t.Error("sun not in lights group")
	}
	if sun.Parent().AsNode().ID != "world" {
		t.Errorf("sun parent = %s", sun.Parent().AsNode().ID)
	}

	crate := g.FindByID("crate").AsNode()
	if crate.Name != "Crate" || crate.Metadata["note"] != "heavy" {
		t.Errorf("crate = %q %v", crate.Name, crate.Metadata)
	}
	if len(g.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", g.Warnings)
	}
}

func TestParseScene_UnknownTypeIsGenericContainer(t *testing.T) {
	t.Parallel()
	g := parse(t, newTestLoader(t, nil), "", `
root:
  - id: thing
    type: Joystick
    properties:
      deadZone: 0.2
`)
	n := g.FindByID("thing")
	if _, ok := n.(*scene.NodeBase); !ok {
		t.Fatalf("thing is %T, want *scene.NodeBase", n)
	}
	if n.AsNode().Type != "Joystick" {
		t.Errorf("type = %q", n.AsNode().Type)
	}
	if _, ok := n.AsNode().Property("deadZone"); !ok {
		t.Error("deadZone not kept in bag")
	}
}

func TestParseScene_Failures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		text     string
		cat      ValidationCategory
		sentinel error
	}{
		{"empty", "", ValCatEmptyDocument, ErrEmptyDocument},
		{"null", "null\n", ValCatEmptyDocument, ErrEmptyDocument},
		{"malformed", "root: [\n", ValCatDecode, ErrDecode},
		{"missing id", "root:\n  - type: Mesh\n", ValCatDecode, ErrDecode},
		{
			"sibling duplicate",
			"root:\n  - id: a\n  - id: a\n",
			ValCatDuplicateID, ErrDuplicateID,
		},
		{
			"nested duplicate",
			"root:\n  - id: a\n    children:\n      - id: b\n        children:\n          - id: a\n",
			ValCatDuplicateID, ErrDuplicateID,
		},
		{
			"instance type without path",
			"root:\n  - id: a\n    type: Instance\n",
			ValCatMissingInstancePath, ErrMissingInstancePath,
		},
		{
			"overrides without path",
			"root:\n  - id: a\n    overrides:\n      byLocalId: {}\n",
			ValCatMissingInstancePath, ErrMissingInstancePath,
		},
		{
			"missing document",
			"root:\n  - id: a\n    instance: nowhere.yaml\n",
			ValCatResource, ErrResource,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l := newTestLoader(t, nil)
			g, err := l.ParseScene(context.Background(), tt.text, ParseOptions{FilePath: "main.yaml"})
			if g != nil {
				t.Error("expected no graph on failure")
			}
			ve := requireCategory(t, err, tt.cat, tt.sentinel)
			if ve.SourceFile != "main.yaml" {
				t.Errorf("source file = %q", ve.SourceFile)
			}
		})
	}
}

func TestParseScene_MissingDocumentWrapsNotFound(t *testing.T) {
	t.Parallel()
	_, err := newTestLoader(t, nil).ParseScene(context.Background(),
		"root:\n  - id: a\n    instance: nowhere.yaml\n", ParseOptions{})
	if !errors.Is(err, resource.ErrNotFound) {
		t.Errorf("expected resource.ErrNotFound in chain, got %v", err)
	}
}

func TestParseScene_NonFatalWarnings(t *testing.T) {
	t.Parallel()
	var logs, events bytes.Buffer
	l := newTestLoader(t, map[string]string{"prefabs/player.yaml": playerPrefab},
		WithLogger(&logs), WithTelemetry(telemetry.NewWriterEmitter(&events)))
	g := parse(t, l, "main.yaml", `
root:
  - id: hero
    instance: prefabs/player.yaml
    overrides:
      byLocalId:
        ghost:
          properties:
            visible: false
  - id: turret
    type: Node3D
    components:
      - type: laser
      - type: spin
        config:
          speed: [0, 90, 0]
          wobble: 1
`)
	if len(g.Warnings) != 3 {
		t.Fatalf("warnings = %d: %v", len(g.Warnings), g.Warnings)
	}
	text := strings.Join(g.Warnings, "\n")
	for _, want := range []string{`"ghost"`, `"laser"`, `"wobble"`} {
		if !strings.Contains(text, want) {
			t.Errorf("warnings missing %s: %s", want, text)
		}
	}
	if !strings.Contains(logs.String(), "warning: ") {
		t.Errorf("logger got %q", logs.String())
	}
	for _, kind := range []string{telemetry.KindOverrideSkipped, telemetry.KindComponentSkipped, telemetry.KindInstanceResolved, telemetry.KindParseDone} {
		if !strings.Contains(events.String(), `"kind":"`+kind+`"`) {
			t.Errorf("telemetry missing %s", kind)
		}
	}

	turret := g.FindByID("turret").AsNode()
	if len(turret.Components()) != 1 || turret.Components()[0].ID != "spin" {
		t.Fatalf("turret components = %v", turret.Components())
	}
	spin := turret.Components()[0].Impl.(*component.Spin)
	if math.Abs(spin.Speed.Y-math.Pi/2) > 1e-9 {
		t.Errorf("spin speed = %+v", spin.Speed)
	}
}

func TestParseScene_InvalidValuesAreSkipped(t *testing.T) {
	t.Parallel()
	g := parse(t, newTestLoader(t, nil), "", `
root:
  - id: cam
    type: Camera
    properties:
      fov: 500
      near: 0.5
      visible: "yes"
`)
	cam := g.FindByID("cam").(*scene.Camera)
	if cam.FOV != 50 {
		t.Errorf("fov = %v, want default 50", cam.FOV)
	}
	if cam.Near != 0.5 {
		t.Errorf("near = %v", cam.Near)
	}
	if !cam.Visible {
		t.Error("invalid visible value should leave the default")
	}
	if len(g.Warnings) != 2 {
		t.Errorf("warnings = %v", g.Warnings)
	}
}

func TestParseScene_ComponentIDsAndEnabled(t *testing.T) {
	t.Parallel()
	g := parse(t, newTestLoader(t, nil), "", `
root:
  - id: n
    type: Node3D
    components:
      - type: tag
      - type: tag
        enabled: false
      - id: custom
        type: tag
        config:
          label: hi
`)
	var ids []string
	for _, s := range g.FindByID("n").AsNode().Components() {
		ids = append(ids, s.ID)
	}
	if strings.Join(ids, ",") != "tag,tag_2,custom" {
		t.Errorf("component ids = %v", ids)
	}
	n := g.FindByID("n").AsNode()
	if n.Component("tag_2").Enabled {
		t.Error("tag_2 should be disabled")
	}
	if n.Component("custom").Impl.(*component.Tag).Label != "hi" {
		t.Error("custom label not configured")
	}
}

func TestParseScene_TOMLAndJSON(t *testing.T) {
	t.Parallel()
	l := newTestLoader(t, map[string]string{
		"prefab.json": `{"root": [{"id": "box", "type": "Mesh", "properties": {"size": [2, 2, 2]}}]}`,
	})
	g := parse(t, l, "main.toml", `
version = "1"

[[root]]
id = "crate"
instance = "prefab.json"
`)
	m, ok := g.FindByID("crate").(*scene.Mesh)
	if !ok {
		t.Fatalf("crate is %T", g.FindByID("crate"))
	}
	if m.Size != schema.Vec3(2, 2, 2) {
		t.Errorf("size = %+v", m.Size)
	}
}

func TestSlug(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"weapon", "weapon"},
		{"Left Arm", "left_arm"},
		{"a//b", "a_b"},
		{"--x", "--x"},
		{"!!!", "node"},
	}
	for _, tt := range tests {
		if got := slug(tt.in); got != tt.want {
			t.Errorf("slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
