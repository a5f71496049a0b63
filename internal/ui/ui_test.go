package ui

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/papapumpkin/scenery/internal/dag"
	"github.com/papapumpkin/scenery/internal/loader"
	"github.com/papapumpkin/scenery/internal/resource"
	"github.com/papapumpkin/scenery/internal/scene"
)

const doorPrefab = `
root:
  - id: door
    type: Node3D
    children:
      - id: hinge
        type: Mesh
`

const roomScene = `
root:
  - id: room
    name: Great Hall
    groups: [rooms, lit]
    children:
      - id: front
        instance: door.yaml
      - id: lamp
        type: PointLight
`

func loadRoom(t *testing.T) *scene.Graph {
	t.Helper()
	mem := afero.NewMemMapFs()
	if err := afero.WriteFile(mem, "door.yaml", []byte(doorPrefab), 0o644); err != nil {
		t.Fatal(err)
	}
	l := loader.New(nil, nil, resource.NewFS(mem))
	g, err := l.ParseScene(context.Background(), roomScene, loader.ParseOptions{FilePath: "room.yaml"})
	if err != nil {
		t.Fatalf("ParseScene: %v", err)
	}
	return g
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func assertContains(t *testing.T, output string, substrs ...string) {
	t.Helper()
	output = ansiEscape.ReplaceAllString(output, "")
	for _, s := range substrs {
		if !strings.Contains(output, s) {
			t.Errorf("expected output to contain %q, got:\n%s", s, output)
		}
	}
}

func TestTree(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	NewWriter(&buf).Tree(loadRoom(t))
	out := ansiEscape.ReplaceAllString(buf.String(), "")

	assertContains(t, out,
		"room.yaml",
		"└─ room",
		`"Great Hall"`,
		"[lit, rooms]",
		"├─ front",
		"⇢ door.yaml",
		"│  └─ hinge",
		"└─ lamp",
		"(PointLight)",
	)
	if n := strings.Count(out, "⇢"); n != 1 {
		t.Errorf("only the instance root should show its document:\n%s", out)
	}
}

func TestValidateResult(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		g := loadRoom(t)
		g.Warn("override target %q not found", "ghost")
		var buf bytes.Buffer
		NewWriter(&buf).ValidateResult("room.yaml", g, nil)
		assertContains(t, buf.String(), "✓ room.yaml", "4 node(s)", "1 dependenc(ies)", "1 warning(s)", `"ghost"`)
	})

	t.Run("validation error", func(t *testing.T) {
		t.Parallel()
		l := loader.New(nil, nil, nil)
		_, err := l.ParseScene(context.Background(), "root:\n  - id: a\n  - id: a\n", loader.ParseOptions{FilePath: "dup.yaml"})
		if err == nil {
			t.Fatal("expected duplicate id error")
		}
		var buf bytes.Buffer
		NewWriter(&buf).ValidateResult("dup.yaml", nil, err)
		assertContains(t, buf.String(), "✗ dup.yaml", "duplicate_id")
	})

	t.Run("plain error", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		NewWriter(&buf).ValidateResult("x.yaml", nil, errors.New("disk on fire"))
		assertContains(t, buf.String(), "✗ x.yaml", "disk on fire")
	})
}

func TestDependencies(t *testing.T) {
	t.Parallel()
	d, err := dag.FromDocuments(map[string][]string{
		"room.yaml": {"door.yaml", "gone.yaml"},
		"door.yaml": nil,
		"menu.yaml": nil,
	})
	if err != nil {
		t.Fatalf("FromDocuments: %v", err)
	}
	var buf bytes.Buffer
	if err := NewWriter(&buf).Dependencies(d); err != nil {
		t.Fatalf("Dependencies: %v", err)
	}
	assertContains(t, buf.String(),
		"cluster 0 (3 document(s))",
		"gone.yaml (missing)",
		"room.yaml → door.yaml, gone.yaml",
		"cluster 1 (1 document(s))",
		"menu.yaml",
	)

	buf.Reset()
	if err := NewWriter(&buf).Dependencies(dag.New()); err != nil {
		t.Fatalf("Dependencies(empty): %v", err)
	}
	assertContains(t, buf.String(), "no scene documents found")
}

func TestMessages(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	p := NewWriter(&buf)
	p.Success("wrote level.yaml")
	p.Error("bad things")
	p.Info("3 files")
	p.Warnings("a.yaml", nil)
	assertContains(t, buf.String(), "✓ wrote level.yaml", "error: bad things", "3 files")
	if strings.Contains(buf.String(), "a.yaml") {
		t.Errorf("empty warnings should print nothing:\n%s", buf.String())
	}
}
