package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const playerYAML = `version: 1
description: player prefab
root:
  - id: player
    type: Node3D
    groups: [actors]
    properties:
      transform:
        position: [1, 2, 3]
    components:
      - id: aim
        type: follow
        enabled: false
        config:
          target: weapon
    children:
      - id: weapon
        type: Mesh
      - id: shield
        instance: ./shield.yaml
        overrides:
          byLocalId:
            rim:
              properties:
                visible: false
`

func TestDecodeYAML(t *testing.T) {
	t.Parallel()
	doc, err := Decode([]byte(playerYAML), FormatYAML)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Version != "1" {
		t.Errorf("Version = %q, want 1", doc.Version)
	}
	if len(doc.Root) != 1 {
		t.Fatalf("len(Root) = %d, want 1", len(doc.Root))
	}
	player := doc.Root[0]
	if player.TypeOrDefault() != "Node3D" || player.IsInstance() {
		t.Errorf("player type = %q instance=%v", player.Type, player.IsInstance())
	}
	pos := player.Properties["transform"].(map[string]any)["position"]
	if diff := cmp.Diff([]any{1, 2, 3}, pos); diff != "" {
		t.Errorf("position mismatch (-want +got):\n%s", diff)
	}
	comp := player.Components[0]
	if comp.IsEnabled() {
		t.Error("component should be disabled")
	}
	if comp.Config["target"] != "weapon" {
		t.Errorf("config target = %v", comp.Config["target"])
	}
	shield := player.Children[1]
	if !shield.IsInstance() || shield.TypeOrDefault() != DefaultType {
		t.Errorf("shield = %+v", shield)
	}
	patch, ok := shield.Overrides.ByLocalID["rim"]
	if !ok || patch.Properties["visible"] != false {
		t.Errorf("overrides = %+v", shield.Overrides)
	}
}

func TestDecodeEmpty(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"blank yaml", "  \n", FormatYAML},
		{"null yaml", "null\n", FormatYAML},
		{"empty map yaml", "{}\n", FormatYAML},
		{"null json", "null", FormatJSON},
		{"empty toml", "# nothing\n", FormatTOML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode([]byte(tt.data), tt.format)
			if !errors.Is(err, ErrEmpty) {
				t.Errorf("Decode error = %v, want ErrEmpty", err)
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"bad yaml", "root: [\n", FormatYAML},
		{"yaml list", "- a\n- b\n", FormatYAML},
		{"bad json", "{\"root\": ", FormatJSON},
		{"bad toml", "root = [[\n", FormatTOML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode([]byte(tt.data), tt.format)
			if err == nil || errors.Is(err, ErrEmpty) {
				t.Errorf("Decode error = %v, want decode failure", err)
			}
		})
	}
}

func TestDecodeJSONAndTOML(t *testing.T) {
	t.Parallel()
	jsonDoc := `{"version": 2, "root": [{"id": "a", "properties": {"count": 3, "ratio": 0.5}}]}`
	doc, err := Decode([]byte(jsonDoc), FormatJSON)
	if err != nil {
		t.Fatalf("Decode json: %v", err)
	}
	if doc.Version != "2" {
		t.Errorf("json Version = %q", doc.Version)
	}
	if got := doc.Root[0].Properties["count"]; got != int64(3) {
		t.Errorf("count = %#v, want int64(3)", got)
	}
	if got := doc.Root[0].Properties["ratio"]; got != 0.5 {
		t.Errorf("ratio = %#v, want 0.5", got)
	}

	tomlDoc := "version = '1'\n\n[[root]]\nid = 'a'\ntype = 'Node3D'\n\n[[root.children]]\nid = 'b'\ninstance = 'b.toml'\n"
	doc, err = Decode([]byte(tomlDoc), FormatTOML)
	if err != nil {
		t.Fatalf("Decode toml: %v", err)
	}
	if len(doc.Root) != 1 || len(doc.Root[0].Children) != 1 {
		t.Fatalf("toml tree = %+v", doc.Root)
	}
	if diff := cmp.Diff([]string{"b.toml"}, InstanceRefs(doc)); diff != "" {
		t.Errorf("InstanceRefs mismatch (-want +got):\n%s", diff)
	}
}

func TestInstanceRefsDeduplicates(t *testing.T) {
	t.Parallel()
	doc := &Document{Root: []NodeDefinition{
		{ID: "a", Instance: "x.yaml"},
		{ID: "b", Children: []NodeDefinition{{ID: "c", Instance: "y.yaml"}, {ID: "d", Instance: "x.yaml"}}},
	}}
	if diff := cmp.Diff([]string{"x.yaml", "y.yaml"}, InstanceRefs(doc)); diff != "" {
		t.Errorf("InstanceRefs mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatForPath(t *testing.T) {
	t.Parallel()
	tests := map[string]Format{
		"scene.yaml":      FormatYAML,
		"scene.yml":       FormatYAML,
		"a/b/scene.TOML":  FormatTOML,
		"scene.json":      FormatJSON,
		"no-extension":    FormatYAML,
		"res://scene.txt": FormatYAML,
	}
	for path, want := range tests {
		if got := FormatForPath(path); got != want {
			t.Errorf("FormatForPath(%q) = %q, want %q", path, got, want)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat(xml) error = %v", err)
	}
}

func TestEncodeYAMLUsesFlowArrays(t *testing.T) {
	t.Parallel()
	doc := &Document{
		Version: CurrentVersion,
		Root: []NodeDefinition{{
			ID:   "cube",
			Type: "Mesh",
			Properties: map[string]any{
				"transform": map[string]any{
					"position": []float64{1, 2.5, -3},
					"scale":    []float64{2, 2, 2},
				},
				"tags": []string{"x", "y"},
			},
		}},
	}
	text, err := Encode(doc, FormatYAML, EncodeOptions{Indent: 2})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, want := range []string{"position: [1, 2.5, -3]", "scale: [2, 2, 2]"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "tags: [") {
		t.Errorf("non-vector key was rewritten:\n%s", text)
	}

	back, err := Decode([]byte(text), FormatYAML)
	if err != nil {
		t.Fatalf("Decode(Encode): %v", err)
	}
	pos := back.Root[0].Properties["transform"].(map[string]any)["position"]
	if diff := cmp.Diff([]any{1, 2.5, -3}, pos); diff != "" {
		t.Errorf("position mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeJSONAndTOMLDecodeBack(t *testing.T) {
	t.Parallel()
	off := false
	doc := &Document{
		Version: CurrentVersion,
		Root: []NodeDefinition{{
			ID:         "root",
			Components: []ComponentDefinition{{ID: "c", Type: "tag", Enabled: &off}},
			Children:   []NodeDefinition{{ID: "kid", Instance: "kid.yaml"}},
		}},
	}
	for _, f := range []Format{FormatJSON, FormatTOML} {
		text, err := Encode(doc, f, EncodeOptions{})
		if err != nil {
			t.Fatalf("Encode(%s): %v", f, err)
		}
		back, err := Decode([]byte(text), f)
		if err != nil {
			t.Fatalf("Decode(%s): %v\n%s", f, err, text)
		}
		if back.Root[0].Components[0].IsEnabled() {
			t.Errorf("%s: enabled flag lost", f)
		}
		if back.Root[0].Children[0].Instance != "kid.yaml" {
			t.Errorf("%s: instance lost", f)
		}
	}
}
