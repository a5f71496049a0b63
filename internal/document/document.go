// Package document defines the declarative scene file shape and its codecs.
// YAML is the primary format; TOML and JSON are accepted by file extension.
package document

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultType is the node type assumed when a definition omits "type".
const DefaultType = "Node"

// CurrentVersion is written by the saver.
const CurrentVersion Version = "1"

// Version is the document format version. Authors write it as either a
// number or a string; it is kept as text.
type Version string

// UnmarshalYAML accepts any scalar.
func (v *Version) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("version must be a scalar (line %d)", node.Line)
	}
	*v = Version(node.Value)
	return nil
}

// UnmarshalJSON accepts a string or a number.
func (v *Version) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Version(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("version: %w", err)
	}
	*v = Version(n.String())
	return nil
}

// Document is one scene file.
type Document struct {
	Version     Version          `yaml:"version" json:"version" toml:"version"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty" toml:"description,omitempty"`
	Metadata    map[string]any   `yaml:"metadata,omitempty" json:"metadata,omitempty" toml:"metadata,omitempty"`
	Root        []NodeDefinition `yaml:"root" json:"root" toml:"root"`
}

// NodeDefinition declares either a plain node with inline children or an
// instance of another document. Instance and Children are exclusive.
type NodeDefinition struct {
	ID         string                `yaml:"id" json:"id" toml:"id"`
	Type       string                `yaml:"type,omitempty" json:"type,omitempty" toml:"type,omitempty"`
	Name       string                `yaml:"name,omitempty" json:"name,omitempty" toml:"name,omitempty"`
	Instance   string                `yaml:"instance,omitempty" json:"instance,omitempty" toml:"instance,omitempty"`
	Groups     []string              `yaml:"groups,omitempty" json:"groups,omitempty" toml:"groups,omitempty"`
	Properties map[string]any        `yaml:"properties,omitempty" json:"properties,omitempty" toml:"properties,omitempty"`
	Metadata   map[string]any        `yaml:"metadata,omitempty" json:"metadata,omitempty" toml:"metadata,omitempty"`
	Components []ComponentDefinition `yaml:"components,omitempty" json:"components,omitempty" toml:"components,omitempty"`
	Overrides  *Overrides            `yaml:"overrides,omitempty" json:"overrides,omitempty" toml:"overrides,omitempty"`
	Children   []NodeDefinition      `yaml:"children,omitempty" json:"children,omitempty" toml:"children,omitempty"`
}

// IsInstance reports whether the definition references another document.
func (d *NodeDefinition) IsInstance() bool {
	return d.Instance != ""
}

// TypeOrDefault returns the declared type or DefaultType.
func (d *NodeDefinition) TypeOrDefault() string {
	if d.Type == "" {
		return DefaultType
	}
	return d.Type
}

// ComponentDefinition declares a component attached to a node.
type ComponentDefinition struct {
	ID      string         `yaml:"id,omitempty" json:"id,omitempty" toml:"id,omitempty"`
	Type    string         `yaml:"type" json:"type" toml:"type"`
	Enabled *bool          `yaml:"enabled,omitempty" json:"enabled,omitempty" toml:"enabled,omitempty"`
	Config  map[string]any `yaml:"config,omitempty" json:"config,omitempty" toml:"config,omitempty"`
}

// IsEnabled treats an omitted flag as enabled.
func (c *ComponentDefinition) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Overrides holds per-instance property patches keyed by effective local id.
type Overrides struct {
	ByLocalID map[string]OverridePatch `yaml:"byLocalId,omitempty" json:"byLocalId,omitempty" toml:"byLocalId,omitempty"`
}

// OverridePatch is a partial property set for one node inside an instance.
type OverridePatch struct {
	Properties map[string]any `yaml:"properties,omitempty" json:"properties,omitempty" toml:"properties,omitempty"`
}

// Walk visits every definition depth-first, parents before children.
func (doc *Document) Walk(fn func(def *NodeDefinition, depth int)) {
	var visit func(defs []NodeDefinition, depth int)
	visit = func(defs []NodeDefinition, depth int) {
		for i := range defs {
			fn(&defs[i], depth)
			visit(defs[i].Children, depth+1)
		}
	}
	visit(doc.Root, 0)
}

// InstanceRefs lists the instance paths referenced anywhere in doc, in
// document order, without duplicates.
func InstanceRefs(doc *Document) []string {
	var refs []string
	seen := make(map[string]bool)
	doc.Walk(func(def *NodeDefinition, _ int) {
		if def.Instance != "" && !seen[def.Instance] {
			seen[def.Instance] = true
			refs = append(refs, def.Instance)
		}
	})
	return refs
}

// normalizeValue folds decoder-specific shapes into map[string]any and []any.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeValue(e)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[keyString(k)] = normalizeValue(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = normalizeValue(e)
		}
		return t
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	}
	return v
}

func keyString(k any) string {
	switch t := k.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	}
	return fmt.Sprint(k)
}

func normalizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return normalizeValue(m).(map[string]any)
}

func (doc *Document) normalize() {
	doc.Metadata = normalizeMap(doc.Metadata)
	doc.Walk(func(def *NodeDefinition, _ int) {
		def.Properties = normalizeMap(def.Properties)
		def.Metadata = normalizeMap(def.Metadata)
		for i := range def.Components {
			def.Components[i].Config = normalizeMap(def.Components[i].Config)
		}
		if def.Overrides != nil {
			for k, patch := range def.Overrides.ByLocalID {
				patch.Properties = normalizeMap(patch.Properties)
				def.Overrides.ByLocalID[k] = patch
			}
		}
	})
}
