// Package saver serializes live scene graphs back into documents. Plain
// nodes are written field by field with defaults elided; instance roots are
// written as their instance reference plus a diff against the snapshot taken
// when they were instantiated.
package saver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/papapumpkin/scenery/internal/document"
	"github.com/papapumpkin/scenery/internal/scene"
	"github.com/papapumpkin/scenery/internal/schema"
)

const transformKey = "transform"

// Saver turns graphs into document text.
type Saver struct {
	types    *scene.Types
	registry scene.ComponentRegistry
	format   document.Format
	indent   int
}

// Option configures a Saver.
type Option func(*Saver)

// WithFormat selects the output format. YAML is the default.
func WithFormat(f document.Format) Option {
	return func(s *Saver) {
		if f != "" {
			s.format = f
		}
	}
}

// WithIndent sets the indentation width for YAML and JSON output.
func WithIndent(n int) Option {
	return func(s *Saver) {
		if n > 0 {
			s.indent = n
		}
	}
}

// New creates a Saver. types must be the table the graph was built from so
// that schemas and defaults match; nil means scene.DefaultTypes.
func New(types *scene.Types, registry scene.ComponentRegistry, opts ...Option) *Saver {
	if types == nil {
		types = scene.DefaultTypes()
	}
	s := &Saver{types: types, registry: registry, format: document.FormatYAML, indent: 2}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Format returns the configured output format.
func (s *Saver) Format() document.Format {
	return s.format
}

// SerializeScene renders g in the configured format.
func (s *Saver) SerializeScene(g *scene.Graph) (string, error) {
	return s.SerializeAs(g, s.format)
}

// SerializeAs renders g in the given format.
func (s *Saver) SerializeAs(g *scene.Graph, format document.Format) (string, error) {
	doc, err := s.Document(g)
	if err != nil {
		return "", err
	}
	text, err := document.Encode(doc, format, document.EncodeOptions{Indent: s.indent})
	if err != nil {
		return "", fmt.Errorf("saver: %w", err)
	}
	return text, nil
}

// Document builds the declarative form of g.
func (s *Saver) Document(g *scene.Graph) (*document.Document, error) {
	doc := &document.Document{
		Version:     document.Version(g.Version),
		Description: g.Description,
		Metadata:    schema.CloneMap(g.Metadata),
	}
	if doc.Version == "" {
		doc.Version = document.CurrentVersion
	}
	for _, r := range g.Roots() {
		def, err := s.node(g, r)
		if err != nil {
			return nil, err
		}
		doc.Root = append(doc.Root, def)
	}
	return doc, nil
}

func (s *Saver) node(g *scene.Graph, n scene.Node) (document.NodeDefinition, error) {
	b := n.AsNode()
	if m := g.Marker(b.ID); m.IsInstanceRoot() && m.InstanceRootID == b.ID {
		return s.instance(g, n, m), nil
	}

	def := document.NodeDefinition{
		ID:       b.ID,
		Name:     b.Name,
		Groups:   nilIfEmpty(b.GroupNames()),
		Metadata: nilIfEmptyMap(schema.CloneMap(b.Metadata)),
	}
	if b.Type != document.DefaultType {
		def.Type = b.Type
	}

	sch := s.types.SchemaOf(n)
	props := make(map[string]any)
	for _, p := range sch.Properties {
		if p.Hints.ReadOnly {
			continue
		}
		v := p.Get(n)
		if schema.Equal(v, p.Default) {
			continue
		}
		put(props, p, schema.Encode(p.Type, v))
	}
	mergeBag(props, sch, b.Properties)
	def.Properties = nilIfEmptyMap(props)

	def.Components = s.components(b)

	for _, c := range b.Children() {
		cd, err := s.node(g, c)
		if err != nil {
			return def, err
		}
		def.Children = append(def.Children, cd)
	}
	return def, nil
}

// instance writes an instance root as its reference plus the changes made
// since instantiation. The cloned subtree itself is never written.
func (s *Saver) instance(g *scene.Graph, root scene.Node, m *scene.PrefabMarker) document.NodeDefinition {
	b := root.AsNode()
	def := document.NodeDefinition{
		ID:       b.ID,
		Instance: m.InstancePath,
	}
	if len(b.Metadata) > 0 && !schema.Equal(b.Metadata, m.BaseMetadata) {
		def.Metadata = schema.CloneMap(b.Metadata)
	}
	if b.Name != m.BaseName {
		def.Name = b.Name
	}
	base := make(map[string]bool, len(m.BaseGroups))
	for _, grp := range m.BaseGroups {
		base[grp] = true
	}
	for _, grp := range b.GroupNames() {
		if !base[grp] {
			def.Groups = append(def.Groups, grp)
		}
	}

	rootEid := m.EffectiveLocalID
	def.Properties = nilIfEmptyMap(s.diff(root, m.BaseProperties[rootEid]))

	overrides := make(map[string]document.OverridePatch)
	b.Walk(func(n scene.Node) bool {
		nb := n.AsNode()
		if nb == b {
			return true
		}
		nm := g.Marker(nb.ID)
		if nm == nil || nm.InstanceRootID != b.ID {
			return true
		}
		props := s.diff(n, m.BaseProperties[nm.EffectiveLocalID])
		if len(props) == 0 {
			return true
		}
		key := strings.TrimPrefix(nm.EffectiveLocalID, rootEid+"/")
		overrides[key] = document.OverridePatch{Properties: props}
		return true
	})
	if len(overrides) > 0 {
		def.Overrides = &document.Overrides{ByLocalID: overrides}
	}
	return def
}

// diff returns the document form of every snapshot value of n that differs
// from base.
func (s *Saver) diff(n scene.Node, base map[string]any) map[string]any {
	sch := s.types.SchemaOf(n)
	current := scene.Snapshot(sch, n)
	props := make(map[string]any)
	for _, key := range sortedKeys(current) {
		v := current[key]
		if old, ok := base[key]; ok && schema.Equal(v, old) {
			continue
		}
		p, ok := sch.Lookup(key)
		if !ok {
			continue
		}
		put(props, p, schema.Encode(p.Type, v))
	}
	bag := make(map[string]any)
	for k, v := range n.AsNode().Properties {
		if old, ok := base[k]; ok && schema.Equal(v, old) {
			continue
		}
		bag[k] = v
	}
	mergeBag(props, sch, bag)
	return props
}

func (s *Saver) components(b *scene.NodeBase) []document.ComponentDefinition {
	var out []document.ComponentDefinition
	for _, slot := range b.Components() {
		if slot.State == scene.Removed {
			continue
		}
		cd := document.ComponentDefinition{ID: slot.ID, Type: slot.Type}
		if !slot.Enabled {
			disabled := false
			cd.Enabled = &disabled
		}
		var sch *schema.Schema
		if s.registry != nil {
			sch = s.registry.ComponentSchema(slot.Type)
		}
		if sch != nil {
			config := make(map[string]any)
			for _, p := range sch.Properties {
				if p.Hints.ReadOnly {
					continue
				}
				v := p.Get(slot.Impl)
				if schema.Equal(v, p.Default) {
					continue
				}
				config[p.Name] = schema.Encode(p.Type, v)
			}
			cd.Config = nilIfEmptyMap(config)
		}
		out = append(out, cd)
	}
	return out
}

// put stores an encoded value, nesting transform fields.
func put(props map[string]any, p schema.Property, v any) {
	if !p.Transform {
		props[p.Name] = v
		return
	}
	tr, _ := props[transformKey].(map[string]any)
	if tr == nil {
		tr = make(map[string]any)
		props[transformKey] = tr
	}
	tr[p.Name] = v
}

// mergeBag copies free-form entries into props. Entries never shadow schema
// fields, and a bag transform object is merged under the schema transform.
func mergeBag(props map[string]any, sch *schema.Schema, bag map[string]any) {
	for _, k := range sortedKeys(bag) {
		v := bag[k]
		if k == transformKey {
			extra, ok := v.(map[string]any)
			if !ok {
				continue
			}
			tr, _ := props[transformKey].(map[string]any)
			if tr == nil {
				tr = make(map[string]any)
			}
			for tk, tv := range extra {
				if _, ok := tr[tk]; !ok {
					tr[tk] = schema.Clone(tv)
				}
			}
			props[transformKey] = tr
			continue
		}
		if _, ok := sch.Lookup(k); ok {
			continue
		}
		props[k] = schema.Clone(v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func nilIfEmptyMap(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	return m
}
