// Package loader turns scene documents into live graphs. Instance
// definitions are expanded by parsing the referenced document, cloning its
// single root with fresh runtime ids, remapping node references inside the
// clone and applying per-instance overrides.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/papapumpkin/scenery/internal/document"
	"github.com/papapumpkin/scenery/internal/resource"
	"github.com/papapumpkin/scenery/internal/scene"
	"github.com/papapumpkin/scenery/internal/telemetry"
)

// Loader parses scene documents. A Loader holds no per-parse state and may
// be shared by concurrent parses.
type Loader struct {
	types     *scene.Types
	registry  scene.ComponentRegistry
	provider  resource.Provider
	logger    io.Writer
	telemetry *telemetry.Emitter
	maxDepth  int
	cache     bool
}

// New creates a Loader. types defaults to scene.DefaultTypes; registry and
// provider may be nil, in which case every component is skipped and every
// instance fails to resolve.
func New(types *scene.Types, registry scene.ComponentRegistry, provider resource.Provider, opts ...Option) *Loader {
	if types == nil {
		types = scene.DefaultTypes()
	}
	l := &Loader{
		types:    types,
		registry: registry,
		provider: provider,
		logger:   io.Discard,
		maxDepth: DefaultMaxDepth,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Types returns the constructor table the loader builds nodes from.
func (l *Loader) Types() *scene.Types {
	return l.types
}

// Registry returns the component registry, which may be nil.
func (l *Loader) Registry() scene.ComponentRegistry {
	return l.registry
}

// ParseOptions qualifies one ParseScene call.
type ParseOptions struct {
	// FilePath is the document's own path. Relative instance paths resolve
	// against it and it anchors the instantiation stack.
	FilePath string
	// InstanceStack lists the normalized paths currently being expanded,
	// outermost first.
	InstanceStack []string
	// Format overrides the format derived from FilePath.
	Format document.Format
}

// LoadFile reads path through the provider and parses it.
func (l *Loader) LoadFile(ctx context.Context, path string) (*scene.Graph, error) {
	file := resource.Normalize("", path)
	if l.provider == nil {
		return nil, newError(ValCatResource, file, nil, "no resource provider configured")
	}
	text, err := l.provider.ReadText(ctx, file)
	if err != nil {
		return nil, newError(ValCatResource, file, err, "read scene document", file)
	}
	return l.ParseScene(ctx, text, ParseOptions{FilePath: file})
}

// ParseScene decodes text and builds a live graph. It either returns a
// complete graph or a *ValidationError, never a partial graph.
func (l *Loader) ParseScene(ctx context.Context, text string, opts ParseOptions) (*scene.Graph, error) {
	provider := l.provider
	if l.cache && provider != nil {
		provider = resource.NewCache(provider)
	}
	file := resource.Normalize("", opts.FilePath)
	stack := append([]string(nil), opts.InstanceStack...)
	if file != "" && (len(stack) == 0 || stack[len(stack)-1] != file) {
		stack = append(stack, file)
	}
	format := opts.Format
	if format == "" {
		format = document.FormatForPath(file)
	}
	g, err := l.parse(ctx, provider, text, file, format, stack)
	if err != nil {
		return nil, err
	}
	g.ReleaseAttach()
	return g, nil
}

func (l *Loader) parse(ctx context.Context, provider resource.Provider, text, file string, format document.Format, stack []string) (*scene.Graph, error) {
	l.telemetry.Record(telemetry.KindParseStart, file, map[string]any{"depth": len(stack)})

	doc, err := document.Decode([]byte(text), format)
	if errors.Is(err, document.ErrEmpty) {
		return nil, newError(ValCatEmptyDocument, file, err, "scene document is empty")
	}
	if err != nil {
		return nil, newError(ValCatDecode, file, err, "decode scene document", err.Error())
	}

	// Components attach only once the outermost parse succeeds, so prefab
	// sub-graphs and aborted parses never see OnAttach.
	g := scene.NewGraph()
	g.HoldAttach()
	g.Version = string(doc.Version)
	g.Description = doc.Description
	g.Metadata = doc.Metadata
	g.SourcePath = file

	p := &parser{
		Loader:   l,
		ctx:      ctx,
		provider: provider,
		graph:    g,
		file:     file,
		stack:    stack,
		reserved: make(map[string]bool),
		pending:  make(map[string]bool),
	}
	if err := p.reserve(doc.Root); err != nil {
		return nil, err
	}
	for i := range doc.Root {
		n, err := p.build(&doc.Root[i])
		if err != nil {
			return nil, err
		}
		g.AddRoot(n)
	}

	l.telemetry.Record(telemetry.KindParseDone, file, map[string]any{
		"nodes":        g.Len(),
		"dependencies": len(g.Dependencies),
		"warnings":     len(g.Warnings),
	})
	return g, nil
}

// parser holds the state of one document parse.
type parser struct {
	*Loader
	ctx      context.Context
	provider resource.Provider
	graph    *scene.Graph
	file     string
	stack    []string

	// reserved holds every id declared in the document; pending holds ids
	// handed out to clones not yet registered.
	reserved map[string]bool
	pending  map[string]bool
}

// reserve records every declared id up front so generated clone ids never
// collide with a plain node declared later in the document.
func (p *parser) reserve(defs []document.NodeDefinition) error {
	for i := range defs {
		def := &defs[i]
		if def.ID == "" {
			return newError(ValCatDecode, p.file, nil, "node definition without id", describe(def))
		}
		if p.reserved[def.ID] {
			return newError(ValCatDuplicateID, p.file, nil, "duplicate node id "+quote(def.ID), def.ID)
		}
		p.reserved[def.ID] = true
		if !isInstance(def) {
			if err := p.reserve(def.Children); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *parser) taken(id string) bool {
	return p.reserved[id] || p.pending[id]
}

func isInstance(def *document.NodeDefinition) bool {
	return def.IsInstance() || def.Overrides != nil || def.Type == "Instance"
}

// build dispatches one definition to the plain or instance path.
func (p *parser) build(def *document.NodeDefinition) (scene.Node, error) {
	if err := p.ctx.Err(); err != nil {
		return nil, newError(ValCatResource, p.file, err, "parse cancelled")
	}
	if isInstance(def) {
		return p.instantiate(def)
	}
	return p.plain(def)
}

func (p *parser) plain(def *document.NodeDefinition) (scene.Node, error) {
	n := p.types.New(def.TypeOrDefault())
	b := n.AsNode()
	b.ID = def.ID
	b.Name = def.Name
	for _, grp := range def.Groups {
		b.AddGroup(grp)
	}
	if len(def.Metadata) > 0 {
		b.Metadata = cloneBag(def.Metadata)
	}
	p.applyProperties(n, def.Properties)

	if err := p.graph.Register(n); err != nil {
		return nil, newError(ValCatDuplicateID, p.file, err, "duplicate node id "+quote(def.ID), def.ID)
	}
	p.attachComponents(n, def.Components)

	for i := range def.Children {
		c, err := p.build(&def.Children[i])
		if err != nil {
			return nil, err
		}
		b.AddChild(c)
	}
	return n, nil
}

// attachComponents creates each declared component through the registry,
// configures it through its schema and only then attaches it.
func (p *parser) attachComponents(n scene.Node, defs []document.ComponentDefinition) {
	b := n.AsNode()
	for _, cd := range defs {
		if cd.Type == "" {
			p.warn(telemetry.KindComponentSkipped, "node %s: component without type skipped", b.ID)
			continue
		}
		id := cd.ID
		if id == "" {
			id = cd.Type
			for i := 2; b.Component(id) != nil; i++ {
				id = fmt.Sprintf("%s_%d", cd.Type, i)
			}
		}
		if p.registry == nil {
			p.warn(telemetry.KindComponentSkipped, "node %s: unknown component type %q skipped", b.ID, cd.Type)
			continue
		}
		impl, ok := p.registry.CreateComponent(cd.Type, id)
		if !ok {
			p.warn(telemetry.KindComponentSkipped, "node %s: unknown component type %q skipped", b.ID, cd.Type)
			continue
		}
		s := p.registry.ComponentSchema(cd.Type)
		for _, key := range sortedKeys(cd.Config) {
			unknown, err := scene.ConfigureComponent(s, impl, map[string]any{key: cd.Config[key]})
			if err != nil {
				p.warn(telemetry.KindPropertySkipped, "node %s: component %s: %v", b.ID, id, err)
			}
			for _, k := range unknown {
				p.warn(telemetry.KindPropertySkipped, "node %s: component %s: unknown config key %q", b.ID, id, k)
			}
		}
		b.AddComponent(&scene.ComponentSlot{ID: id, Type: cd.Type, Enabled: cd.IsEnabled(), Impl: impl})
	}
}

// warn records a non-fatal condition on the graph, the logger and the
// telemetry stream.
func (p *parser) warn(kind, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.file != "" {
		msg = p.file + ": " + msg
	}
	p.graph.Warn("%s", msg)
	fmt.Fprintf(p.logger, "warning: %s\n", msg)
	p.telemetry.Record(kind, p.file, map[string]any{"message": msg})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func describe(def *document.NodeDefinition) string {
	switch {
	case def.Name != "":
		return "name " + quote(def.Name)
	case def.Instance != "":
		return "instance " + quote(def.Instance)
	}
	return "type " + quote(def.TypeOrDefault())
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}
