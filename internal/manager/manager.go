// Package manager owns named live scene graphs. It loads them through a
// Loader, saves them through a Saver, keeps a lazily rebuilt group index per
// graph and reloads graphs when the documents they depend on change.
package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"sync"

	"github.com/papapumpkin/scenery/internal/document"
	"github.com/papapumpkin/scenery/internal/loader"
	"github.com/papapumpkin/scenery/internal/resource"
	"github.com/papapumpkin/scenery/internal/saver"
	"github.com/papapumpkin/scenery/internal/scene"
	"github.com/papapumpkin/scenery/internal/telemetry"
	"github.com/papapumpkin/scenery/internal/watcher"
)

// Sentinel errors for manager operations.
var (
	// ErrUnknownGraph indicates no graph is registered under the name.
	ErrUnknownGraph = errors.New("graph not registered")
	// ErrNoPath indicates a graph has no document path to save to or reload from.
	ErrNoPath = errors.New("graph has no document path")
	// ErrNoWriter indicates saving was requested without a writer.
	ErrNoWriter = errors.New("no document writer configured")
)

// ReloadFunc observes the outcome of a watch-triggered reload.
type ReloadFunc func(name string, g *scene.Graph, err error)

// Option configures a Manager.
type Option func(*Manager)

// WithWriter sets where Save and SaveTo write documents.
func WithWriter(w resource.Writer) Option {
	return func(m *Manager) { m.writer = w }
}

// WithLogger sets the writer for warning lines.
func WithLogger(w io.Writer) Option {
	return func(m *Manager) {
		if w != nil {
			m.logger = w
		}
	}
}

// WithTelemetry sets the event emitter.
func WithTelemetry(e *telemetry.Emitter) Option {
	return func(m *Manager) { m.telemetry = e }
}

// WithReloadHook registers a callback run after every watch-triggered reload.
func WithReloadHook(fn ReloadFunc) Option {
	return func(m *Manager) { m.onReload = fn }
}

type entry struct {
	graph *scene.Graph
	path  string

	// groups is rebuilt on demand when the graph revision moves or a member
	// turns out to have left the graph.
	groups         map[string][]scene.Node
	groupsRevision uint64
}

// Manager coordinates named graphs. It is safe for concurrent use.
type Manager struct {
	mu        sync.Mutex
	loader    *loader.Loader
	saver     *saver.Saver
	writer    resource.Writer
	logger    io.Writer
	telemetry *telemetry.Emitter
	onReload  ReloadFunc
	entries   map[string]*entry
}

// New creates a Manager.
func New(ld *loader.Loader, sv *saver.Saver, opts ...Option) *Manager {
	m := &Manager{
		loader:  ld,
		saver:   sv,
		logger:  io.Discard,
		entries: make(map[string]*entry),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Load parses the document at path and registers the result as name. On
// failure nothing is registered and any previous graph under name stays.
func (m *Manager) Load(ctx context.Context, name, path string) (*scene.Graph, error) {
	g, err := m.loader.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	m.register(name, g, g.SourcePath)
	return g, nil
}

// Parse parses text and registers the result as name.
func (m *Manager) Parse(ctx context.Context, name, text string, opts loader.ParseOptions) (*scene.Graph, error) {
	g, err := m.loader.ParseScene(ctx, text, opts)
	if err != nil {
		return nil, err
	}
	m.register(name, g, g.SourcePath)
	return g, nil
}

// Register adds an already built graph. An existing graph under the same
// name is replaced and its components detached.
func (m *Manager) Register(name string, g *scene.Graph) error {
	if name == "" {
		return fmt.Errorf("manager: register: empty graph name")
	}
	if g == nil {
		return fmt.Errorf("manager: register %s: nil graph", name)
	}
	m.register(name, g, g.SourcePath)
	return nil
}

func (m *Manager) register(name string, g *scene.Graph, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.entries[name]; ok && old.graph != g {
		discard(old.graph)
	}
	m.entries[name] = &entry{graph: g, path: path}
	m.telemetry.Emit(telemetry.Event{
		Kind: telemetry.KindGraphRegistered,
		File: path,
		Data: map[string]any{"name": name, "session": g.SessionID, "nodes": g.Len()},
	})
}

// Unregister drops the graph, detaching every component. It reports whether
// a graph was registered under name.
func (m *Manager) Unregister(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[name]
	if !ok {
		return false
	}
	discard(e.graph)
	delete(m.entries, name)
	return true
}

// discard removes every root so components see their detach callbacks.
func discard(g *scene.Graph) {
	for _, r := range slices.Clone(g.Roots()) {
		_ = g.Remove(r.AsNode().ID)
	}
}

// Graph returns the graph registered as name, or nil.
func (m *Manager) Graph(name string) *scene.Graph {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[name]; ok {
		return e.graph
	}
	return nil
}

// Names lists registered graph names sorted.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.entries))
	for n := range m.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) lookup(name string) (*entry, error) {
	e, ok := m.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGraph, name)
	}
	return e, nil
}

// Save writes the graph back to the document it was loaded from.
func (m *Manager) Save(ctx context.Context, name string) error {
	path, err := m.path(name)
	if err != nil {
		return err
	}
	return m.SaveTo(ctx, name, path)
}

// path returns the document path of graph name, read under the lock.
func (m *Manager) path(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.lookup(name)
	if err != nil {
		return "", err
	}
	if e.path == "" {
		return "", fmt.Errorf("%w: %s", ErrNoPath, name)
	}
	return e.path, nil
}

// SaveTo writes the graph to path in the format its extension implies and
// makes path the graph's document for later saves and reloads.
func (m *Manager) SaveTo(ctx context.Context, name, path string) error {
	if m.writer == nil {
		return ErrNoWriter
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.lookup(name)
	if err != nil {
		return err
	}
	path = resource.Normalize("", path)
	text, err := m.saver.SerializeAs(e.graph, document.FormatForPath(path))
	if err != nil {
		return fmt.Errorf("manager: save %s: %w", name, err)
	}
	if err := m.writer.WriteText(ctx, path, text); err != nil {
		return fmt.Errorf("manager: save %s: %w", name, err)
	}
	e.path = path
	m.telemetry.Record(telemetry.KindGraphSaved, path, map[string]any{"name": name, "bytes": len(text)})
	return nil
}

// Reload re-parses the graph's document. On failure the current graph stays
// registered and the error is returned.
func (m *Manager) Reload(ctx context.Context, name string) (*scene.Graph, error) {
	path, err := m.path(name)
	if err != nil {
		return nil, err
	}
	g, err := m.loader.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	m.register(name, g, path)
	m.telemetry.Record(telemetry.KindGraphReloaded, path, map[string]any{"name": name, "session": g.SessionID})
	return g, nil
}

// Affected lists the graphs built from path or instancing it, sorted.
func (m *Manager) Affected(path string) []string {
	path = resource.Normalize("", path)
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for name, e := range m.entries {
		if e.path == path || slices.Contains(e.graph.Dependencies, path) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Watch reloads affected graphs for every change received until ctx is done
// or changes is closed. Change paths are project-relative. Reload failures
// are logged and keep the previous graph.
func (m *Manager) Watch(ctx context.Context, changes <-chan watcher.Change) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-changes:
			if !ok {
				return nil
			}
			for _, name := range m.Affected(c.Path) {
				g, err := m.Reload(ctx, name)
				if err != nil {
					fmt.Fprintf(m.logger, "warning: reload %s after %s %s: %v\n", name, c.Path, c.Kind, err)
				}
				if m.onReload != nil {
					m.onReload(name, g, err)
				}
			}
		}
	}
}
