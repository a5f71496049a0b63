package loader

import (
	"fmt"
	"slices"
	"strings"

	"github.com/papapumpkin/scenery/internal/document"
	"github.com/papapumpkin/scenery/internal/resource"
	"github.com/papapumpkin/scenery/internal/scene"
	"github.com/papapumpkin/scenery/internal/schema"
	"github.com/papapumpkin/scenery/internal/telemetry"
)

// sourceKey addresses a node by the document that declared it and its id
// there.
type sourceKey struct {
	path string
	id   string
}

// expansion is the bookkeeping for one instance definition.
type expansion struct {
	def     *document.NodeDefinition
	path    string
	source  *scene.Graph
	rootEid string

	bySource  map[sourceKey]string
	byRuntime map[string]string
	byEid     map[string]string
	markers   map[string]*scene.PrefabMarker
	nodes     []scene.Node
}

// instantiate resolves an instance definition into a registered clone of the
// referenced document's single root.
func (p *parser) instantiate(def *document.NodeDefinition) (scene.Node, error) {
	if def.Instance == "" {
		return nil, newError(ValCatMissingInstancePath, p.file, nil,
			"instance definition "+quote(def.ID)+" has no instance path", def.ID)
	}
	if len(def.Children) > 0 {
		p.warn(telemetry.KindPropertySkipped, "node %s: children on an instance definition are ignored", def.ID)
	}
	if len(def.Components) > 0 {
		p.warn(telemetry.KindComponentSkipped, "node %s: components on an instance definition are ignored", def.ID)
	}

	path := resource.Normalize(p.file, def.Instance)
	if i := slices.Index(p.stack, path); i >= 0 {
		chain := append(append([]string(nil), p.stack[i:]...), path)
		details := append([]string{strings.Join(chain, " -> ")}, p.stack[i:]...)
		return nil, newError(ValCatCycle, p.file, nil, "instance cycle through "+quote(path), details...)
	}
	if len(p.stack) >= p.maxDepth {
		return nil, newError(ValCatDepthExceeded, p.file, nil,
			fmt.Sprintf("instance nesting exceeds %d levels", p.maxDepth),
			strings.Join(append(append([]string(nil), p.stack...), path), " -> "))
	}
	if p.provider == nil {
		return nil, newError(ValCatResource, p.file, nil, "no resource provider configured", path)
	}
	text, err := p.provider.ReadText(p.ctx, path)
	if err != nil {
		return nil, newError(ValCatResource, p.file, err, "read instance "+quote(def.Instance), path)
	}

	stack := append(append([]string(nil), p.stack...), path)
	sub, err := p.parse(p.ctx, p.provider, text, path, document.FormatForPath(path), stack)
	if err != nil {
		return nil, err
	}
	p.addDependency(path)
	for _, d := range sub.Dependencies {
		p.addDependency(d)
	}
	p.graph.Warnings = append(p.graph.Warnings, sub.Warnings...)

	roots := sub.Roots()
	if len(roots) != 1 {
		return nil, newError(ValCatPrefabRoots, p.file, nil,
			fmt.Sprintf("instanced document %s has %d root nodes", quote(path), len(roots)), path)
	}

	x := &expansion{
		def:       def,
		path:      path,
		source:    sub,
		rootEid:   def.ID,
		bySource:  make(map[sourceKey]string),
		byRuntime: make(map[string]string),
		byEid:     make(map[string]string),
		markers:   make(map[string]*scene.PrefabMarker),
	}
	root, err := p.clone(x, roots[0], true)
	if err != nil {
		return nil, err
	}
	p.remap(x)

	base := make(map[string]map[string]any, len(x.nodes))
	for _, n := range x.nodes {
		m := x.markers[n.AsNode().ID]
		base[m.EffectiveLocalID] = scene.Snapshot(p.types.SchemaOf(n), n)
	}
	rb := root.AsNode()
	rm := x.markers[rb.ID]
	rm.InstancePath = def.Instance
	rm.BaseProperties = base
	rm.BaseName = rb.Name
	rm.BaseGroups = rb.GroupNames()
	rm.BaseMetadata = schema.CloneMap(rb.Metadata)

	if def.Name != "" {
		rb.Name = def.Name
	}
	for _, grp := range def.Groups {
		rb.AddGroup(grp)
	}
	if len(def.Metadata) > 0 {
		rb.Metadata = cloneBag(def.Metadata)
	}
	p.applyProperties(root, def.Properties)
	p.applyOverrides(x)

	for _, n := range x.nodes {
		id := n.AsNode().ID
		if err := p.graph.Register(n); err != nil {
			return nil, newError(ValCatDuplicateID, p.file, err, "duplicate node id "+quote(id), id, path)
		}
		p.graph.SetMarker(id, x.markers[id])
		delete(p.pending, id)
	}

	p.telemetry.Emit(telemetry.Event{
		Kind:   telemetry.KindInstanceResolved,
		File:   p.file,
		NodeID: rb.ID,
		Data:   map[string]any{"instance": path, "nodes": len(x.nodes)},
	})
	return root, nil
}

// clone copies src and its descendants into fresh nodes, carrying state over
// through the reflection schemas and recording provenance.
func (p *parser) clone(x *expansion, src scene.Node, isRoot bool) (scene.Node, error) {
	sb := src.AsNode()
	srcMarker := x.source.Marker(sb.ID)

	localID, sourcePath, nestedEid := sb.ID, x.path, sb.ID
	if srcMarker != nil {
		localID, sourcePath, nestedEid = srcMarker.LocalID, srcMarker.SourcePath, srcMarker.EffectiveLocalID
	}

	var id, eid string
	if isRoot {
		id, eid = x.def.ID, x.rootEid
	} else {
		// The last eid segment is the id declared by the nearest document,
		// which for a nested instance root is its instance definition id.
		base := nestedEid[strings.LastIndex(nestedEid, "/")+1:]
		id = p.graph.UniqueID(slug(base), p.taken)
		eid = x.rootEid + "/" + nestedEid
	}
	p.pending[id] = true

	dst := p.types.New(sb.Type)
	db := dst.AsNode()
	s := p.types.SchemaOf(src)
	for _, prop := range s.Properties {
		if prop.Hints.ReadOnly {
			continue
		}
		if err := prop.Set(dst, schema.Clone(prop.Get(src))); err != nil {
			return nil, newError(ValCatDecode, x.path, err, "copy property "+prop.Name+" of "+quote(sb.ID), sb.ID)
		}
	}
	db.ID = id
	db.Name = sb.Name
	db.Properties = schema.CloneMap(sb.Properties)
	db.Metadata = schema.CloneMap(sb.Metadata)
	for _, grp := range sb.GroupNames() {
		db.AddGroup(grp)
	}
	if p.registry != nil {
		if err := scene.CopyComponents(p.registry, src, dst); err != nil {
			return nil, newError(ValCatDecode, x.path, err, "copy components of "+quote(sb.ID), sb.ID)
		}
	}

	x.markers[id] = &scene.PrefabMarker{
		LocalID:          localID,
		EffectiveLocalID: eid,
		InstanceRootID:   x.def.ID,
		SourcePath:       sourcePath,
	}
	k := sourceKey{path: sourcePath, id: localID}
	if _, ok := x.bySource[k]; !ok {
		x.bySource[k] = id
	}
	x.byRuntime[sb.ID] = id
	x.byEid[eid] = id
	x.nodes = append(x.nodes, dst)

	for _, c := range sb.Children() {
		cc, err := p.clone(x, c, false)
		if err != nil {
			return nil, err
		}
		db.AddChild(cc)
	}
	return dst, nil
}

// remap rewrites node references inside the clone from source ids to the
// freshly generated runtime ids, for node and component properties alike.
func (p *parser) remap(x *expansion) {
	for _, n := range x.nodes {
		b := n.AsNode()
		holder := x.markers[b.ID].SourcePath
		for _, prop := range p.types.SchemaOf(n).NodeRefs() {
			p.remapRef(x, holder, n, prop)
		}
		if p.registry == nil {
			continue
		}
		for _, slot := range b.Components() {
			for _, prop := range p.registry.ComponentSchema(slot.Type).NodeRefs() {
				p.remapRef(x, holder, slot.Impl, prop)
			}
		}
	}
}

func (p *parser) remapRef(x *expansion, holder string, inst any, prop schema.Property) {
	if prop.Hints.ReadOnly {
		return
	}
	ref, _ := prop.Get(inst).(string)
	if ref == "" {
		return
	}
	id, ok := x.resolve(holder, ref)
	if !ok || id == ref {
		return
	}
	if err := prop.Set(inst, id); err != nil {
		p.warn(telemetry.KindPropertySkipped, "instance %s: remap %s %q -> %q: %v", x.def.ID, prop.Name, ref, id, err)
	}
}

// resolve maps a reference held by a node from holder to a runtime id in the
// clone. Same-document local ids win, then source runtime ids, then
// effective local ids, exact or relative to the instance root.
func (x *expansion) resolve(holder, ref string) (string, bool) {
	if id, ok := x.bySource[sourceKey{path: holder, id: ref}]; ok {
		return id, true
	}
	if id, ok := x.byRuntime[ref]; ok {
		return id, true
	}
	return x.lookupEid(ref)
}

func (x *expansion) lookupEid(key string) (string, bool) {
	if id, ok := x.byEid[key]; ok {
		return id, true
	}
	id, ok := x.byEid[x.rootEid+"/"+key]
	return id, ok
}

// applyOverrides applies overrides.byLocalId in key order. Missing targets
// are skipped with a warning.
func (p *parser) applyOverrides(x *expansion) {
	if x.def.Overrides == nil {
		return
	}
	byLocal := x.def.Overrides.ByLocalID
	for _, key := range sortedKeys(byLocal) {
		id, ok := x.lookupEid(key)
		if !ok {
			p.warn(telemetry.KindOverrideSkipped, "instance %s: override target %q not found in %s", x.def.ID, key, x.path)
			continue
		}
		n := nodeByID(x.nodes, id)
		p.applyProperties(n, byLocal[key].Properties)
	}
}

func (p *parser) addDependency(path string) {
	if !slices.Contains(p.graph.Dependencies, path) {
		p.graph.Dependencies = append(p.graph.Dependencies, path)
	}
}

func nodeByID(nodes []scene.Node, id string) scene.Node {
	for _, n := range nodes {
		if n.AsNode().ID == id {
			return n
		}
	}
	return nil
}

// slug turns a local id into a runtime id base: lower case, with runs of
// characters outside [a-z0-9_-] collapsed to one underscore.
func slug(s string) string {
	var b strings.Builder
	under := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
			under = false
		default:
			if !under && b.Len() > 0 {
				b.WriteByte('_')
				under = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "_")
	if out == "" {
		return "node"
	}
	return out
}
