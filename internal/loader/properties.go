package loader

import (
	"github.com/papapumpkin/scenery/internal/scene"
	"github.com/papapumpkin/scenery/internal/schema"
	"github.com/papapumpkin/scenery/internal/telemetry"
)

const transformKey = "transform"

func cloneBag(m map[string]any) map[string]any {
	return schema.CloneMap(m)
}

// applyProperties maps a flat document property object onto n through its
// schema. Keys the schema does not declare land in the free-form bag. The
// nested transform object is applied after the flat keys so it wins when
// both name the same field.
func (p *parser) applyProperties(n scene.Node, props map[string]any) {
	if len(props) == 0 {
		return
	}
	s := p.types.SchemaOf(n)
	b := n.AsNode()
	for _, key := range sortedKeys(props) {
		if key == transformKey {
			continue
		}
		prop, ok := s.Lookup(key)
		if !ok {
			b.SetProperty(key, props[key])
			continue
		}
		p.setProperty(n, prop, props[key])
	}

	raw, ok := props[transformKey]
	if !ok {
		return
	}
	tr, ok := raw.(map[string]any)
	if !ok {
		p.warn(telemetry.KindPropertySkipped, "node %s: transform must be an object, got %T", b.ID, raw)
		return
	}
	var extra map[string]any
	for _, key := range sortedKeys(tr) {
		prop, ok := s.LookupTransform(key)
		if !ok {
			if extra == nil {
				extra = make(map[string]any)
			}
			extra[key] = tr[key]
			continue
		}
		p.setProperty(n, prop, tr[key])
	}
	if extra != nil {
		merged, _ := b.Properties[transformKey].(map[string]any)
		if merged == nil {
			merged = make(map[string]any, len(extra))
		}
		for k, v := range extra {
			merged[k] = v
		}
		b.SetProperty(transformKey, merged)
	}
}

// setProperty decodes raw for prop and writes it. Invalid values are skipped
// with a warning and leave the current value in place.
func (p *parser) setProperty(n scene.Node, prop schema.Property, raw any) {
	id := n.AsNode().ID
	if prop.Hints.ReadOnly {
		p.warn(telemetry.KindPropertySkipped, "node %s: property %s is read-only", id, prop.Name)
		return
	}
	v, err := schema.DecodeProperty(prop, raw, prop.Get(n))
	if err != nil {
		p.warn(telemetry.KindPropertySkipped, "node %s: %v", id, err)
		return
	}
	if err := prop.Set(n, v); err != nil {
		p.warn(telemetry.KindPropertySkipped, "node %s: property %s: %v", id, prop.Name, err)
	}
}
