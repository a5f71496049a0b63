package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/papapumpkin/scenery/internal/scene"
	"github.com/papapumpkin/scenery/internal/schema"
)

// DetailPanel wraps a viewport for scrollable content display.
type DetailPanel struct {
	viewport   viewport.Model
	title      string
	totalLines int // total lines of content (before viewport clipping)
}

// NewDetailPanel creates a detail panel with the given dimensions.
func NewDetailPanel(width, height int) DetailPanel {
	vp := viewport.New(width, height)
	vp.SetContent("")
	return DetailPanel{viewport: vp}
}

// SetSize updates the viewport dimensions.
func (d *DetailPanel) SetSize(width, height int) {
	d.viewport.Width = width
	d.viewport.Height = height
}

// SetContent updates the displayed text and title.
func (d *DetailPanel) SetContent(title, content string) {
	d.title = title
	d.totalLines = strings.Count(content, "\n") + 1
	d.viewport.SetContent(content)
	d.viewport.GotoTop()
}

// Update handles viewport scroll messages.
// Home/g and End/G are handled explicitly because the viewport's built-in
// KeyMap does not bind those keys.
func (d *DetailPanel) Update(msg tea.Msg) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "home", "g":
			d.viewport.GotoTop()
			return
		case "end", "G":
			d.viewport.GotoBottom()
			return
		}
	}
	d.viewport, _ = d.viewport.Update(msg)
}

// View renders the detail panel with a rounded border and scroll indicators.
func (d DetailPanel) View() string {
	var b strings.Builder
	if d.title != "" {
		b.WriteString(styleDetailTitle.Render(d.title))
		b.WriteString("\n")
	}
	if upMore := d.viewport.YOffset; upMore > 0 {
		b.WriteString(styleScrollIndicator.Render(fmt.Sprintf("↑ %d more", upMore)))
		b.WriteString("\n")
	}
	b.WriteString(d.viewport.View())
	if downMore := d.linesBelow(); downMore > 0 {
		b.WriteString("\n")
		b.WriteString(styleScrollIndicator.Render(fmt.Sprintf("↓ %d more", downMore)))
	}
	return styleDetailBorder.Render(b.String())
}

// linesBelow returns the number of content lines below the viewport.
func (d DetailPanel) linesBelow() int {
	below := d.totalLines - d.viewport.YOffset - d.viewport.Height
	if below < 0 {
		return 0
	}
	return below
}

// --- Formatting helpers ---

// FormatNodeDetail renders the reflected properties, free-form properties,
// prefab provenance and components of n.
func FormatNodeDetail(g *scene.Graph, types *scene.Types, reg scene.ComponentRegistry, n scene.Node) string {
	b := n.AsNode()
	var out strings.Builder

	label := styleDetailHeaderLabel.Render
	value := styleDetailHeaderValue.Render
	out.WriteString(label("id: ") + value(b.ID) + "  " + label("type: ") + value(b.Type))
	if b.Name != "" {
		out.WriteString("  " + label("name: ") + value(b.Name))
	}
	out.WriteString("\n" + label("path: ") + value(b.Path()))
	if groups := b.GroupNames(); len(groups) > 0 {
		out.WriteString("\n" + label("groups: ") + value(strings.Join(groups, ", ")))
	}

	section(&out, "properties")
	sch := types.SchemaOf(n)
	for _, p := range sch.Properties {
		if p.Hints.Hidden {
			continue
		}
		line := fmt.Sprintf("  %s = %v", p.Name, schema.Encode(p.Type, p.Get(n)))
		if p.Hints.ReadOnly {
			line += styleDetailDim.Render(" (read-only)")
		}
		out.WriteString(line + "\n")
	}
	for _, k := range sortedKeys(b.Properties) {
		out.WriteString(fmt.Sprintf("  %s = %v", k, b.Properties[k]) + styleDetailDim.Render(" (free-form)") + "\n")
	}

	if m := g.Marker(b.ID); m != nil {
		section(&out, "prefab")
		fmt.Fprintf(&out, "  local id: %s\n  effective id: %s\n  source: %s\n  instance root: %s\n",
			m.LocalID, m.EffectiveLocalID, m.SourcePath, m.InstanceRootID)
		if m.IsInstanceRoot() && m.InstanceRootID == b.ID {
			fmt.Fprintf(&out, "  instance of: %s\n", m.InstancePath)
		}
	}

	if slots := b.Components(); len(slots) > 0 {
		section(&out, "components")
		for _, s := range slots {
			state := s.State.String()
			if !s.Enabled {
				state += ", disabled"
			}
			fmt.Fprintf(&out, "  %s (%s) %s\n", s.ID, s.Type, styleDetailDim.Render(state))
			if reg == nil {
				continue
			}
			csch := reg.ComponentSchema(s.Type)
			if csch == nil {
				continue
			}
			for _, p := range csch.Properties {
				fmt.Fprintf(&out, "    %s = %v\n", p.Name, schema.Encode(p.Type, p.Get(s.Impl)))
			}
		}
	}
	return strings.TrimRight(out.String(), "\n")
}

func section(out *strings.Builder, name string) {
	out.WriteString("\n\n" + styleDetailSection.Render(name) + "\n")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
