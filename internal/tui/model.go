package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/papapumpkin/scenery/internal/scene"
)

// MsgGraphReloaded replaces the inspected graph, e.g. after a watched
// document changed on disk.
type MsgGraphReloaded struct {
	Graph *scene.Graph
}

// MsgReloadFailed reports a reload that kept the previous graph.
type MsgReloadFailed struct {
	Err error
}

// row is one flattened tree line.
type row struct {
	node     scene.Node
	depth    int
	instance string // instance path when the node is an instance root
}

// Model is the read-only scene inspector: a flattened tree on top and, once
// a node is entered, a scrollable detail panel.
type Model struct {
	Graph    *scene.Graph
	Types    *scene.Types
	Registry scene.ComponentRegistry
	Keys     KeyMap
	Detail   DetailPanel

	rows       []row
	cursor     int
	showDetail bool
	lastErr    error
	width      int
	height     int
}

// NewModel builds an inspector for g.
func NewModel(g *scene.Graph, types *scene.Types, reg scene.ComponentRegistry) Model {
	if types == nil {
		types = scene.DefaultTypes()
	}
	m := Model{
		Graph:    g,
		Types:    types,
		Registry: reg,
		Keys:     DefaultKeyMap(),
		Detail:   NewDetailPanel(80, 10),
		width:    80,
		height:   24,
	}
	m.flatten()
	return m
}

// flatten rebuilds the row list depth-first.
func (m *Model) flatten() {
	m.rows = m.rows[:0]
	if m.Graph == nil {
		return
	}
	var visit func(n scene.Node, depth int)
	visit = func(n scene.Node, depth int) {
		r := row{node: n, depth: depth}
		id := n.AsNode().ID
		if mk := m.Graph.Marker(id); mk.IsInstanceRoot() && mk.InstanceRootID == id {
			r.instance = mk.InstancePath
		}
		m.rows = append(m.rows, r)
		for _, c := range n.AsNode().Children() {
			visit(c, depth+1)
		}
	}
	for _, root := range m.Graph.Roots() {
		visit(root, 0)
	}
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
}

// Selected returns the node under the cursor, or nil for an empty graph.
func (m Model) Selected() scene.Node {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].node
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.Detail.SetSize(max(msg.Width-4, 10), max(msg.Height/2-4, 3))
		return m, nil

	case MsgGraphReloaded:
		var selected string
		if n := m.Selected(); n != nil {
			selected = n.AsNode().ID
		}
		m.Graph = msg.Graph
		m.lastErr = nil
		m.flatten()
		for i, r := range m.rows {
			if r.node.AsNode().ID == selected {
				m.cursor = i
				break
			}
		}
		if m.showDetail {
			m.refreshDetail()
		}
		return m, nil

	case MsgReloadFailed:
		m.lastErr = msg.Err
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.Keys.Back):
			m.showDetail = false
			return m, nil
		case key.Matches(msg, m.Keys.Enter):
			if m.Selected() != nil {
				m.showDetail = true
				m.refreshDetail()
			}
			return m, nil
		}
		if m.showDetail {
			m.Detail.Update(msg)
			return m, nil
		}
		switch {
		case key.Matches(msg, m.Keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.Keys.Down):
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

func (m *Model) refreshDetail() {
	n := m.Selected()
	if n == nil {
		m.showDetail = false
		return
	}
	m.Detail.SetContent(n.AsNode().ID, FormatNodeDetail(m.Graph, m.Types, m.Registry, n))
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.statusBar())
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(styleDetailDim.Render("  (empty scene)"))
		b.WriteString("\n")
	}
	for i, r := range m.rows {
		b.WriteString(m.renderRow(r, i == m.cursor))
		b.WriteString("\n")
	}
	if m.showDetail {
		b.WriteString(m.Detail.View())
		b.WriteString("\n")
	}
	b.WriteString(m.footer())
	return b.String()
}

func (m Model) statusBar() string {
	source := "(unsaved graph)"
	nodes := 0
	var warnings int
	if m.Graph != nil {
		if m.Graph.SourcePath != "" {
			source = m.Graph.SourcePath
		}
		nodes = m.Graph.Len()
		warnings = len(m.Graph.Warnings)
	}
	line := styleStatusLabel.Render("scenery") + " " + source + fmt.Sprintf("  %d node(s)", nodes)
	if warnings > 0 {
		line += styleStatusWarn.Render(fmt.Sprintf("  %d warning(s)", warnings))
	}
	if m.lastErr != nil {
		line += styleStatusWarn.Render("  reload failed: " + m.lastErr.Error())
	}
	return styleStatusBar.Render(line)
}

func (m Model) renderRow(r row, selected bool) string {
	b := r.node.AsNode()
	text := strings.Repeat("  ", r.depth) + b.ID + " " + styleRowType.Render(b.Type)
	if b.Name != "" && b.Name != b.ID {
		text += fmt.Sprintf(" %q", b.Name)
	}
	if r.instance != "" {
		text += " " + styleRowInstance.Render("⇢ "+r.instance)
	}
	if selected {
		return styleSelectionIndicator.Render(selectionIndicator) + styleRowSelected.Render(text)
	}
	return " " + styleRowNormal.Render(text)
}

func (m Model) footer() string {
	var parts []string
	for _, k := range m.Keys.ShortHelp() {
		h := k.Help()
		parts = append(parts, styleFooterKey.Render(h.Key)+" "+styleFooterDesc.Render(h.Desc))
	}
	return styleFooter.Render(strings.Join(parts, "  "))
}
