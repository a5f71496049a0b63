// Package ui provides stderr-based CLI output for scenery.
package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/papapumpkin/scenery/internal/dag"
	"github.com/papapumpkin/scenery/internal/loader"
	"github.com/papapumpkin/scenery/internal/scene"
)

var (
	colorPrimary = lipgloss.Color("#00BFFF")
	colorAccent  = lipgloss.Color("#FFD700")
	colorSuccess = lipgloss.Color("#00E676")
	colorDanger  = lipgloss.Color("#FF5252")
	colorMuted   = lipgloss.Color("#636363")
)

var (
	styleSuccess  = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleError    = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	styleWarning  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleHeading  = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleDim      = lipgloss.NewStyle().Foreground(colorMuted)
	styleInstance = lipgloss.NewStyle().Foreground(colorAccent)
	styleBullet   = lipgloss.NewStyle().Foreground(colorDanger)
)

// Printer writes human-readable results.
type Printer struct {
	w io.Writer
}

// New returns a Printer writing to stderr.
func New() *Printer {
	return &Printer{w: os.Stderr}
}

// NewWriter returns a Printer writing to w.
func NewWriter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.w, "%s%s\n", styleError.Render("error: "), msg)
}

func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.w, styleDim.Render(msg))
}

func (p *Printer) Success(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", styleSuccess.Render("✓"), msg)
}

// Warnings lists non-fatal load conditions for file.
func (p *Printer) Warnings(file string, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(p.w, "%s %s: %d warning(s)\n", styleWarning.Render("⚠"), file, len(warnings))
	for _, w := range warnings {
		fmt.Fprintf(p.w, "  %s %s\n", styleWarning.Render("•"), w)
	}
}

// ValidateResult reports the outcome of loading one document. A
// *loader.ValidationError is broken out into category, message and details.
func (p *Printer) ValidateResult(file string, g *scene.Graph, err error) {
	if err == nil {
		fmt.Fprintf(p.w, "%s — %d node(s), %d dependenc(ies), no errors\n",
			styleSuccess.Render(fmt.Sprintf("✓ %s", file)), g.Len(), len(g.Dependencies))
		p.Warnings(file, g.Warnings)
		return
	}
	var verr *loader.ValidationError
	if !errors.As(err, &verr) {
		fmt.Fprintf(p.w, "%s — %v\n", styleError.Render(fmt.Sprintf("✗ %s", file)), err)
		return
	}
	fmt.Fprintf(p.w, "%s — %s: %s\n", styleError.Render(fmt.Sprintf("✗ %s", file)), verr.Category, verr.Message)
	for _, d := range verr.Details {
		fmt.Fprintf(p.w, "  %s %s\n", styleBullet.Render("•"), d)
	}
	if verr.Err != nil {
		fmt.Fprintf(p.w, "  %s\n", styleDim.Render(verr.Err.Error()))
	}
}

// Tree prints the node hierarchy of g. Instance roots show their document.
func (p *Printer) Tree(g *scene.Graph) {
	title := g.SourcePath
	if title == "" {
		title = "(unsaved graph)"
	}
	fmt.Fprintln(p.w, styleHeading.Render(title))
	roots := g.Roots()
	for i, r := range roots {
		p.treeNode(g, r, "", i == len(roots)-1)
	}
}

func (p *Printer) treeNode(g *scene.Graph, n scene.Node, prefix string, last bool) {
	b := n.AsNode()
	branch, next := "├─ ", "│  "
	if last {
		branch, next = "└─ ", "   "
	}
	fmt.Fprintf(p.w, "%s%s%s\n", styleDim.Render(prefix+branch), NodeLabel(n), p.suffix(g, b))
	children := b.Children()
	for i, c := range children {
		p.treeNode(g, c, prefix+next, i == len(children)-1)
	}
}

// NodeLabel renders "id (Type) "Name"".
func NodeLabel(n scene.Node) string {
	b := n.AsNode()
	label := fmt.Sprintf("%s %s", b.ID, styleDim.Render("("+b.Type+")"))
	if b.Name != "" && b.Name != b.ID {
		label += fmt.Sprintf(" %q", b.Name)
	}
	return label
}

func (p *Printer) suffix(g *scene.Graph, b *scene.NodeBase) string {
	var parts []string
	if m := g.Marker(b.ID); m.IsInstanceRoot() && m.InstanceRootID == b.ID {
		parts = append(parts, styleInstance.Render("⇢ "+m.InstancePath))
	}
	if groups := b.GroupNames(); len(groups) > 0 {
		parts = append(parts, styleDim.Render("["+strings.Join(groups, ", ")+"]"))
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}

// Dependencies prints the document dependency graph: documents grouped by
// connected cluster, each in load order with the documents it instances.
func (p *Printer) Dependencies(d *dag.DAG) error {
	clusters, err := d.Clusters()
	if err != nil {
		return err
	}
	if len(clusters) == 0 {
		p.Info("no scene documents found")
		return nil
	}
	for _, c := range clusters {
		fmt.Fprintln(p.w, styleHeading.Render(fmt.Sprintf("cluster %d (%d document(s))", c.ID, len(c.Paths))))
		for _, path := range c.Paths {
			line := "  " + path
			if n := d.Node(path); n != nil && n.Missing {
				line = "  " + styleError.Render(path+" (missing)")
			}
			if refs := d.Refs(path); len(refs) > 0 {
				line += styleDim.Render(" → " + strings.Join(refs, ", "))
			}
			fmt.Fprintln(p.w, line)
		}
	}
	return nil
}
