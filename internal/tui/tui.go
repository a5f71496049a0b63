// Package tui provides the bubbletea scene inspector.
package tui

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/papapumpkin/scenery/internal/scene"
)

// Program is an alias for tea.Program, exposed so callers don't need
// to import bubbletea directly.
type Program = tea.Program

// NewProgram creates an inspector program for g.
// The program uses the alternate screen buffer for a clean TUI experience.
func NewProgram(g *scene.Graph, types *scene.Types, reg scene.ComponentRegistry, opts ...tea.ProgramOption) *Program {
	allOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
	}
	allOpts = append(allOpts, opts...)
	return tea.NewProgram(NewModel(g, types, reg), allOpts...)
}

// Run creates and runs an inspector, blocking until it exits.
func Run(g *scene.Graph, types *scene.Types, reg scene.ComponentRegistry) error {
	if _, err := NewProgram(g, types, reg).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// WithOutput returns a program option that directs TUI output to the given writer.
// Useful for testing or redirecting output.
func WithOutput(w io.Writer) tea.ProgramOption {
	return tea.WithOutput(w)
}
