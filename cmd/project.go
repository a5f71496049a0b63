package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/papapumpkin/scenery/internal/component"
	"github.com/papapumpkin/scenery/internal/config"
	"github.com/papapumpkin/scenery/internal/document"
	"github.com/papapumpkin/scenery/internal/loader"
	"github.com/papapumpkin/scenery/internal/resource"
	"github.com/papapumpkin/scenery/internal/saver"
	"github.com/papapumpkin/scenery/internal/scene"
	"github.com/papapumpkin/scenery/internal/telemetry"
)

// project bundles the collaborators every command needs, built from config.
type project struct {
	cfg       config.Config
	root      string // absolute project root
	fs        *resource.FS
	types     *scene.Types
	registry  *component.Registry
	loader    *loader.Loader
	saver     *saver.Saver
	telemetry *telemetry.Emitter
}

func openProject() (*project, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	root, err := filepath.Abs(cfg.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	format, err := document.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	var em *telemetry.Emitter
	if cfg.TelemetryPath != "" {
		em, err = telemetry.NewEmitter(cfg.TelemetryPath)
		if err != nil {
			return nil, err
		}
	}

	var logger io.Writer = io.Discard
	if cfg.Verbose {
		logger = os.Stderr
	}

	p := &project{
		cfg:       cfg,
		root:      root,
		fs:        resource.NewOSFS(root),
		types:     scene.DefaultTypes(),
		telemetry: em,
	}
	p.registry = component.Default(p.types)
	p.loader = loader.New(p.types, p.registry, p.fs,
		loader.WithLogger(logger),
		loader.WithTelemetry(em),
		loader.WithMaxDepth(cfg.MaxInstanceDepth),
		loader.WithCache(cfg.CacheDocuments),
	)
	p.saver = saver.New(p.types, p.registry,
		saver.WithFormat(format),
		saver.WithIndent(cfg.Indent),
	)
	return p, nil
}

func (p *project) Close() {
	p.telemetry.Close() //nolint:errcheck // best-effort flush on exit
}

// docPath converts a command-line path into a project-relative slash path.
func (p *project) docPath(arg string) (string, error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(p.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the project root %s", arg, p.root)
	}
	return filepath.ToSlash(rel), nil
}

// documents lists the scene documents under dir, or the whole project.
func (p *project) documents(ctx context.Context, dir string) ([]string, error) {
	rel := ""
	if dir != "" {
		var err error
		if rel, err = p.docPath(dir); err != nil {
			return nil, err
		}
	}
	return p.fs.List(ctx, rel)
}
