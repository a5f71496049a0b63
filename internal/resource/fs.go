package resource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// SceneExtensions are the file extensions treated as scene documents.
var SceneExtensions = []string{".yaml", ".yml", ".toml", ".json"}

// FS reads and writes documents on an afero filesystem. Paths are taken
// relative to the filesystem root with any scheme prefix removed.
type FS struct {
	fs afero.Fs
}

// NewFS wraps fsys.
func NewFS(fsys afero.Fs) *FS {
	return &FS{fs: fsys}
}

// NewOSFS returns an FS rooted at dir on the real filesystem.
func NewOSFS(dir string) *FS {
	return &FS{fs: afero.NewBasePathFs(afero.NewOsFs(), dir)}
}

// Fs returns the underlying filesystem.
func (f *FS) Fs() afero.Fs {
	return f.fs
}

func (f *FS) clean(p string) string {
	p = StripScheme(Normalize("", p))
	return filepath.FromSlash(strings.TrimPrefix(p, "/"))
}

// ReadText reads a document.
func (f *FS) ReadText(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := afero.ReadFile(f.fs, f.clean(p))
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return "", fmt.Errorf("resource: read %s: %w", p, err)
	}
	return string(data), nil
}

// WriteText atomically replaces a document by writing a temp file in the
// same directory and renaming it into place.
func (f *FS) WriteText(ctx context.Context, p, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := f.clean(p)
	dir := filepath.Dir(target)
	if err := f.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("resource: create directory for %s: %w", p, err)
	}
	tmp, err := afero.TempFile(f.fs, dir, ".scenery-*")
	if err != nil {
		return fmt.Errorf("resource: create temp file for %s: %w", p, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		f.fs.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("resource: write %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		f.fs.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("resource: close %s: %w", p, err)
	}
	if err := f.fs.Rename(tmpName, target); err != nil {
		f.fs.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("resource: rename %s: %w", p, err)
	}
	return nil
}

// List returns the slash paths of every scene document under dir, sorted.
func (f *FS) List(ctx context.Context, dir string) ([]string, error) {
	root := f.clean(dir)
	if root == "" {
		root = "."
	}
	var out []string
	err := afero.Walk(f.fs, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() {
			if p != root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsScene(p) {
			out = append(out, path.Clean(filepath.ToSlash(p)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resource: list %s: %w", dir, err)
	}
	sort.Strings(out)
	return out, nil
}

// IsScene reports whether p has a scene document extension.
func IsScene(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range SceneExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
