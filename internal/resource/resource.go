// Package resource provides the document providers the loader reads
// instanced scenes through: an afero-backed filesystem, a SQLite scene
// library and a per-parse memoizing cache.
package resource

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ErrNotFound is returned when a provider has no document at a path.
var ErrNotFound = errors.New("document not found")

// Provider reads scene documents by normalized path.
type Provider interface {
	ReadText(ctx context.Context, p string) (string, error)
}

// Writer stores scene documents by normalized path.
type Writer interface {
	WriteText(ctx context.Context, p, text string) error
}

// ReadWriter is both a Provider and a Writer.
type ReadWriter interface {
	Provider
	Writer
}

// Normalize resolves p against the document at base. Paths starting with
// "./" or "../" are relative to base's directory; other paths are relative
// to the project root. Backslashes become slashes, "scheme://" prefixes are
// kept and the result is cleaned.
func Normalize(base, p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
	if p == "" {
		return ""
	}
	scheme, rest := splitScheme(p)
	if isRelative(rest) && base != "" {
		bScheme, bRest := splitScheme(strings.ReplaceAll(base, `\`, "/"))
		if scheme == "" {
			scheme = bScheme
		}
		rest = path.Join(path.Dir(bRest), rest)
	}
	return scheme + path.Clean(rest)
}

// StripScheme drops a "scheme://" prefix.
func StripScheme(p string) string {
	_, rest := splitScheme(p)
	return rest
}

func splitScheme(p string) (scheme, rest string) {
	if i := strings.Index(p, "://"); i > 0 && !strings.ContainsAny(p[:i], "/.") {
		return p[:i+3], p[i+3:]
	}
	return "", p
}

func isRelative(p string) bool {
	return p == "." || p == ".." || strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../")
}
