package loader

import (
	"io"

	"github.com/papapumpkin/scenery/internal/telemetry"
)

// DefaultMaxDepth bounds instance nesting when no limit is configured.
const DefaultMaxDepth = 32

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the writer for warning lines. The default discards them.
func WithLogger(w io.Writer) Option {
	return func(l *Loader) {
		if w != nil {
			l.logger = w
		}
	}
}

// WithTelemetry sets the event emitter. A nil emitter disables events.
func WithTelemetry(e *telemetry.Emitter) Option {
	return func(l *Loader) {
		l.telemetry = e
	}
}

// WithMaxDepth sets the instance nesting ceiling. Values below 1 keep the
// default.
func WithMaxDepth(n int) Option {
	return func(l *Loader) {
		if n >= 1 {
			l.maxDepth = n
		}
	}
}

// WithCache memoizes referenced documents for the duration of one parse.
func WithCache(on bool) Option {
	return func(l *Loader) {
		l.cache = on
	}
}
