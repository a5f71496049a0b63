// Package telemetry provides a JSONL event stream for scene loading, saving
// and reloading. Every parse, instance expansion, skipped override and
// registration is recorded as a structured JSON event so that a session can
// be audited after the fact.
package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event kinds identify the type of telemetry event.
const (
	KindParseStart       = "parse_start"
	KindParseDone        = "parse_done"
	KindInstanceResolved = "instance_resolved"
	KindOverrideSkipped  = "override_skipped"
	KindComponentSkipped = "component_skipped"
	KindPropertySkipped  = "property_skipped"
	KindGraphRegistered  = "graph_registered"
	KindGraphSaved       = "graph_saved"
	KindGraphReloaded    = "graph_reloaded"
	KindNodeDuplicated   = "node_duplicated"
)

// Event represents a single telemetry record. Each event carries a timestamp,
// a kind tag, the emitter's run id and optional scene context along with
// arbitrary structured data.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	RunID     string    `json:"run,omitempty"`
	File      string    `json:"file,omitempty"`
	NodeID    string    `json:"node,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Emitter writes telemetry events as JSONL. It is safe for concurrent use
// by multiple goroutines. A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	w     io.Writer
	c     io.Closer
	enc   *json.Encoder
	mu    sync.Mutex
	runID string
	now   func() time.Time
}

// NewEmitter creates an Emitter that appends to the file at path, creating
// it if needed.
func NewEmitter(path string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	e := NewWriterEmitter(f)
	e.c = f
	return e, nil
}

// NewWriterEmitter creates an Emitter over any writer. Close does not close w.
func NewWriterEmitter(w io.Writer) *Emitter {
	return &Emitter{
		w:     w,
		enc:   json.NewEncoder(w),
		runID: uuid.NewString(),
		now:   time.Now,
	}
}

// RunID returns the id stamped on every event from this emitter.
func (e *Emitter) RunID() string {
	if e == nil {
		return ""
	}
	return e.runID
}

// Emit writes a single event. Missing timestamps and run ids are filled in.
// Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if evt.Timestamp.IsZero() {
		evt.Timestamp = e.now().UTC()
	}
	if evt.RunID == "" {
		evt.RunID = e.runID
	}
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Record is shorthand for emitting a kind with file and data, dropping any
// encode error. Telemetry must never fail the operation it observes.
func (e *Emitter) Record(kind, file string, data any) {
	_ = e.Emit(Event{Kind: kind, File: file, Data: data})
}

// Close closes the underlying file, if the emitter owns one. Calling Close
// on a nil Emitter is a no-op.
func (e *Emitter) Close() error {
	if e == nil || e.c == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.c.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}
