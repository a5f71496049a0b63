package loader

import (
	"errors"
	"strings"
)

// Sentinel errors for scene parsing. Every failure returned by ParseScene is
// a *ValidationError wrapping one of these.
var (
	// ErrDecode indicates the document text could not be decoded.
	ErrDecode = errors.New("malformed scene document")
	// ErrEmptyDocument indicates the document decoded to nothing.
	ErrEmptyDocument = errors.New("empty scene document")
	// ErrDuplicateID indicates two nodes share one runtime id.
	ErrDuplicateID = errors.New("duplicate node id")
	// ErrMissingInstancePath indicates an instance definition without a path.
	ErrMissingInstancePath = errors.New("instance path missing")
	// ErrPrefabRoots indicates an instanced document without exactly one root.
	ErrPrefabRoots = errors.New("instanced document must have exactly one root")
	// ErrCycle indicates a document instances itself, directly or not.
	ErrCycle = errors.New("instance cycle detected")
	// ErrDepthExceeded indicates instance nesting deeper than the limit.
	ErrDepthExceeded = errors.New("instance nesting too deep")
	// ErrResource indicates a referenced document could not be read.
	ErrResource = errors.New("referenced document unavailable")
)

// ValidationCategory classifies a validation error for programmatic handling.
type ValidationCategory string

const (
	// ValCatDecode indicates malformed input.
	ValCatDecode ValidationCategory = "decode"
	// ValCatEmptyDocument indicates an empty or null document.
	ValCatEmptyDocument ValidationCategory = "empty_document"
	// ValCatDuplicateID indicates a node id collision.
	ValCatDuplicateID ValidationCategory = "duplicate_id"
	// ValCatMissingInstancePath indicates an instance definition without a path.
	ValCatMissingInstancePath ValidationCategory = "missing_instance_path"
	// ValCatPrefabRoots indicates a prefab with zero or several roots.
	ValCatPrefabRoots ValidationCategory = "prefab_roots"
	// ValCatCycle indicates an instantiation cycle.
	ValCatCycle ValidationCategory = "cycle"
	// ValCatDepthExceeded indicates instance nesting beyond the configured limit.
	ValCatDepthExceeded ValidationCategory = "depth_exceeded"
	// ValCatResource indicates a referenced document could not be fetched.
	ValCatResource ValidationCategory = "resource"
)

var categorySentinels = map[ValidationCategory]error{
	ValCatDecode:              ErrDecode,
	ValCatEmptyDocument:       ErrEmptyDocument,
	ValCatDuplicateID:         ErrDuplicateID,
	ValCatMissingInstancePath: ErrMissingInstancePath,
	ValCatPrefabRoots:         ErrPrefabRoots,
	ValCatCycle:               ErrCycle,
	ValCatDepthExceeded:       ErrDepthExceeded,
	ValCatResource:            ErrResource,
}

// ValidationError is the single error kind returned by ParseScene. It carries
// a message plus detail strings such as offending paths or a cycle chain.
type ValidationError struct {
	Category   ValidationCategory // Machine-readable category for programmatic handling
	Message    string
	Details    []string
	SourceFile string
	Err        error
}

// Error returns a human-readable string including source file and details.
func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.SourceFile != "" {
		b.WriteString(e.SourceFile)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if len(e.Details) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(e.Details, "; "))
		b.WriteString("]")
	}
	return b.String()
}

// Unwrap returns the category sentinel and the underlying cause, if any.
func (e *ValidationError) Unwrap() []error {
	var errs []error
	if s, ok := categorySentinels[e.Category]; ok {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func newError(cat ValidationCategory, file string, cause error, msg string, details ...string) *ValidationError {
	return &ValidationError{
		Category:   cat,
		Message:    msg,
		Details:    details,
		SourceFile: file,
		Err:        cause,
	}
}
