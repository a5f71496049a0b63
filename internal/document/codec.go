package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrEmpty is returned when a document decodes to nothing.
var ErrEmpty = errors.New("document is empty")

// ErrUnknownFormat is returned for an unsupported Format value.
var ErrUnknownFormat = errors.New("unknown document format")

// Format identifies a document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatYAML, FormatTOML, FormatJSON:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatForPath picks a format from the file extension, defaulting to YAML.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	}
	return FormatYAML
}

// Decode parses data in the given format. Empty or null input yields
// ErrEmpty; any other failure is a wrapped decode error.
func Decode(data []byte, format Format) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmpty
	}

	var shape any
	var doc Document
	switch format {
	case FormatYAML, "":
		if err := yaml.Unmarshal(data, &shape); err != nil {
			return nil, fmt.Errorf("document: decode yaml: %w", err)
		}
		if err := checkShape(shape); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("document: decode yaml: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &shape); err != nil {
			return nil, fmt.Errorf("document: decode json: %w", err)
		}
		if err := checkShape(shape); err != nil {
			return nil, err
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("document: decode json: %w", err)
		}
	case FormatTOML:
		var table map[string]any
		if err := toml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("document: decode toml: %w", err)
		}
		if err := checkShape(table); err != nil {
			return nil, err
		}
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("document: decode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	doc.normalize()
	return &doc, nil
}

func checkShape(shape any) error {
	switch p := shape.(type) {
	case nil:
		return ErrEmpty
	case map[string]any:
		if len(p) == 0 {
			return ErrEmpty
		}
		return nil
	case map[any]any:
		if len(p) == 0 {
			return ErrEmpty
		}
		return nil
	}
	return fmt.Errorf("document: top level must be a mapping, got %T", shape)
}

// EncodeOptions controls text output.
type EncodeOptions struct {
	// Indent is the YAML/JSON indentation width. Zero means 2.
	Indent int
}

// Encode renders doc in the given format. YAML output is passed through
// NormalizeFlowArrays.
func Encode(doc *Document, format Format, opts EncodeOptions) (string, error) {
	indent := opts.Indent
	if indent <= 0 {
		indent = 2
	}

	var buf bytes.Buffer
	switch format {
	case FormatYAML, "":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(indent)
		if err := enc.Encode(doc); err != nil {
			return "", fmt.Errorf("document: encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("document: encode yaml: %w", err)
		}
		return NormalizeFlowArrays(buf.String()), nil
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", strings.Repeat(" ", indent))
		if err != nil {
			return "", fmt.Errorf("document: encode json: %w", err)
		}
		return string(data) + "\n", nil
	case FormatTOML:
		enc := toml.NewEncoder(&buf)
		enc.SetIndentTables(true)
		enc.SetArraysMultiline(false)
		if err := enc.Encode(doc); err != nil {
			return "", fmt.Errorf("document: encode toml: %w", err)
		}
		return buf.String(), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
