// internal/ruleio/ruleio.go
package ruleio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/solatis/bamboorules/internal/frame"
	"github.com/solatis/bamboorules/internal/types"
)

/*
 * Rule and data documents.
 *
 * Documents decode into the engine's value model:
 *   - mappings: map[string]any (YAML keys are stringified)
 *   - sequences: []any
 *   - numbers: int when integral in the source text, float64 otherwise
 *
 * JSON is decoded with UseNumber so 3 stays int rather than float64 3.0.
 * Format is picked by file extension: .json, .yaml, .yml.
 */

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf returns the format implied by a file name.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, path)
}

// Decode parses one document.
func Decode(r io.Reader, format Format) (any, error) {
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decoding json: %w", err)
		}
		return normalize(v), nil
	case FormatYAML:
		var v any
		if err := yaml.NewDecoder(r).Decode(&v); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding yaml: %w", err)
		}
		return normalize(v), nil
	}
	return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, format)
}

// DecodeBytes parses one document held in memory.
func DecodeBytes(data []byte, format Format) (any, error) {
	return Decode(bytes.NewReader(data), format)
}

// ReadFile decodes the document at path.
func ReadFile(path string) (any, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, format)
}

// ReadRecords decodes a sequence of row mappings at path into a frame.
func ReadRecords(path string) (*frame.Frame, error) {
	v, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	records, err := Records(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frame.FromRecords(records), nil
}

// Records converts a decoded sequence of mappings into row records.
func Records(v any) ([]map[string]any, error) {
	rows, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: records must be a sequence, got %T", types.ErrTypeMismatch, v)
	}
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		m, ok := row.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: record %d is %T, want mapping", types.ErrTypeMismatch, i, row)
		}
		out[i] = m
	}
	return out, nil
}

// WithFrames returns a copy of data with each frame bound under its name.
// data must be a mapping or nil.
func WithFrames(data any, frames map[string]*frame.Frame) (any, error) {
	if len(frames) == 0 {
		return data, nil
	}
	out := make(map[string]any)
	switch d := data.(type) {
	case nil:
	case map[string]any:
		for k, v := range d {
			out[k] = v
		}
	default:
		return nil, fmt.Errorf("%w: frames need mapping data, got %T", types.ErrTypeMismatch, data)
	}
	for name, f := range frames {
		out[name] = f
	}
	return out, nil
}

// Marshal encodes an evaluation result as JSON. Series and frames are
// exported as plain mappings and records first.
func Marshal(v any, indent bool) ([]byte, error) {
	v = frame.Export(v)
	if indent {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case []any:
		for i, x := range t {
			t[i] = normalize(x)
		}
		return t
	case map[string]any:
		for k, x := range t {
			t[k] = normalize(x)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[fmt.Sprint(k)] = normalize(x)
		}
		return out
	}
	return v
}
