// Package datasource loads the variable roots templates render against.
package datasource

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies a data file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// FormatOf derives the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("unsupported data file %q: expected .json, .yaml, .yml or .hcl", path)
	}
}

// LoadFile reads a data root from path.
func LoadFile(path string) (map[string]any, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	return Parse(format, filepath.Base(path), src)
}

// Parse decodes src in the given format. name is used in diagnostics.
func Parse(format Format, name string, src []byte) (map[string]any, error) {
	var (
		root map[string]any
		err  error
	)
	switch format {
	case FormatJSON:
		err = json.Unmarshal(src, &root)
	case FormatYAML:
		err = yaml.Unmarshal(src, &root)
	case FormatHCL:
		root, err = parseHCL(name, src)
	default:
		return nil, fmt.Errorf("unsupported data format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s data %s: %w", format, name, err)
	}
	if root == nil {
		root = map[string]any{}
	}

	return root, nil
}

// Merge copies the keys of each source into dst, later sources winning.
// Nested maps are merged recursively.
func Merge(dst map[string]any, sources ...map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for _, src := range sources {
		for k, v := range src {
			srcMap, srcIsMap := v.(map[string]any)
			dstMap, dstIsMap := dst[k].(map[string]any)
			if srcIsMap && dstIsMap {
				dst[k] = Merge(dstMap, srcMap)
				continue
			}
			dst[k] = v
		}
	}

	return dst
}

// Copy returns a deep copy of src. Nested maps and slices are copied so the
// result can be mutated without touching src.
func Copy(src map[string]any) map[string]any {
	if src == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = copyValue(v)
	}

	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Copy(t)
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = copyValue(x)
		}
		return out
	default:
		return v
	}
}
