package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/gamemaps/catalog/model"
)

// ErrUnsupportedFormat is returned for file extensions the loader cannot read.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// Format is an authoring format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// DecodeDataset decodes and validates one dataset document.
func DecodeDataset(data []byte, format Format) (model.MapDataset, error) {
	var ds model.MapDataset
	switch format {
	case FormatJSON:
	case FormatYAML:
		converted, err := yamlToJSON(data)
		if err != nil {
			return ds, err
		}
		data = converted
	default:
		return ds, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err := json.Unmarshal(data, &ds); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return ds, fmt.Errorf("%w: malformed document: %v", model.ErrSchemaViolation, err)
		}
		return ds, err
	}
	return ds, nil
}

// EncodeDataset renders ds in the given format. Decoding the output yields a
// dataset equal to ds.
func EncodeDataset(ds model.MapDataset, format Format) ([]byte, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dataset: %w", err)
	}
	switch format {
	case FormatJSON:
		return append(data, '\n'), nil
	case FormatYAML:
		return jsonToYAML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// yamlToJSON normalises a YAML document to JSON so both formats share one
// validation path. Scalars are converted by their resolved tag; timestamps and
// binary scalars keep the authored text instead of being reinterpreted.
func yamlToJSON(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: malformed YAML: %v", model.ErrSchemaViolation, err)
	}
	doc, err := nodeValue(&node, "")
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrSchemaViolation, err)
	}
	return out, nil
}

func nodeValue(n *yaml.Node, path string) (any, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0], path)
	case yaml.AliasNode:
		return nodeValue(n.Alias, path)
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode || k.ShortTag() != "!!str" {
				return nil, fmt.Errorf("%w: %s: mapping key %q is not a string", model.ErrSchemaViolation, displayPath(path), k.Value)
			}
			if _, dup := out[k.Value]; dup {
				return nil, fmt.Errorf("%w: %s: duplicate key %q (line %d)", model.ErrSchemaViolation, displayPath(path), k.Value, k.Line)
			}
			conv, err := nodeValue(v, joinPath(path, k.Value))
			if err != nil {
				return nil, err
			}
			out[k.Value] = conv
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for i, item := range n.Content {
			conv, err := nodeValue(item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out = append(out, conv)
		}
		return out, nil
	case yaml.ScalarNode:
		return scalarValue(n, path)
	default:
		return nil, fmt.Errorf("%w: %s: unsupported YAML node", model.ErrSchemaViolation, displayPath(path))
	}
}

func scalarValue(n *yaml.Node, path string) (any, error) {
	var (
		v   any
		err error
	)
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		err = n.Decode(&b)
		v = b
	case "!!int":
		var i int64
		if err = n.Decode(&i); err == nil {
			return i, nil
		}
		var u uint64
		err = n.Decode(&u)
		v = u
	case "!!float":
		var f float64
		err = n.Decode(&f)
		v = f
	default:
		// !!str, !!timestamp, !!binary and custom tags keep the authored text.
		return n.Value, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrSchemaViolation, displayPath(path), err)
	}
	return v, nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func displayPath(path string) string {
	if path == "" {
		return "document"
	}
	return path
}

// jsonToYAML keeps the JSON key order by going through yaml.Node, then resets
// the flow styles the JSON syntax implies.
func jsonToYAML(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to convert dataset to YAML: %w", err)
	}
	resetStyle(&node)

	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return []byte(b.String()), nil
}

func resetStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		resetStyle(c)
	}
}
