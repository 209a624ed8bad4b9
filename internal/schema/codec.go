package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from a file extension, YAML by default.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Decode parses a document. YAML input is normalised through JSON so both
// encodings share the same tagged-union decoding.
func Decode(data []byte, format Format) (*Dashboard, error) {
	if format == FormatYAML {
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
		converted, err := json.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("failed to normalise yaml: %w", err)
		}
		data = converted
	}

	var doc Dashboard
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse dashboard: %w", err)
	}
	if doc.APIVersion == "" {
		doc.APIVersion = APIVersion
	}
	if doc.APIVersion != APIVersion {
		return nil, fmt.Errorf("unsupported apiVersion %q (expected %q)", doc.APIVersion, APIVersion)
	}
	if doc.Elements == nil {
		doc.Elements = make(map[string]Element)
	}
	return &doc, nil
}

// Encode renders a document. YAML output keeps the JSON field order.
func Encode(doc *Dashboard, format Format) ([]byte, error) {
	if doc.APIVersion == "" {
		doc.APIVersion = APIVersion
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode dashboard: %w", err)
	}
	if format == FormatJSON {
		return append(data, '\n'), nil
	}

	// JSON is valid YAML; decoding into a node keeps the key order, and
	// clearing the flow styles gives block output.
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to convert dashboard to yaml: %w", err)
	}
	clearStyles(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func clearStyles(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyles(c)
	}
}

// ReadFile decodes the document at path.
func ReadFile(path string) (*Dashboard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dashboard: %w", err)
	}
	return Decode(data, FormatFromPath(path))
}

// WriteFile encodes doc to path in the encoding its extension implies.
func WriteFile(path string, doc *Dashboard) error {
	data, err := Encode(doc, FormatFromPath(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write dashboard: %w", err)
	}
	return nil
}
