package metadata

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Encode writes registry as a metadata document Parse accepts. The format
// follows the extension of target: .yaml and .yml produce YAML, anything else
// indented JSON. Programmatic filters are dropped; filter rules are kept.
func Encode(registry *Registry, target string) ([]byte, error) {
	if registry == nil {
		return nil, fmt.Errorf("modelform/metadata: registry is nil")
	}
	doc := documentFile{Models: make(map[string]modelFile, len(registry.models))}
	for _, name := range registry.Models() {
		m, err := registry.Model(name)
		if err != nil {
			return nil, err
		}
		doc.Models[name] = modelFile{Fields: m.Fields()}
	}

	switch strings.ToLower(filepath.Ext(target)) {
	case ".yaml", ".yml":
		out, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("modelform/metadata: encode %s: %w", target, err)
		}
		return out, nil
	default:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("modelform/metadata: encode %s: %w", target, err)
		}
		return append(out, '\n'), nil
	}
}
