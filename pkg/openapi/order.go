package openapi

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// propertyOrder returns the declared property order of every component
// schema, keyed by schema name. kin-openapi decodes properties into maps, so
// the order is recovered from the raw node tree. JSON documents parse as YAML.
func propertyOrder(raw []byte) (map[string][]string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("modelform/openapi: decode node tree: %w", err)
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}

	schemas := lookup(lookup(doc, "components"), "schemas")
	if schemas == nil {
		return map[string][]string{}, nil
	}

	out := make(map[string][]string)
	for i := 0; i+1 < len(schemas.Content); i += 2 {
		name := schemas.Content[i].Value
		props := lookup(schemas.Content[i+1], "properties")
		if props == nil {
			continue
		}
		keys := make([]string, 0, len(props.Content)/2)
		for j := 0; j+1 < len(props.Content); j += 2 {
			keys = append(keys, props.Content[j].Value)
		}
		out[name] = keys
	}
	return out, nil
}

func lookup(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
