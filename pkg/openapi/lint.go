package openapi

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-modelform/pkg/filter/expr"
)

const extensionNamespace = "x-formgen"

// Violation is one unsupported or malformed vendor extension.
type Violation struct {
	File     string
	Location string
	Message  string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s -> %s", v.File, v.Location, v.Message)
}

type extensionKind int

const (
	extBool extensionKind = iota
	extString
	extStrings
	extExpression
	extRelation
)

var knownExtensions = map[string]extensionKind{
	ExtID:          extBool,
	ExtHidden:      extBool,
	ExtSkip:        extBool,
	ExtLabel:       extString,
	ExtPlaceholder: extString,
	ExtDisplay:     extString,
	ExtDependsOn:   extStrings,
	ExtFilter:      extExpression,
	ExtRelation:    extRelation,
}

// KnownExtensions returns the supported vendor extension keys sorted.
func KnownExtensions() []string {
	keys := make([]string, 0, len(knownExtensions))
	for key := range knownExtensions {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Lint reports x-formgen extensions on component schemas and their properties
// that the importer does not understand or cannot decode. file only labels
// the violations.
func Lint(file string, raw []byte) ([]Violation, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("modelform/openapi: decode %s: %w", file, err)
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	schemas := lookup(lookup(doc, "components"), "schemas")
	if schemas == nil {
		return nil, nil
	}

	var out []Violation
	for i := 0; i+1 < len(schemas.Content); i += 2 {
		name := schemas.Content[i].Value
		node := schemas.Content[i+1]
		base := []string{"components", "schemas", name}
		out = append(out, lintExtensions(file, base, node)...)

		props := lookup(node, "properties")
		if props == nil {
			continue
		}
		for j := 0; j+1 < len(props.Content); j += 2 {
			path := appendPath(base, "properties."+props.Content[j].Value)
			prop := props.Content[j+1]
			out = append(out, lintExtensions(file, path, prop)...)
			if items := lookup(prop, "items"); items != nil {
				out = append(out, lintExtensions(file, appendPath(path, "items"), items)...)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Location == out[j].Location {
			return out[i].Message < out[j].Message
		}
		return out[i].Location < out[j].Location
	})
	return out, nil
}

func lintExtensions(file string, path []string, node *yaml.Node) []Violation {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	var out []Violation
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if !strings.HasPrefix(key, extensionNamespace) {
			continue
		}
		location := formatLocation(appendPath(path, key))
		kind, ok := knownExtensions[key]
		if !ok {
			out = append(out, Violation{
				File:     file,
				Location: location,
				Message:  fmt.Sprintf("unsupported extension %q (supported: %s)", key, strings.Join(KnownExtensions(), ", ")),
			})
			continue
		}
		if msg := checkValue(kind, node.Content[i+1]); msg != "" {
			out = append(out, Violation{File: file, Location: location, Message: msg})
		}
	}
	return out
}

func checkValue(kind extensionKind, value *yaml.Node) string {
	switch kind {
	case extBool:
		if value.Kind != yaml.ScalarNode || value.ShortTag() != "!!bool" {
			return "value must be a boolean"
		}
	case extString:
		if value.Kind != yaml.ScalarNode || value.ShortTag() != "!!str" {
			return "value must be a string"
		}
	case extStrings:
		if value.Kind == yaml.ScalarNode && value.ShortTag() == "!!str" {
			return ""
		}
		if value.Kind != yaml.SequenceNode {
			return "value must be a field name or a list of field names"
		}
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.ShortTag() != "!!str" {
				return "list entries must be field names"
			}
		}
	case extExpression:
		if value.Kind != yaml.ScalarNode || value.ShortTag() != "!!str" {
			return "value must be a filter expression string"
		}
		if _, err := expr.Compile(value.Value); err != nil {
			return fmt.Sprintf("invalid filter expression: %v", err)
		}
	case extRelation:
		if value.Kind != yaml.MappingNode {
			return "value must be an object with foreignKey and references"
		}
		for _, key := range []string{"foreignKey", "references"} {
			entry := lookup(value, key)
			if entry == nil || entry.Kind != yaml.ScalarNode || entry.Value == "" {
				return fmt.Sprintf("relation requires a %s string", key)
			}
		}
	}
	return ""
}

func appendPath(path []string, segment string) []string {
	next := append([]string(nil), path...)
	return append(next, segment)
}

func formatLocation(path []string) string {
	return strings.Join(path, " > ")
}
