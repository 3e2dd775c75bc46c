package metadata

import (
	"sort"
	"strings"
)

// FieldType is the declared type of a model field. Scalar kinds use the
// constants below; relation fields carry the target model name instead.
type FieldType string

const (
	FieldTypeString   FieldType = "String"
	FieldTypeInt      FieldType = "Int"
	FieldTypeBigInt   FieldType = "BigInt"
	FieldTypeFloat    FieldType = "Float"
	FieldTypeDecimal  FieldType = "Decimal"
	FieldTypeBoolean  FieldType = "Boolean"
	FieldTypeDateTime FieldType = "DateTime"
	FieldTypeJSON     FieldType = "Json"
	FieldTypeBytes    FieldType = "Bytes"
	FieldTypeEnum     FieldType = "Enum"
)

// IsNumeric reports whether values of this type are numbers.
func (t FieldType) IsNumeric() bool {
	switch t {
	case FieldTypeInt, FieldTypeBigInt, FieldTypeFloat, FieldTypeDecimal:
		return true
	default:
		return false
	}
}

// FilterFunc narrows the candidates offered by enum and reference pickers. It
// receives the current form values and one candidate (a related record, or
// {"value": literal} for enums) and reports whether the candidate is kept.
type FilterFunc func(values map[string]any, candidate map[string]any) bool

// Field describes one model field: its declared type, constraints and the UI
// hints the form engine consumes. Struct tags allow documents to be decoded
// directly from JSON, YAML or CUE.
type Field struct {
	Name        string    `json:"name" yaml:"name"`
	Type        FieldType `json:"type" yaml:"type"`
	IsID        bool      `json:"isId,omitempty" yaml:"isId,omitempty"`
	IsOptional  bool      `json:"isOptional,omitempty" yaml:"isOptional,omitempty"`
	Hidden      bool      `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Label       string    `json:"label,omitempty" yaml:"label,omitempty"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Default     any       `json:"default,omitempty" yaml:"default,omitempty"`
	Enum        []string  `json:"enum,omitempty" yaml:"enum,omitempty"`
	DependsOn   []string  `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`

	// FilterRule is a declarative filter expression (see pkg/filter/expr).
	// Filter takes precedence when both are set.
	FilterRule string     `json:"filter,omitempty" yaml:"filter,omitempty"`
	Filter     FilterFunc `json:"-" yaml:"-"`

	IsDataModel bool `json:"isDataModel,omitempty" yaml:"isDataModel,omitempty"`
	IsArray     bool `json:"isArray,omitempty" yaml:"isArray,omitempty"`

	IsForeignKey      bool              `json:"isForeignKey,omitempty" yaml:"isForeignKey,omitempty"`
	RelationField     string            `json:"relationField,omitempty" yaml:"relationField,omitempty"`
	ForeignKeyMapping map[string]string `json:"foreignKeyMapping,omitempty" yaml:"foreignKeyMapping,omitempty"`

	DisplayFieldForReferencePicker string `json:"displayFieldForReferencePicker,omitempty" yaml:"displayFieldForReferencePicker,omitempty"`
}

// HasDefault reports whether the field declares a static default.
func (f Field) HasDefault() bool {
	return f.Default != nil
}

// HasFilter reports whether a Go or declarative filter is attached.
func (f Field) HasFilter() bool {
	return f.Filter != nil || strings.TrimSpace(f.FilterRule) != ""
}

// Target returns the related model name for data-model fields.
func (f Field) Target() string {
	if !f.IsDataModel {
		return ""
	}
	return string(f.Type)
}

// DependsOnField reports whether name appears in DependsOn.
func (f Field) DependsOnField(name string) bool {
	for _, dep := range f.DependsOn {
		if dep == name {
			return true
		}
	}
	return false
}

// RelationIDKey returns the target identifier key from the relation's
// ForeignKeyMapping for the supplied foreign-key scalar. Mappings are keyed by
// the target field and valued by the local scalar; a single entry is used as-is.
func (f Field) RelationIDKey(foreignKey string) (string, bool) {
	if len(f.ForeignKeyMapping) == 0 {
		return "", false
	}
	keys := make([]string, 0, len(f.ForeignKeyMapping))
	for key, local := range f.ForeignKeyMapping {
		if local == foreignKey {
			return key, true
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys[0], true
}

// DisplayLabel returns the explicit label or falls back to the field name.
func (f Field) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return f.Name
}

func cloneField(f Field) Field {
	out := f
	if len(f.Enum) > 0 {
		out.Enum = append([]string(nil), f.Enum...)
	}
	if len(f.DependsOn) > 0 {
		out.DependsOn = append([]string(nil), f.DependsOn...)
	}
	if len(f.ForeignKeyMapping) > 0 {
		out.ForeignKeyMapping = make(map[string]string, len(f.ForeignKeyMapping))
		for k, v := range f.ForeignKeyMapping {
			out.ForeignKeyMapping[k] = v
		}
	}
	return out
}
