package schema

import (
	"github.com/goliatone/go-modelform/pkg/metadata"
)

// DeriveOption configures FromModel.
type DeriveOption func(*deriveConfig)

type deriveConfig struct {
	create bool
	bases  map[string]Rule
}

// ForCreate derives the create variant: identifier fields and fields with a
// static default become optional so generated values are not required.
func ForCreate() DeriveOption {
	return func(cfg *deriveConfig) {
		cfg.create = true
	}
}

// WithBaseRule replaces the base rule derived for the named field, for example
// to add length or range bounds. Optional wrapping still follows the field
// metadata.
func WithBaseRule(name string, base Rule) DeriveOption {
	return func(cfg *deriveConfig) {
		if base == nil {
			return
		}
		if cfg.bases == nil {
			cfg.bases = make(map[string]Rule)
		}
		cfg.bases[name] = base
	}
}

// FromModel derives an object rule from model metadata. Relation objects and
// list fields are skipped; optional fields accept nil or absent values, and
// non-string optional fields also accept an empty string as absent.
func FromModel(m *metadata.Model, options ...DeriveOption) *Object {
	cfg := deriveConfig{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	var props []Prop
	for _, field := range m.Fields() {
		if field.IsDataModel || field.IsArray {
			continue
		}
		props = append(props, Field(field.Name, ruleForField(field, cfg)))
	}
	return NewObject(props...)
}

func ruleForField(field metadata.Field, cfg deriveConfig) Rule {
	base, ok := cfg.bases[field.Name]
	if !ok {
		base = baseRule(field)
	}
	optional := field.IsOptional || (cfg.create && (field.IsID || field.HasDefault()))
	if !optional {
		return base
	}
	if _, isString := base.(*String); isString {
		return Opt(base)
	}
	return Preprocess(EmptyToNil, Opt(base))
}

func baseRule(field metadata.Field) Rule {
	if field.Type == metadata.FieldTypeEnum || len(field.Enum) > 0 {
		return OneOf(field.Enum...)
	}
	switch field.Type {
	case metadata.FieldTypeBoolean:
		return Bool()
	case metadata.FieldTypeInt, metadata.FieldTypeBigInt:
		return &Number{Int: true, Coerce: true}
	case metadata.FieldTypeFloat, metadata.FieldTypeDecimal:
		return &Number{Coerce: true}
	case metadata.FieldTypeJSON:
		return &Any{}
	default:
		return Str()
	}
}
