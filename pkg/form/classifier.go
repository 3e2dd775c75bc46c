package form

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-modelform/pkg/filter/expr"
	"github.com/goliatone/go-modelform/pkg/metadata"
	"github.com/goliatone/go-modelform/pkg/schema"
)

// Descriptor is the classification of one renderable field.
type Descriptor struct {
	Field    metadata.Field
	Kind     Kind
	Label    string
	Required bool
	// EnumValues lists the permitted literals of enum fields.
	EnumValues []string
	// Relation is set for reference fields.
	Relation *metadata.Relation

	filter metadata.FilterFunc
}

// Filter returns the candidate filter attached to the field, if any.
func (d Descriptor) Filter() metadata.FilterFunc {
	return d.filter
}

// ClassifierOption customises a Classifier.
type ClassifierOption func(*Classifier)

// WithEnumLabel installs the host hook that turns enum literals into labels.
func WithEnumLabel(fn func(string) string) ClassifierOption {
	return func(c *Classifier) {
		c.enumLabel = fn
	}
}

// Classifier decides how each field of a model renders, using the field
// metadata together with the rule the active schema declares for it.
type Classifier struct {
	registry  *metadata.Registry
	model     *metadata.Model
	shape     *schema.Object
	enumLabel func(string) string
}

// NewClassifier binds a classifier to a model and its active schema. Effects
// wrapped around the schema object are looked through.
func NewClassifier(registry *metadata.Registry, model *metadata.Model, rule schema.Rule, options ...ClassifierOption) *Classifier {
	shape, _ := schema.ShapeOf(rule)
	c := &Classifier{
		registry: registry,
		model:    model,
		shape:    shape,
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Model returns the classified model.
func (c *Classifier) Model() *metadata.Model {
	return c.model
}

// EnumLabel applies the host label hook to an enum literal.
func (c *Classifier) EnumLabel(value string) string {
	if c.enumLabel == nil {
		return value
	}
	return c.enumLabel(value)
}

// Renderable reports whether field takes part in automatic rendering at all.
// Hidden fields, relation objects and lists never do.
func Renderable(field metadata.Field) bool {
	return !field.Hidden && !field.IsDataModel && !field.IsArray
}

// Classify returns the descriptor for field. The boolean is false when the
// field is not rendered automatically. A *ConfigError is returned when the
// schema has no rule for the field or its relation cannot be resolved.
func (c *Classifier) Classify(field metadata.Field) (Descriptor, bool, error) {
	if !Renderable(field) {
		return Descriptor{}, false, nil
	}

	rule, ok := c.shape.Lookup(field.Name)
	if !ok {
		return Descriptor{}, false, configError(c.model.Name(), field.Name, ErrSchemaEntry)
	}
	base, optional := schema.Unwrap(rule)

	filter, err := compileFilter(field)
	if err != nil {
		return Descriptor{}, false, configError(c.model.Name(), field.Name, err)
	}

	desc := Descriptor{
		Field:    field,
		Kind:     KindOf(field.Type),
		Label:    field.DisplayLabel(),
		Required: !optional,
		filter:   filter,
	}

	if enum, isEnum := base.(*schema.Enum); isEnum {
		desc.Kind = KindEnum
		desc.EnumValues = append([]string(nil), enum.Values...)
		return desc, true, nil
	}

	if field.IsForeignKey {
		rel, err := c.registry.Relation(c.model, field)
		if err != nil {
			return Descriptor{}, false, configError(c.model.Name(), field.Name, err)
		}
		desc.Kind = KindReferenceSingle
		desc.Relation = &rel
		desc.Label = rel.Field.Name
		return desc, true, nil
	}

	return desc, true, nil
}

// ReferenceTargets returns the related model names whose records must be
// queried for this model: one per foreign key, hidden or not, in field order.
func (c *Classifier) ReferenceTargets() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, fk := range c.model.ForeignKeys() {
		rel, err := c.registry.Relation(c.model, fk)
		if err != nil {
			continue
		}
		name := rel.Target.Name()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func compileFilter(field metadata.Field) (metadata.FilterFunc, error) {
	if field.Filter != nil {
		return field.Filter, nil
	}
	rule := strings.TrimSpace(field.FilterRule)
	if rule == "" {
		return nil, nil
	}
	program, err := expr.Compile(rule)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}
	return program.Match, nil
}
