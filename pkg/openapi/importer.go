package openapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-modelform/pkg/metadata"
	"github.com/goliatone/go-modelform/pkg/schema"
)

// Vendor extensions read from component schemas and their properties.
const (
	ExtID          = "x-formgen-id"
	ExtHidden      = "x-formgen-hidden"
	ExtLabel       = "x-formgen-label"
	ExtPlaceholder = "x-formgen-placeholder"
	ExtDependsOn   = "x-formgen-depends-on"
	ExtFilter      = "x-formgen-filter"
	ExtDisplay     = "x-formgen-display"
	ExtRelation    = "x-formgen-relation"
	ExtSkip        = "x-formgen-skip"
)

const componentPrefix = "#/components/schemas/"

// ErrNoModels is returned when a document has no importable component schema.
var ErrNoModels = errors.New("modelform/openapi: document declares no importable models")

// ImportOption customises an Importer.
type ImportOption func(*Importer)

// WithLogger routes import diagnostics to logger.
func WithLogger(logger *slog.Logger) ImportOption {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithExternalRefs allows $ref pointers to other documents.
func WithExternalRefs(enabled bool) ImportOption {
	return func(i *Importer) {
		i.externalRefs = enabled
	}
}

// WithValidation runs the kin-openapi document validator before importing.
func WithValidation(enabled bool) ImportOption {
	return func(i *Importer) {
		i.validate = enabled
	}
}

// Importer turns the component schemas of an OpenAPI 3 document into model
// metadata and validation rules.
//
// Each object schema with an identifier property becomes a model; property
// order follows the document. An identifier is the property marked with
// x-formgen-id, or the one named "id". A property referencing another
// component becomes a relation field; its x-formgen-relation extension
// ({foreignKey, references}) links it to the local foreign-key scalar.
type Importer struct {
	logger       *slog.Logger
	externalRefs bool
	validate     bool
}

// NewImporter constructs an Importer.
func NewImporter(options ...ImportOption) *Importer {
	i := &Importer{logger: slog.Default()}
	for _, opt := range options {
		if opt != nil {
			opt(i)
		}
	}
	return i
}

// Result holds the imported registry and the per-field rule refinements
// (length and range bounds) declared by the document.
type Result struct {
	Registry *metadata.Registry
	bases    map[string][]schema.DeriveOption
}

// Schema derives the validation rule for model, applying the document's
// bounds. Pass schema.ForCreate() for the create variant.
func (r *Result) Schema(model string, options ...schema.DeriveOption) (*schema.Object, error) {
	m, err := r.Registry.Model(model)
	if err != nil {
		return nil, err
	}
	derive := append(append([]schema.DeriveOption(nil), r.bases[model]...), options...)
	return schema.FromModel(m, derive...), nil
}

// Import parses doc and builds a validated registry.
func (i *Importer) Import(ctx context.Context, doc Document) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := doc.Raw()
	if len(raw) == 0 {
		return nil, errors.New("modelform/openapi: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: i.externalRefs}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("modelform/openapi: load %s: %w", doc.Location(), err)
	}
	if i.validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("modelform/openapi: validate %s: %w", doc.Location(), err)
		}
	}
	if spec.Components == nil || len(spec.Components.Schemas) == 0 {
		return nil, ErrNoModels
	}

	order, err := propertyOrder(raw)
	if err != nil {
		i.logger.Warn("modelform/openapi: property order unavailable, sorting by name", "error", err)
		order = nil
	}

	names := make([]string, 0, len(spec.Components.Schemas))
	for name := range spec.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	result := &Result{bases: make(map[string][]schema.DeriveOption)}
	var models []*metadata.Model
	for _, name := range names {
		ref := spec.Components.Schemas[name]
		if ref == nil || ref.Value == nil || !isModelSchema(ref.Value) {
			continue
		}
		if flag(ref.Value.Extensions, ExtSkip) {
			continue
		}
		fields, bases := i.fields(name, ref.Value, order[name])
		if !hasID(fields) {
			i.logger.Debug("modelform/openapi: skipping schema without identifier", "schema", name)
			continue
		}
		m, err := metadata.NewModel(name, fields...)
		if err != nil {
			return nil, fmt.Errorf("modelform/openapi: %s: %w", name, err)
		}
		models = append(models, m)
		result.bases[name] = bases
	}
	if len(models) == 0 {
		return nil, ErrNoModels
	}

	registry, err := metadata.NewRegistry(models...)
	if err != nil {
		return nil, err
	}
	if err := registry.Validate(); err != nil {
		return nil, fmt.Errorf("modelform/openapi: %s: %w", doc.Location(), err)
	}
	result.Registry = registry
	return result, nil
}

// Import is shorthand for NewImporter(options...).Import(ctx, doc).
func Import(ctx context.Context, doc Document, options ...ImportOption) (*Result, error) {
	return NewImporter(options...).Import(ctx, doc)
}

func (i *Importer) fields(model string, s *openapi3.Schema, order []string) ([]metadata.Field, []schema.DeriveOption) {
	names := orderedProperties(s.Properties, order)
	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}

	fields := make([]metadata.Field, 0, len(names))
	var bases []schema.DeriveOption
	explicitID := false
	for _, name := range names {
		prop := s.Properties[name]
		if prop == nil || prop.Value == nil {
			continue
		}
		field := convertProperty(name, prop)
		field.IsOptional = !required[name] || prop.Value.Nullable
		if field.IsID {
			explicitID = true
		}
		if base := boundedRule(field, prop.Value); base != nil {
			bases = append(bases, schema.WithBaseRule(name, base))
		}
		fields = append(fields, field)
	}

	if !explicitID {
		for idx := range fields {
			if fields[idx].Name == "id" && !fields[idx].IsDataModel && !fields[idx].IsArray {
				fields[idx].IsID = true
				break
			}
		}
	}

	linkForeignKeys(model, fields, i.logger)
	return fields, bases
}

func convertProperty(name string, ref *openapi3.SchemaRef) metadata.Field {
	s := ref.Value
	ext := mergedExtensions(ref)

	field := metadata.Field{
		Name:        name,
		IsID:        flag(ext, ExtID),
		Hidden:      flag(ext, ExtHidden),
		Label:       firstNonEmpty(str(ext, ExtLabel), s.Title),
		Placeholder: str(ext, ExtPlaceholder),
		Default:     s.Default,
		DependsOn:   strs(ext, ExtDependsOn),
		FilterRule:  str(ext, ExtFilter),

		DisplayFieldForReferencePicker: str(ext, ExtDisplay),
	}

	switch {
	case target(ref) != "" && isModelSchema(s):
		field.Type = metadata.FieldType(target(ref))
		field.IsDataModel = true
		field.ForeignKeyMapping = relationMapping(ext)
	case s.Type.Is(openapi3.TypeArray) && s.Items != nil && s.Items.Value != nil:
		field.IsArray = true
		if t := target(s.Items); t != "" && isModelSchema(s.Items.Value) {
			field.Type = metadata.FieldType(t)
			field.IsDataModel = true
		} else {
			field.Type = scalarType(s.Items.Value)
		}
	default:
		field.Type = scalarType(s)
		if field.Type == metadata.FieldTypeEnum {
			field.Enum = enumValues(s.Enum)
		}
	}
	return field
}

// linkForeignKeys marks the scalars named by relation mappings as foreign
// keys pointing back at their relation field.
func linkForeignKeys(model string, fields []metadata.Field, logger *slog.Logger) {
	index := make(map[string]int, len(fields))
	for idx, field := range fields {
		index[field.Name] = idx
	}
	for _, relation := range fields {
		if !relation.IsDataModel || relation.IsArray {
			continue
		}
		for _, local := range relation.ForeignKeyMapping {
			idx, ok := index[local]
			if !ok {
				logger.Warn("modelform/openapi: relation maps to unknown foreign key",
					"schema", model, "relation", relation.Name, "foreignKey", local)
				continue
			}
			fields[idx].IsForeignKey = true
			fields[idx].RelationField = relation.Name
		}
	}
}

func scalarType(s *openapi3.Schema) metadata.FieldType {
	if len(s.Enum) > 0 {
		return metadata.FieldTypeEnum
	}
	switch {
	case s.Type.Is(openapi3.TypeInteger):
		if s.Format == "int64" {
			return metadata.FieldTypeBigInt
		}
		return metadata.FieldTypeInt
	case s.Type.Is(openapi3.TypeNumber):
		if s.Format == "decimal" {
			return metadata.FieldTypeDecimal
		}
		return metadata.FieldTypeFloat
	case s.Type.Is(openapi3.TypeBoolean):
		return metadata.FieldTypeBoolean
	case s.Type.Is(openapi3.TypeObject):
		return metadata.FieldTypeJSON
	case s.Type.Is(openapi3.TypeString):
		switch s.Format {
		case "date-time", "date":
			return metadata.FieldTypeDateTime
		case "byte", "binary":
			return metadata.FieldTypeBytes
		}
	}
	return metadata.FieldTypeString
}

// boundedRule returns a base rule carrying the document's length or range
// bounds, or nil when the field declares none.
func boundedRule(field metadata.Field, s *openapi3.Schema) schema.Rule {
	if field.IsDataModel || field.IsArray {
		return nil
	}
	switch field.Type {
	case metadata.FieldTypeString:
		if s.MinLength == 0 && s.MaxLength == nil {
			return nil
		}
		rule := &schema.String{MinLength: int(s.MinLength)}
		if s.MaxLength != nil {
			rule.MaxLength = int(*s.MaxLength)
		}
		return rule
	case metadata.FieldTypeInt, metadata.FieldTypeBigInt, metadata.FieldTypeFloat, metadata.FieldTypeDecimal:
		if s.Min == nil && s.Max == nil {
			return nil
		}
		return &schema.Number{
			Int:    field.Type == metadata.FieldTypeInt || field.Type == metadata.FieldTypeBigInt,
			Coerce: true,
			Min:    s.Min,
			Max:    s.Max,
		}
	}
	return nil
}

func isModelSchema(s *openapi3.Schema) bool {
	if s == nil {
		return false
	}
	return s.Type.Is(openapi3.TypeObject) || (s.Type == nil && len(s.Properties) > 0)
}

func target(ref *openapi3.SchemaRef) string {
	if ref == nil || !strings.HasPrefix(ref.Ref, componentPrefix) {
		return ""
	}
	return strings.TrimPrefix(ref.Ref, componentPrefix)
}

func hasID(fields []metadata.Field) bool {
	for _, field := range fields {
		if field.IsID {
			return true
		}
	}
	return false
}

func orderedProperties(props openapi3.Schemas, order []string) []string {
	names := make([]string, 0, len(props))
	seen := make(map[string]bool, len(props))
	for _, name := range order {
		if _, ok := props[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range props {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// mergedExtensions combines the extensions next to a $ref with those of the
// resolved schema. Sibling extensions win.
func mergedExtensions(ref *openapi3.SchemaRef) map[string]any {
	out := make(map[string]any)
	if ref.Value != nil && ref.Ref == "" {
		for key, value := range ref.Value.Extensions {
			out[key] = value
		}
	}
	for key, value := range ref.Extensions {
		out[key] = value
	}
	return out
}

func relationMapping(ext map[string]any) map[string]string {
	raw, ok := ext[ExtRelation].(map[string]any)
	if !ok {
		return nil
	}
	local, _ := raw["foreignKey"].(string)
	references, _ := raw["references"].(string)
	if local == "" || references == "" {
		return nil
	}
	return map[string]string{references: local}
}

func enumValues(values []any) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value == nil {
			continue
		}
		out = append(out, fmt.Sprint(value))
	}
	return out
}

func flag(ext map[string]any, key string) bool {
	b, _ := ext[key].(bool)
	return b
}

func str(ext map[string]any, key string) string {
	s, _ := ext[key].(string)
	return strings.TrimSpace(s)
}

func strs(ext map[string]any, key string) []string {
	switch v := ext[key].(type) {
	case string:
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return []string{trimmed}
		}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
