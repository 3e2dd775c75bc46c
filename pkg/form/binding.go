package form

import (
	"strings"

	"github.com/goliatone/go-modelform/pkg/metadata"
)

// ChangeHandler receives the new value of an input.
type ChangeHandler func(value any)

// Binding is everything an input element needs to render one generated
// field. OnChange commits the value to the form state. Cascade, when set,
// resets the field's direct dependents; the merge engine composes both after
// any caller handler. Sessions leave Cascade nil and apply the resets inside
// OnChange so the change and its resets land together.
type Binding struct {
	Name        string
	Kind        Kind
	Element     string
	Label       string
	Placeholder string
	Required    bool
	Disabled    bool
	Loading     bool
	Dirty       bool
	Autofocus   bool
	Value       any
	Options     []Option
	ClassName   string

	OnChange ChangeHandler
	Cascade  ChangeHandler
}

// Prop keys produced by Binding.Props.
const (
	PropName        = "name"
	PropValue       = "value"
	PropLabel       = "label"
	PropPlaceholder = "placeholder"
	PropRequired    = "required"
	PropDisabled    = "disabled"
	PropData        = "data"
	PropClassName   = "className"
	PropOnChange    = "onChange"
	PropAutofocus   = "data-autofocus"
	PropPath        = "data-path"
	PropType        = "type"
	PropLoading     = "aria-busy"
)

// DirtyClass is appended to the class name of dirty update-form inputs.
const DirtyClass = "dirty"

// Props flattens the binding into element props. Handlers are left to the
// merge engine.
func (b Binding) Props() map[string]any {
	props := map[string]any{
		PropName:        b.Name,
		PropValue:       b.Value,
		PropLabel:       b.Label,
		PropPlaceholder: b.Placeholder,
		PropRequired:    b.Required,
		PropDisabled:    b.Disabled,
		PropAutofocus:   b.Autofocus,
		PropPath:        b.Name,
		PropClassName:   b.ClassName,
	}
	if b.Options != nil {
		props[PropData] = b.Options
	}
	if b.Loading {
		props[PropLoading] = true
	}
	if b.Kind == KindOf(metadata.FieldTypeBoolean) {
		props[PropType] = "checkbox"
	}
	return props
}

// BindContext is the render-time input of Bind.
type BindContext struct {
	Mode           Mode
	Values         Values
	Dirty          map[string]bool
	LoadingInitial bool
	// Related returns the live find-many result for a related model.
	Related func(model string) QueryResult
	// Index is the field position in the model; index 0 takes autofocus.
	Index int
	// ClassName is a caller class name to merge into the binding.
	ClassName string
}

// Bind builds the binding for a classified field against the live values.
func (c *Classifier) Bind(desc Descriptor, ctx BindContext) Binding {
	field := desc.Field
	value := ctx.Values[field.Name]
	dirty := ctx.Mode == ModeUpdate && ctx.Dirty[field.Name]

	b := Binding{
		Name:        field.Name,
		Kind:        desc.Kind,
		Label:       desc.Label,
		Placeholder: field.Placeholder,
		Required:    desc.Required,
		Disabled:    Disabled(field, ctx.Values),
		Dirty:       dirty,
		Autofocus:   ctx.Index == 0,
		Value:       value,
		ClassName:   JoinClass(ctx.ClassName, dirtyClass(dirty)),
	}
	if ctx.LoadingInitial {
		b.Placeholder = LoadingPlaceholder
	}
	if desc.Kind == KindOf(metadata.FieldTypeBoolean) {
		b.Required = false
	}

	switch desc.Kind {
	case KindEnum:
		b.Options = EnumOptions(desc.EnumValues, c.EnumLabel, ctx.Values, desc.filter)
	case KindReferenceSingle:
		if desc.Relation == nil {
			break
		}
		var result QueryResult
		if ctx.Related != nil {
			result = ctx.Related(desc.Relation.Target.Name())
		}
		options, loading := ResolveOptions(*desc.Relation, result, ctx.Values, desc.filter)
		b.Options = options
		if loading {
			b.Loading = true
			b.Disabled = true
		}
	}
	return b
}

// JoinClass concatenates non-empty class names with single spaces.
func JoinClass(classes ...string) string {
	parts := make([]string, 0, len(classes))
	for _, class := range classes {
		if trimmed := strings.TrimSpace(class); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}

func dirtyClass(dirty bool) string {
	if dirty {
		return DirtyClass
	}
	return ""
}
