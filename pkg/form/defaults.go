package form

import (
	"github.com/goliatone/go-modelform/pkg/metadata"
)

// Defaults synthesizes the initial value map for model m.
//
// Relation objects are skipped and a static default always wins. Create forms
// only seed booleans so generated columns such as identifiers stay unset.
// Update forms seed every scalar (false, 0 or "") because an unset value is
// treated as invalid input by bound elements.
func Defaults(m *metadata.Model, mode Mode) Values {
	values := Values{}
	for _, field := range m.Fields() {
		if field.IsDataModel {
			continue
		}
		if field.HasDefault() {
			values[field.Name] = field.Default
			continue
		}

		if mode != ModeUpdate {
			if field.Type == metadata.FieldTypeBoolean {
				values[field.Name] = false
			}
			continue
		}

		switch {
		case field.Type == metadata.FieldTypeBoolean:
			values[field.Name] = false
		case field.Type.IsNumeric():
			values[field.Name] = 0
		default:
			values[field.Name] = ""
		}
	}
	return values
}

// StaticDefault returns the declared default for field, or nil.
func StaticDefault(field metadata.Field) any {
	return field.Default
}

// MergeRecord overlays the non-nil values of a fetched record on top of
// defaults. Keys the model does not declare are ignored.
func MergeRecord(m *metadata.Model, defaults Values, record map[string]any) Values {
	out := defaults.Clone()
	for key, value := range record {
		if value == nil {
			continue
		}
		field, ok := m.Field(key)
		if !ok || field.IsDataModel || field.IsArray {
			continue
		}
		out[key] = value
	}
	return out
}
