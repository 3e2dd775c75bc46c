package form

import (
	"fmt"

	"github.com/goliatone/go-modelform/pkg/metadata"
)

// LoadingOptions is the single placeholder entry shown while related records
// are loading.
func LoadingOptions() []Option {
	return []Option{{Label: LoadingPlaceholder, Value: LoadingPlaceholder}}
}

// ResolveOptions turns the related records in result into picker options.
// Labels come from the target's display field and values from its identifier.
// When the data has not arrived a single loading entry is returned together
// with loading=true, and the picker must not be interactive.
//
// filter, when set, sees the current values (with "undefined" strings
// normalized to unset) and each candidate record; surviving candidates keep
// their source order.
func ResolveOptions(rel metadata.Relation, result QueryResult, values Values, filter metadata.FilterFunc) (options []Option, loading bool) {
	if !result.Ready() {
		return LoadingOptions(), true
	}

	display := rel.DisplayField()
	idKey := rel.TargetID.Name

	var current map[string]any
	if filter != nil {
		current = NormalizeUndefined(values)
	}

	options = make([]Option, 0, len(result.Data))
	for _, record := range result.Data {
		if filter != nil && !filter(current, record) {
			continue
		}
		options = append(options, Option{
			Label: labelString(record[display]),
			Value: record[idKey],
		})
	}
	return options, false
}

// EnumOptions builds the options of an enum picker. Each literal is passed
// through label, and filter sees {"value": literal} as its candidate.
func EnumOptions(literals []string, label func(string) string, values Values, filter metadata.FilterFunc) []Option {
	var current map[string]any
	if filter != nil {
		current = NormalizeUndefined(values)
	}
	options := make([]Option, 0, len(literals))
	for _, literal := range literals {
		if filter != nil && !filter(current, map[string]any{"value": literal}) {
			continue
		}
		text := literal
		if label != nil {
			text = label(literal)
		}
		options = append(options, Option{Label: text, Value: literal})
	}
	return options
}

// NormalizeUndefined returns a copy of values where the string "undefined"
// is replaced by an absent key.
func NormalizeUndefined(values Values) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		if s, ok := value.(string); ok && s == undefinedSentinel {
			continue
		}
		out[key] = value
	}
	return out
}

func labelString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
