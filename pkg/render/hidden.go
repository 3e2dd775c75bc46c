package render

import (
	"fmt"
	"sort"
	"strings"
)

// SessionFieldName is the hidden input carrying the session identifier.
const SessionFieldName = "_session"

// HiddenField is a hidden input emitted alongside the generated fields.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{Name: strings.TrimSpace(name), Value: fmt.Sprint(value)}
}

// CSRFToken carries a CSRF token under the caller's input name.
func CSRFToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// SessionField carries the server-side session identifier.
func SessionField(id string) HiddenField {
	return Hidden(SessionFieldName, id)
}

// HiddenFields deduplicates fields by name and sorts them. Empty names are
// dropped and later fields win on collisions.
func HiddenFields(fields ...HiddenField) []HiddenField {
	byName := make(map[string]string, len(fields))
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		byName[name] = field.Value
	}
	if len(byName) == 0 {
		return nil
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]HiddenField, 0, len(names))
	for _, name := range names {
		out = append(out, HiddenField{Name: name, Value: byName[name]})
	}
	return out
}
