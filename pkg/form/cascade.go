package form

import (
	"github.com/goliatone/go-modelform/pkg/metadata"
)

// Disabled reports whether any field named in field.DependsOn is unset. It is
// evaluated against the live values on every binding build.
func Disabled(field metadata.Field, values Values) bool {
	for _, dep := range field.DependsOn {
		if !values.IsSet(dep) {
			return true
		}
	}
	return false
}

// Reset is one dependent field value forced back to its default.
type Reset struct {
	Field string
	Value any
}

// Cascade returns the resets triggered by a change to changed: every field
// that lists changed in DependsOn goes back to its static default, or nil.
// Only direct dependents are returned; a field depending on a dependent is
// left alone.
func Cascade(m *metadata.Model, changed string) []Reset {
	dependents := m.Dependents(changed)
	if len(dependents) == 0 {
		return nil
	}
	resets := make([]Reset, 0, len(dependents))
	for _, dep := range dependents {
		if dep.Name == changed {
			continue
		}
		resets = append(resets, Reset{Field: dep.Name, Value: StaticDefault(dep)})
	}
	return resets
}
