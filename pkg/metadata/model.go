package metadata

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrModelNotFound is returned when a registry lookup misses.
	ErrModelNotFound = errors.New("modelform/metadata: model not found")
	// ErrFieldNotFound is returned when a model lookup misses.
	ErrFieldNotFound = errors.New("modelform/metadata: field not found")
	// ErrIDField signals a model without exactly one identifier field.
	ErrIDField = errors.New("modelform/metadata: model must declare exactly one id field")
	// ErrRelation signals a foreign key whose relation link cannot be resolved.
	ErrRelation = errors.New("modelform/metadata: unresolved relation")
)

// Model is the ordered field set of one data model. Models are immutable once
// registered; accessors return copies.
type Model struct {
	name   string
	fields []Field
	index  map[string]int
}

// NewModel builds a model from its fields, preserving declaration order.
func NewModel(name string, fields ...Field) (*Model, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, errors.New("modelform/metadata: model name is required")
	}
	m := &Model{
		name:   trimmed,
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, field := range fields {
		fieldName := strings.TrimSpace(field.Name)
		if fieldName == "" {
			return nil, fmt.Errorf("modelform/metadata: model %q has a field without a name", trimmed)
		}
		if _, exists := m.index[fieldName]; exists {
			return nil, fmt.Errorf("modelform/metadata: model %q defines duplicate field %q", trimmed, fieldName)
		}
		field.Name = fieldName
		m.index[fieldName] = len(m.fields)
		m.fields = append(m.fields, cloneField(field))
	}
	return m, nil
}

// MustNewModel panics on construction failure. Useful for fixtures.
func MustNewModel(name string, fields ...Field) *Model {
	m, err := NewModel(name, fields...)
	if err != nil {
		panic(err)
	}
	return m
}

// Name returns the model name.
func (m *Model) Name() string {
	if m == nil {
		return ""
	}
	return m.name
}

// Fields returns the fields in declaration order.
func (m *Model) Fields() []Field {
	if m == nil {
		return nil
	}
	out := make([]Field, len(m.fields))
	for i, f := range m.fields {
		out[i] = cloneField(f)
	}
	return out
}

// Field looks up a field by name.
func (m *Model) Field(name string) (Field, bool) {
	if m == nil {
		return Field{}, false
	}
	idx, ok := m.index[name]
	if !ok {
		return Field{}, false
	}
	return cloneField(m.fields[idx]), true
}

// IDField returns the single identifier field.
func (m *Model) IDField() (Field, error) {
	if m == nil {
		return Field{}, ErrIDField
	}
	var (
		found Field
		count int
	)
	for _, f := range m.fields {
		if f.IsID {
			found = f
			count++
		}
	}
	if count != 1 {
		return Field{}, fmt.Errorf("%w (model %q has %d)", ErrIDField, m.name, count)
	}
	return cloneField(found), nil
}

// Dependents returns the fields that list name in their DependsOn set.
func (m *Model) Dependents(name string) []Field {
	if m == nil {
		return nil
	}
	var out []Field
	for _, f := range m.fields {
		if f.DependsOnField(name) {
			out = append(out, cloneField(f))
		}
	}
	return out
}

// ForeignKeys returns every foreign-key scalar in declaration order.
func (m *Model) ForeignKeys() []Field {
	if m == nil {
		return nil
	}
	var out []Field
	for _, f := range m.fields {
		if f.IsForeignKey {
			out = append(out, cloneField(f))
		}
	}
	return out
}
