package metadata

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Registry holds the process-wide model metadata. It is safe for concurrent
// readers once construction has finished.
type Registry struct {
	models map[string]*Model
}

// NewRegistry registers the supplied models and validates the result.
func NewRegistry(models ...*Model) (*Registry, error) {
	r := &Registry{models: make(map[string]*Model, len(models))}
	for _, m := range models {
		if err := r.register(m); err != nil {
			return nil, err
		}
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustNewRegistry panics when the models do not form a valid registry.
func MustNewRegistry(models ...*Model) *Registry {
	r, err := NewRegistry(models...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) register(m *Model) error {
	if m == nil {
		return errors.New("modelform/metadata: model is nil")
	}
	if _, exists := r.models[m.name]; exists {
		return fmt.Errorf("modelform/metadata: duplicate model %q", m.name)
	}
	r.models[m.name] = m
	return nil
}

// Model returns the named model. Lookups fall back to a case-insensitive
// match so "houseRoom" and "HouseRoom" resolve to the same model.
func (r *Registry) Model(name string) (*Model, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}
	if m, ok := r.models[name]; ok {
		return m, nil
	}
	for key, m := range r.models {
		if strings.EqualFold(key, name) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrModelNotFound, name)
}

// Models returns the registered model names sorted alphabetically.
func (r *Registry) Models() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Relation describes the resolved link behind a foreign-key scalar.
type Relation struct {
	// ForeignKey is the scalar field holding the related identifier.
	ForeignKey Field
	// Field is the data-model field describing the relation object.
	Field Field
	// Target is the related model.
	Target *Model
	// TargetID is the related model's identifier field.
	TargetID Field
	// ConnectKey is the identifier key used inside connect objects.
	ConnectKey string
}

// DisplayField returns the attribute shown as the related record's label.
func (rel Relation) DisplayField() string {
	if display := strings.TrimSpace(rel.TargetID.DisplayFieldForReferencePicker); display != "" {
		return display
	}
	return rel.TargetID.Name
}

// Relation resolves the relation behind the foreign-key field fk on model m.
func (r *Registry) Relation(m *Model, fk Field) (Relation, error) {
	if !fk.IsForeignKey {
		return Relation{}, fmt.Errorf("%w: field %q is not a foreign key", ErrRelation, fk.Name)
	}
	relField, ok := m.Field(fk.RelationField)
	if !ok {
		return Relation{}, fmt.Errorf("%w: %s.%s relation field %q not found", ErrRelation, m.Name(), fk.Name, fk.RelationField)
	}
	if !relField.IsDataModel {
		return Relation{}, fmt.Errorf("%w: %s.%s is not a data-model field", ErrRelation, m.Name(), relField.Name)
	}
	key, ok := relField.RelationIDKey(fk.Name)
	if !ok {
		return Relation{}, fmt.Errorf("%w: %s.%s has no foreign key mapping", ErrRelation, m.Name(), relField.Name)
	}
	target, err := r.Model(relField.Target())
	if err != nil {
		return Relation{}, fmt.Errorf("%w: %s.%s target: %w", ErrRelation, m.Name(), relField.Name, err)
	}
	targetID, err := target.IDField()
	if err != nil {
		return Relation{}, fmt.Errorf("%w: %s.%s target: %w", ErrRelation, m.Name(), relField.Name, err)
	}
	return Relation{
		ForeignKey: fk,
		Field:      relField,
		Target:     target,
		TargetID:   targetID,
		ConnectKey: key,
	}, nil
}

// Validate checks the registry invariants: one id field per model, every
// foreign key resolves to a relation field with a mapping, and dependsOn
// entries name existing fields. All violations are reported together.
func (r *Registry) Validate() error {
	if r == nil {
		return errors.New("modelform/metadata: registry is nil")
	}
	var errs []error
	for _, name := range r.Models() {
		m := r.models[name]
		if _, err := m.IDField(); err != nil {
			errs = append(errs, err)
		}
		for _, f := range m.fields {
			if f.IsForeignKey {
				if _, err := r.Relation(m, f); err != nil {
					errs = append(errs, err)
				}
			}
			for _, dep := range f.DependsOn {
				if _, ok := m.index[dep]; !ok {
					errs = append(errs, fmt.Errorf("%w: %s.%s depends on unknown field %q", ErrFieldNotFound, m.name, f.Name, dep))
				}
			}
		}
	}
	return errors.Join(errs...)
}
