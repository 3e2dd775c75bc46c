package form

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaEntry is returned when the active schema has no rule for a field.
	ErrSchemaEntry = errors.New("modelform/form: field missing from schema")
	// ErrElementMapping is returned when the host maps no element to a kind.
	ErrElementMapping = errors.New("modelform/form: no element mapping")
	// ErrInvalidFilter wraps declarative filter expressions that fail to compile.
	ErrInvalidFilter = errors.New("modelform/form: invalid filter")
)

// ConfigError reports a developer mistake tied to a single field. The form
// keeps rendering the remaining fields.
type ConfigError struct {
	Model string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("modelform/form: %s.%s: %v", e.Model, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func configError(model, field string, err error) *ConfigError {
	return &ConfigError{Model: model, Field: field, Err: err}
}
