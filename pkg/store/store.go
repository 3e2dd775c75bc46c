package store

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-modelform/pkg/metadata"
)

var (
	// ErrNotFound is returned by updates whose where clause matches nothing.
	ErrNotFound = errors.New("modelform/store: record not found")
	// ErrConflict is returned when a write would duplicate an identifier.
	ErrConflict = errors.New("modelform/store: identifier already exists")
	// ErrUnsupportedRelation is returned for relation writes other than a
	// single connect.
	ErrUnsupportedRelation = errors.New("modelform/store: unsupported relation write")
)

// Columns turns mutation data into the column values of model m: relation
// connect objects are written back to their foreign-key scalars and keys the
// model does not declare as scalar columns are dropped.
//
//	{owner: {connect: {personId: 7}}} -> {ownerId: 7}
func Columns(m *metadata.Model, data map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(data))
	for key, value := range data {
		field, ok := m.Field(key)
		if !ok || field.IsArray {
			continue
		}
		if !field.IsDataModel {
			out[key] = value
			continue
		}
		if value == nil {
			continue
		}
		if err := connectColumns(m, field, value, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func connectColumns(m *metadata.Model, relation metadata.Field, value any, out map[string]any) error {
	write, ok := value.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: %s.%s got %T", ErrUnsupportedRelation, m.Name(), relation.Name, value)
	}
	connect, ok := write["connect"].(map[string]any)
	if !ok || len(write) != 1 {
		return fmt.Errorf("%w: %s.%s", ErrUnsupportedRelation, m.Name(), relation.Name)
	}
	for targetKey, id := range connect {
		local, ok := relation.ForeignKeyMapping[targetKey]
		if !ok {
			return fmt.Errorf("%w: %s.%s has no mapping for %q", ErrUnsupportedRelation, m.Name(), relation.Name, targetKey)
		}
		out[local] = id
	}
	return nil
}

// Normalize coerces the driver values of a fetched row to the declared field
// types: integers stored as booleans, floats holding whole identifiers and
// byte slices holding text. Unknown columns are dropped.
func Normalize(m *metadata.Model, row map[string]any) map[string]any {
	if row == nil {
		return nil
	}
	out := make(map[string]any, len(row))
	for key, value := range row {
		field, ok := m.Field(key)
		if !ok || field.IsDataModel || field.IsArray {
			continue
		}
		out[key] = coerce(field.Type, value)
	}
	return out
}

func coerce(t metadata.FieldType, value any) any {
	if raw, ok := value.([]byte); ok {
		value = string(raw)
	}
	switch t {
	case metadata.FieldTypeBoolean:
		switch v := value.(type) {
		case int64:
			return v != 0
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b
			}
		}
	case metadata.FieldTypeInt, metadata.FieldTypeBigInt:
		switch v := value.(type) {
		case int:
			return int64(v)
		case int32:
			return int64(v)
		case float64:
			if v == math.Trunc(v) {
				return int64(v)
			}
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return n
			}
		}
	case metadata.FieldTypeFloat, metadata.FieldTypeDecimal:
		switch v := value.(type) {
		case int64:
			return float64(v)
		case float32:
			return float64(v)
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f
			}
		}
	case metadata.FieldTypeDateTime:
		if v, ok := value.(time.Time); ok {
			return v.UTC().Format(time.RFC3339)
		}
	}
	return value
}

// Matches reports whether record satisfies every key of where.
func Matches(record, where map[string]any) bool {
	for key, want := range where {
		got, ok := record[key]
		if !ok || !Equal(got, want) {
			return false
		}
	}
	return true
}

// Equal compares column values, treating numbers of different Go types as
// equal when they hold the same value.
func Equal(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return reflect.DeepEqual(a, b)
	}
	return a == b
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
