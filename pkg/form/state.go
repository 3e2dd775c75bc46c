package form

import (
	"reflect"
	"sort"
)

// State tracks the current values of a form against the last committed
// baseline. A field is dirty while its current value differs from the
// baseline; writing the baseline value back clears the flag.
//
// State is not safe for concurrent use; sessions guard it.
type State struct {
	baseline Values
	values   Values
	dirty    map[string]bool
}

// NewState seeds baseline and current values with initial.
func NewState(initial Values) *State {
	s := &State{}
	s.SetInitialValues(initial)
	return s
}

// SetInitialValues replaces both baseline and current values and clears the
// dirty set.
func (s *State) SetInitialValues(initial Values) {
	s.baseline = initial.Clone()
	s.values = initial.Clone()
	s.dirty = make(map[string]bool)
}

// ResetDirty commits the current values as the new baseline.
func (s *State) ResetDirty() {
	s.baseline = s.values.Clone()
	s.dirty = make(map[string]bool)
}

// Revert restores the baseline.
func (s *State) Revert() {
	s.values = s.baseline.Clone()
	s.dirty = make(map[string]bool)
}

// Set writes value for name and updates its dirty flag.
func (s *State) Set(name string, value any) {
	s.values[name] = value
	base, had := s.baseline[name]
	if had && Equal(base, value) {
		delete(s.dirty, name)
		return
	}
	if !had && value == nil {
		delete(s.dirty, name)
		return
	}
	s.dirty[name] = true
}

// Get returns the current value for name.
func (s *State) Get(name string) (any, bool) {
	value, ok := s.values[name]
	return value, ok
}

// Values returns a copy of the current values.
func (s *State) Values() Values {
	return s.values.Clone()
}

// Baseline returns a copy of the committed values.
func (s *State) Baseline() Values {
	return s.baseline.Clone()
}

// IsDirty reports whether name differs from the baseline.
func (s *State) IsDirty(name string) bool {
	return s.dirty[name]
}

// AnyDirty reports whether any field differs from the baseline.
func (s *State) AnyDirty() bool {
	return len(s.dirty) > 0
}

// Dirty returns a copy of the dirty set.
func (s *State) Dirty() map[string]bool {
	out := make(map[string]bool, len(s.dirty))
	for key, value := range s.dirty {
		out[key] = value
	}
	return out
}

// DirtyFields returns the dirty field names sorted alphabetically.
func (s *State) DirtyFields() []string {
	names := make([]string, 0, len(s.dirty))
	for name := range s.dirty {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal compares form values. Numbers compare by value regardless of their Go
// type so 7, int64(7) and 7.0 are the same value.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := number(a); ok {
		if bf, ok := number(b); ok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func number(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
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
