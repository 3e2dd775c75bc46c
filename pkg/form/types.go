package form

import (
	"sort"

	"github.com/goliatone/go-modelform/pkg/metadata"
)

// Mode selects between the create and update variants of a form.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

// Kind is the UI field kind a binding renders as. Scalar kinds reuse the
// declared metadata type; enum and reference pickers have their own kinds.
type Kind string

const (
	KindEnum            Kind = "Enum"
	KindReferenceSingle Kind = "ReferenceSingle"
)

// KindOf returns the kind for a declared scalar type.
func KindOf(t metadata.FieldType) Kind {
	return Kind(t)
}

// LoadingPlaceholder is shown while related records or the initial record are
// still loading.
const LoadingPlaceholder = "Loading..."

// undefinedSentinel is the stringified "unset" some inputs report back.
const undefinedSentinel = "undefined"

// Values is the form value map. An absent key means the field is unset.
type Values map[string]any

// Clone returns a shallow copy.
func (v Values) Clone() Values {
	if v == nil {
		return Values{}
	}
	out := make(Values, len(v))
	for key, value := range v {
		out[key] = value
	}
	return out
}

// IsSet reports whether name holds a non-nil value.
func (v Values) IsSet(name string) bool {
	value, ok := v[name]
	return ok && value != nil
}

// Keys returns the field names sorted alphabetically.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for key := range v {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Option is one entry of an enum or reference picker.
type Option struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// QueryResult is the live result of a find-many query.
type QueryResult struct {
	Data    []map[string]any
	Loading bool
}

// Ready reports whether data has arrived. A background refetch keeps the
// previous data usable.
func (r QueryResult) Ready() bool {
	return r.Data != nil
}

// RecordResult is the live result of a find-unique query.
type RecordResult struct {
	Data    map[string]any
	Loading bool
}
