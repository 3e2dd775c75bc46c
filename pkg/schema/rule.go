package schema

import (
	"strings"
)

// Kind identifies the shape of a validation rule.
type Kind string

const (
	KindObject   Kind = "object"
	KindOptional Kind = "optional"
	KindNullable Kind = "nullable"
	KindEnum     Kind = "enum"
	KindEffect   Kind = "effect"
	KindString   Kind = "string"
	KindNumber   Kind = "number"
	KindBoolean  Kind = "boolean"
	KindAny      Kind = "any"
)

// Rule is a node in a validation-rule tree. The set of rule types is closed;
// callers inspect trees with a type switch on the concrete pointers below.
type Rule interface {
	Kind() Kind
	parse(value any, present bool, path []string) (any, []Issue)
}

// Prop names one entry of an Object rule.
type Prop struct {
	Name string
	Rule Rule
}

// Object validates a map of named rules. Unknown keys are stripped and absent
// optional keys are omitted from the output.
type Object struct {
	keys  []string
	shape map[string]Rule
}

// NewObject builds an object rule; later props replace earlier ones with the
// same name while keeping the original position.
func NewObject(props ...Prop) *Object {
	obj := &Object{shape: make(map[string]Rule, len(props))}
	for _, prop := range props {
		name := strings.TrimSpace(prop.Name)
		if name == "" || prop.Rule == nil {
			continue
		}
		if _, exists := obj.shape[name]; !exists {
			obj.keys = append(obj.keys, name)
		}
		obj.shape[name] = prop.Rule
	}
	return obj
}

// Field is shorthand for constructing a Prop.
func Field(name string, rule Rule) Prop {
	return Prop{Name: name, Rule: rule}
}

func (*Object) Kind() Kind { return KindObject }

// Keys returns the declared keys in order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Lookup returns the rule registered for name.
func (o *Object) Lookup(name string) (Rule, bool) {
	if o == nil {
		return nil, false
	}
	rule, ok := o.shape[name]
	return rule, ok
}

// Extend returns a copy with the supplied props added or replaced.
func (o *Object) Extend(props ...Prop) *Object {
	merged := make([]Prop, 0, len(o.keys)+len(props))
	for _, key := range o.keys {
		merged = append(merged, Prop{Name: key, Rule: o.shape[key]})
	}
	merged = append(merged, props...)
	return NewObject(merged...)
}

// Optional accepts an absent or nil value, otherwise delegates to Inner.
type Optional struct {
	Inner Rule
}

// Opt wraps inner in an Optional rule.
func Opt(inner Rule) *Optional { return &Optional{Inner: inner} }

func (*Optional) Kind() Kind { return KindOptional }

// Nullable accepts nil but still requires the key to be present.
type Nullable struct {
	Inner Rule
}

// Null wraps inner in a Nullable rule.
func Null(inner Rule) *Nullable { return &Nullable{Inner: inner} }

func (*Nullable) Kind() Kind { return KindNullable }

// Enum accepts one of the listed string literals.
type Enum struct {
	Values []string
}

// OneOf builds an Enum rule.
func OneOf(values ...string) *Enum {
	return &Enum{Values: append([]string(nil), values...)}
}

func (*Enum) Kind() Kind { return KindEnum }

// Effect runs Pre before and Transform after the inner rule. Either hook may
// be nil.
type Effect struct {
	Inner     Rule
	Pre       func(any) any
	Transform func(any) (any, error)
}

func (*Effect) Kind() Kind { return KindEffect }

// Transform wraps inner with a post-parse transformation.
func Transform(inner Rule, fn func(any) (any, error)) *Effect {
	return &Effect{Inner: inner, Transform: fn}
}

// Preprocess wraps inner with a pre-parse step.
func Preprocess(fn func(any) any, inner Rule) *Effect {
	return &Effect{Inner: inner, Pre: fn}
}

// EmptyToNil maps empty strings to nil; use it with Preprocess so optional
// inputs left blank validate as absent.
func EmptyToNil(value any) any {
	if s, ok := value.(string); ok && s == "" {
		return nil
	}
	return value
}

// String accepts string values with optional length bounds (0 disables).
type String struct {
	MinLength int
	MaxLength int
}

// Str builds an unbounded String rule.
func Str() *String { return &String{} }

func (*String) Kind() Kind { return KindString }

// Number accepts numeric values. Coerce also accepts numeric strings.
type Number struct {
	Int    bool
	Coerce bool
	Min    *float64
	Max    *float64
}

// Num builds a float Number rule.
func Num() *Number { return &Number{} }

// Integer builds an integer Number rule.
func Integer() *Number { return &Number{Int: true} }

func (*Number) Kind() Kind { return KindNumber }

// Boolean accepts bool values.
type Boolean struct{}

// Bool builds a Boolean rule.
func Bool() *Boolean { return &Boolean{} }

func (*Boolean) Kind() Kind { return KindBoolean }

// Any accepts every present value.
type Any struct{}

func (*Any) Kind() Kind { return KindAny }
