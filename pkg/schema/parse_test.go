package schema

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSafeParse_ObjectStripsUnknownAndOmitsAbsent(t *testing.T) {
	t.Parallel()

	rule := NewObject(
		Field("name", Str()),
		Field("qty", Integer()),
		Field("note", Opt(Str())),
	)

	res := SafeParse(rule, map[string]any{"name": "Drill", "qty": 3, "extra": true})
	if !res.Success {
		t.Fatalf("unexpected failure: %v", res.Error)
	}
	want := map[string]any{"name": "Drill", "qty": int64(3)}
	if diff := cmp.Diff(want, res.Value); diff != "" {
		t.Fatalf("parsed value mismatch (-want +got):\n%s", diff)
	}
}

func TestSafeParse_CollectsIssues(t *testing.T) {
	t.Parallel()

	rule := NewObject(
		Field("name", &String{MinLength: 2}),
		Field("status", OneOf("draft", "published")),
		Field("qty", Integer()),
		Field("active", Bool()),
	)

	res := SafeParse(rule, map[string]any{"name": "x", "status": "gone", "qty": 1.5})
	if res.Success {
		t.Fatalf("expected failure")
	}
	got := map[string]string{}
	for _, issue := range res.Error.Issues {
		got[issue.Path] = issue.Code
	}
	want := map[string]string{
		"name":   CodeTooSmall,
		"status": CodeInvalidEnum,
		"qty":    CodeInvalidType,
		"active": CodeRequired,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("issue codes mismatch (-want +got):\n%s", diff)
	}

	msgs := res.Error.FieldErrors()["status"]
	if len(msgs) != 1 || msgs[0] != "Invalid enum value. Expected 'draft' | 'published', received 'gone'" {
		t.Fatalf("unexpected enum message %v", msgs)
	}
	if !strings.HasPrefix(res.Error.Error(), "schema: ") {
		t.Fatalf("unexpected error text %q", res.Error.Error())
	}
}

func TestSafeParse_NumberRejectsNonFinite(t *testing.T) {
	t.Parallel()

	rule := NewObject(Field("price", &Number{Coerce: true}))
	for _, input := range []any{"NaN", "Inf", "+Infinity", "-inf", "1e400", math.Inf(1), math.NaN(), float32(math.Inf(-1))} {
		res := SafeParse(rule, map[string]any{"price": input})
		if res.Success {
			t.Fatalf("%v: expected failure, got %v", input, res.Value)
		}
		if got := res.Error.Issues[0].Code; got != CodeInvalidType {
			t.Fatalf("%v: expected %s, got %s", input, CodeInvalidType, got)
		}
	}

	res := SafeParse(rule, map[string]any{"price": " 2.5 "})
	if !res.Success {
		t.Fatalf("unexpected failure: %v", res.Error)
	}
	if diff := cmp.Diff(map[string]any{"price": 2.5}, res.Value); diff != "" {
		t.Fatalf("parsed value mismatch (-want +got):\n%s", diff)
	}
}

func TestSafeParse_EffectHooks(t *testing.T) {
	t.Parallel()

	upper := Transform(Str(), func(v any) (any, error) {
		return strings.ToUpper(v.(string)), nil
	})
	if got, err := Parse(upper, "ok"); err != nil || got != "OK" {
		t.Fatalf("transform: got %v err %v", got, err)
	}

	failing := Transform(Str(), func(any) (any, error) { return nil, errors.New("nope") })
	res := SafeParse(failing, "x")
	if res.Success || res.Error.Issues[0].Code != CodeCustom {
		t.Fatalf("expected custom issue, got %+v", res)
	}

	blankAsNil := Preprocess(EmptyToNil, Opt(Num()))
	if got, err := Parse(blankAsNil, ""); err != nil || got != nil {
		t.Fatalf("empty string must parse as nil: %v %v", got, err)
	}
	if got, err := Parse(&Number{Coerce: true}, " 2.5 "); err != nil || got != 2.5 {
		t.Fatalf("coerced number: %v %v", got, err)
	}
}

func TestSafeParse_NullableRequiresKey(t *testing.T) {
	t.Parallel()

	rule := NewObject(Field("parent", Null(Str())))
	if res := SafeParse(rule, map[string]any{}); res.Success {
		t.Fatalf("absent nullable key must fail")
	}
	res := SafeParse(rule, map[string]any{"parent": nil})
	if !res.Success {
		t.Fatalf("nil nullable value must pass: %v", res.Error)
	}
	if diff := cmp.Diff(map[string]any{"parent": nil}, res.Value); diff != "" {
		t.Fatalf("nullable output mismatch (-want +got):\n%s", diff)
	}
}

func TestUnwrap(t *testing.T) {
	t.Parallel()

	enum := OneOf("a")
	cases := []struct {
		name     string
		rule     Rule
		base     Rule
		optional bool
	}{
		{name: "bare", rule: enum, base: enum},
		{name: "optional", rule: Opt(enum), base: enum, optional: true},
		{name: "effect then optional", rule: Preprocess(EmptyToNil, Opt(enum)), base: enum, optional: true},
		{name: "optional then effect", rule: Opt(Transform(enum, nil)), base: enum, optional: true},
	}
	for _, tc := range cases {
		base, optional := Unwrap(tc.rule)
		if base != tc.base || optional != tc.optional {
			t.Fatalf("%s: got (%T, %v)", tc.name, base, optional)
		}
	}

	twice := Opt(Opt(enum))
	if base, _ := Unwrap(twice); base == Rule(enum) {
		t.Fatalf("only one optional layer may be unwrapped")
	}
}

func TestShapeOf(t *testing.T) {
	t.Parallel()

	obj := NewObject(Field("a", Str()))
	if got, ok := ShapeOf(Transform(Transform(obj, nil), nil)); !ok || got != obj {
		t.Fatalf("expected shape through effects")
	}
	if _, ok := ShapeOf(Str()); ok {
		t.Fatalf("string rule has no shape")
	}
}

func TestObjectExtend(t *testing.T) {
	t.Parallel()

	obj := NewObject(Field("a", Str()), Field("b", Str()))
	ext := obj.Extend(Field("a", Integer()), Field("c", Bool()))

	if diff := cmp.Diff([]string{"a", "b", "c"}, ext.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if rule, _ := ext.Lookup("a"); rule.Kind() != KindNumber {
		t.Fatalf("extend must replace rules in place")
	}
	if rule, _ := obj.Lookup("a"); rule.Kind() != KindString {
		t.Fatalf("extend must not mutate the receiver")
	}
}
