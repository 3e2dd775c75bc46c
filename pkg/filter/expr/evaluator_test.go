package expr

import (
	"testing"
)

func TestProgramEval(t *testing.T) {
	t.Parallel()

	ctx := Context{
		Values: map[string]any{
			"category": float64(3),
			"status":   "draft",
			"owner":    map[string]any{"name": "ada"},
		},
		Candidate: map[string]any{
			"id":         int64(11),
			"categoryId": int64(3),
			"active":     true,
			"value":      "tools",
		},
	}

	cases := []struct {
		name string
		rule string
		want bool
	}{
		{name: "empty", rule: "", want: true},
		{name: "reference equality across numeric types", rule: "candidate.categoryId == values.category", want: true},
		{name: "reference inequality", rule: "candidate.id != values.category", want: true},
		{name: "bare identifier reads values", rule: `status == "draft"`, want: true},
		{name: "single quoted literal", rule: `status == 'draft'`, want: true},
		{name: "nested values lookup", rule: `values.owner.name == "ada"`, want: true},
		{name: "candidate truthy", rule: "candidate.active", want: true},
		{name: "negation", rule: "!candidate.active", want: false},
		{name: "number literal", rule: "candidate.categoryId == 3", want: true},
		{name: "missing is null", rule: "candidate.missing == null", want: true},
		{name: "composition", rule: `candidate.value == "tools" && (status == "published" || candidate.active)`, want: true},
		{name: "composition false", rule: `candidate.value == "tools" && status == "published"`, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			program, err := Compile(tc.rule)
			if err != nil {
				t.Fatalf("compile %q: %v", tc.rule, err)
			}
			got, err := program.Eval(ctx)
			if err != nil {
				t.Fatalf("eval %q: %v", tc.rule, err)
			}
			if got != tc.want {
				t.Fatalf("eval %q: got %v want %v", tc.rule, got, tc.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	for _, rule := range []string{
		"status = 1",
		"a & b",
		"a | b",
		`status == "open`,
		"(a && b",
		"a ==",
	} {
		if _, err := Compile(rule); err == nil {
			t.Fatalf("expected compile error for %q", rule)
		}
	}
}

func TestMustCompilePanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected MustCompile to panic on invalid input")
		}
	}()
	MustCompile("candidate.id > 3")
}

func TestProgramMatchFilterFunc(t *testing.T) {
	t.Parallel()

	program := MustCompile("candidate.categoryId == values.category")
	values := map[string]any{"category": int64(1)}

	if !program.Match(values, map[string]any{"categoryId": 1}) {
		t.Fatalf("expected candidate with matching category to pass")
	}
	if program.Match(values, map[string]any{"categoryId": 2}) {
		t.Fatalf("expected candidate with other category to be rejected")
	}
	if program.String() != "candidate.categoryId == values.category" {
		t.Fatalf("unexpected source %q", program.String())
	}
}

func TestNilProgramMatchesEverything(t *testing.T) {
	t.Parallel()

	var program *Program
	ok, err := program.Eval(Context{})
	if err != nil || !ok {
		t.Fatalf("expected nil program to match, got %v %v", ok, err)
	}
}
