package form_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-modelform/pkg/form"
)

func TestState_DirtyTracksDivergenceFromBaseline(t *testing.T) {
	t.Parallel()

	state := form.NewState(form.Values{"name": "Drill", "qty": int64(3)})
	if state.AnyDirty() {
		t.Fatalf("fresh state must be clean")
	}

	state.Set("name", "Hammer")
	if !state.IsDirty("name") {
		t.Fatalf("expected name to be dirty")
	}

	state.Set("name", "Drill")
	if state.IsDirty("name") {
		t.Fatalf("writing the baseline value back must clear the flag")
	}

	state.Set("qty", 3.0)
	if state.IsDirty("qty") {
		t.Fatalf("numerically equal values must not be dirty")
	}

	state.Set("unset", nil)
	if state.IsDirty("unset") {
		t.Fatalf("nil over an absent key must not be dirty")
	}

	state.Set("color", "red")
	if diff := cmp.Diff([]string{"color"}, state.DirtyFields()); diff != "" {
		t.Fatalf("dirty fields mismatch (-want +got):\n%s", diff)
	}
}

func TestState_RevertAndResetDirty(t *testing.T) {
	t.Parallel()

	state := form.NewState(form.Values{"name": "Drill"})
	state.Set("name", "Hammer")
	state.Revert()

	if got, _ := state.Get("name"); got != "Drill" {
		t.Fatalf("revert: got %v want Drill", got)
	}
	if state.AnyDirty() {
		t.Fatalf("revert must clear the dirty set")
	}

	state.Set("name", "Saw")
	state.ResetDirty()
	if state.AnyDirty() {
		t.Fatalf("ResetDirty must clear the dirty set")
	}
	if diff := cmp.Diff(form.Values{"name": "Saw"}, state.Baseline()); diff != "" {
		t.Fatalf("baseline mismatch (-want +got):\n%s", diff)
	}
}

func TestState_SetInitialValuesCopiesInput(t *testing.T) {
	t.Parallel()

	initial := form.Values{"name": "Drill"}
	state := form.NewState(nil)
	state.SetInitialValues(initial)
	initial["name"] = "mutated"

	if got, _ := state.Get("name"); got != "Drill" {
		t.Fatalf("state aliased its input: %v", got)
	}
	values := state.Values()
	values["name"] = "mutated"
	if got, _ := state.Get("name"); got != "Drill" {
		t.Fatalf("Values() returned an alias: %v", got)
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b any
		want bool
	}{
		{a: nil, b: nil, want: true},
		{a: nil, b: "", want: false},
		{a: 7, b: int64(7), want: true},
		{a: 7, b: "7", want: false},
		{a: "x", b: "x", want: true},
		{a: map[string]any{"a": 1}, b: map[string]any{"a": 1}, want: true},
	}
	for _, tc := range cases {
		if got := form.Equal(tc.a, tc.b); got != tc.want {
			t.Fatalf("Equal(%#v, %#v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
