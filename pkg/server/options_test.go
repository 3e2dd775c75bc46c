package server

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-modelform/pkg/form"
)

func TestSearchOptions(t *testing.T) {
	t.Parallel()

	options := []form.Option{
		{Label: "Marian", Value: 1},
		{Label: "Ada", Value: 2},
		{Label: "Mary", Value: 3},
		{Label: "Adam", Value: 4},
	}
	labels := func(in []form.Option) []string {
		out := make([]string, 0, len(in))
		for _, option := range in {
			out = append(out, option.Label)
		}
		return out
	}

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{name: "prefix matches first", query: "ma", want: []string{"Marian", "Mary"}},
		{name: "case insensitive", query: "ADA", want: []string{"Ada", "Adam"}},
		{name: "limit", query: "a", limit: 2, want: []string{"Ada", "Adam"}},
		{name: "empty query returns leading", query: " ", limit: 3, want: []string{"Marian", "Ada", "Mary"}},
		{name: "no match", query: "zz", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := labels(searchOptions(options, tt.query, tt.limit))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("options mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClampLimit(t *testing.T) {
	t.Parallel()

	for in, want := range map[int]int{0: DefaultOptionLimit, -3: DefaultOptionLimit, 5: 5, 1000: MaxOptionLimit} {
		if got := clampLimit(in); got != want {
			t.Fatalf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
	if got := parseLimit("x"); got != 0 {
		t.Fatalf("expected 0 for invalid limit, got %d", got)
	}
}
