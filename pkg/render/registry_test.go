package render_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-modelform/pkg/render"
	"github.com/goliatone/go-modelform/pkg/session"
)

type namedRenderer string

func (n namedRenderer) Name() string        { return string(n) }
func (n namedRenderer) ContentType() string { return "text/plain" }
func (n namedRenderer) Render(context.Context, session.View, render.Options) ([]byte, error) {
	return []byte(n), nil
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg, err := render.NewRegistry(namedRenderer("html"), namedRenderer("text"))
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	if err := reg.Register(namedRenderer("html")); !errors.Is(err, render.ErrDuplicateRenderer) {
		t.Fatalf("expected ErrDuplicateRenderer, got %v", err)
	}
	if _, err := reg.Get("pdf"); !errors.Is(err, render.ErrRendererNotFound) {
		t.Fatalf("expected ErrRendererNotFound, got %v", err)
	}

	fallback, err := reg.Get("")
	if err != nil {
		t.Fatalf("default renderer: %v", err)
	}
	if fallback.Name() != "html" {
		t.Fatalf("default renderer = %q, want html", fallback.Name())
	}

	if diff := cmp.Diff([]string{"html", "text"}, reg.List()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}
