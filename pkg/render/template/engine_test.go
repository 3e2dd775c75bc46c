package template_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-modelform/pkg/render/template"
)

func TestEngine_RenderTemplate(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"greeting.tpl": {Data: []byte(`{{ site }}: hello {{ name|shout }}`)},
	}
	engine, err := template.New(
		template.WithFS(files),
		template.WithGlobalData(map[string]any{"site": "shop"}),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		s, _ := input.(string)
		return strings.ToUpper(s), nil
	}); err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) { return input, nil }); err == nil {
		t.Fatalf("expected duplicate filter error")
	}

	var out bytes.Buffer
	got, err := engine.RenderTemplate("greeting", map[string]any{"name": "ada"}, &out)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "shop: hello ADA" || out.String() != got {
		t.Fatalf("unexpected output %q (writer %q)", got, out.String())
	}

	if _, err := engine.RenderTemplate("missing", nil); err == nil {
		t.Fatalf("expected missing template error")
	}
}

func TestEngine_RenderStringEscapes(t *testing.T) {
	t.Parallel()

	engine, err := template.New(template.WithFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	got, err := engine.RenderString(`<p>{{ text }}</p>`, map[string]any{"text": "<b>x</b>"})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if got != "<p>&lt;b&gt;x&lt;/b&gt;</p>" {
		t.Fatalf("unexpected output %q", got)
	}

	if _, err := template.New(); err == nil {
		t.Fatalf("expected configuration error")
	}
}

func TestEngine_RenderTemplateFromBaseDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "label.html"), []byte(`<label>{{ label }}</label>`), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	engine, err := template.New(template.WithBaseDir(dir), template.WithExtension("html"))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	got, err := engine.RenderTemplate("label", map[string]any{"label": "Name"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<label>Name</label>" {
		t.Fatalf("unexpected output %q", got)
	}
}
