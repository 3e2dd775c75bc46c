package template

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/flosch/pongo2/v6"
	gotemplate "github.com/goliatone/go-template"
)

// Option configures an Engine.
type Option func(*config)

type config struct {
	baseDir    string
	templates  fs.FS
	extension  string
	globalData map[string]any
	funcs      map[string]any
}

// WithBaseDir loads templates from a directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from an fs.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the template extension appended to bare names.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithGlobalData seeds values visible to every template.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// WithTemplateFunc registers helper functions when the engine loads.
func WithTemplateFunc(funcs map[string]any) Option {
	return func(cfg *config) {
		if len(funcs) == 0 {
			return
		}
		if cfg.funcs == nil {
			cfg.funcs = make(map[string]any, len(funcs))
		}
		for name, fn := range funcs {
			cfg.funcs[strings.TrimSpace(name)] = fn
		}
	}
}

// renderer is the slice of the go-template engine this package drives.
type renderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
}

// Engine adapts a go-template renderer to TemplateRenderer.
type Engine struct {
	inner renderer
	ext   string
}

var _ TemplateRenderer = (*Engine)(nil)

// New constructs an Engine.
func New(options ...Option) (*Engine, error) {
	cfg := &config{extension: ".tpl"}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.baseDir == "" && cfg.templates == nil {
		return nil, errors.New("modelform/template: need either a base dir or an fs.FS")
	}

	engineOpts := []gotemplate.Option{gotemplate.WithExtension(cfg.extension)}
	if cfg.baseDir != "" {
		engineOpts = append(engineOpts, gotemplate.WithBaseDir(cfg.baseDir))
	}
	if cfg.templates != nil {
		engineOpts = append(engineOpts, gotemplate.WithFS(cfg.templates))
	}
	if len(cfg.globalData) > 0 {
		engineOpts = append(engineOpts, gotemplate.WithGlobalData(cfg.globalData))
	}
	if len(cfg.funcs) > 0 {
		engineOpts = append(engineOpts, gotemplate.WithTemplateFunc(cfg.funcs))
	}

	inner, err := gotemplate.NewRenderer(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("modelform/template: create engine: %w", err)
	}
	return &Engine{inner: inner, ext: cfg.extension}, nil
}

// RenderTemplate executes the named template. The extension is appended when
// missing.
func (e *Engine) RenderTemplate(name string, data map[string]any, out ...io.Writer) (string, error) {
	if e == nil || e.inner == nil {
		return "", errors.New("modelform/template: engine is nil")
	}
	path := name
	if !strings.HasSuffix(path, e.ext) {
		path += e.ext
	}
	rendered, err := e.inner.RenderTemplate(path, contextData(data), out...)
	if err != nil {
		return "", fmt.Errorf("modelform/template: execute %s: %w", path, err)
	}
	return rendered, nil
}

// RenderString parses and executes templateContent.
func (e *Engine) RenderString(templateContent string, data map[string]any, out ...io.Writer) (string, error) {
	if e == nil || e.inner == nil {
		return "", errors.New("modelform/template: engine is nil")
	}
	rendered, err := e.inner.RenderString(templateContent, contextData(data), out...)
	if err != nil {
		return "", fmt.Errorf("modelform/template: execute string: %w", err)
	}
	return rendered, nil
}

// RegisterFilter registers a filter. Filters are global to the underlying
// pongo2 set, so an existing name is an error.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	if e == nil || e.inner == nil {
		return errors.New("modelform/template: engine is nil")
	}
	if strings.TrimSpace(name) == "" || fn == nil {
		return errors.New("modelform/template: filter name and function required")
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("modelform/template: filter %q already exists", name)
	}
	return e.inner.RegisterFilter(name, fn)
}

func contextData(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	return data
}
