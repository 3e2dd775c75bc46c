package html

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-modelform/pkg/form"
	"github.com/goliatone/go-modelform/pkg/render"
	rendertemplate "github.com/goliatone/go-modelform/pkg/render/template"
	"github.com/goliatone/go-modelform/pkg/session"
	"github.com/goliatone/go-modelform/pkg/tree"
)

// Template names resolved through the template renderer.
const (
	TemplateForm    = "form"
	TemplateField   = "field"
	TemplateElement = "element"
)

// ErrNoTemplates is returned by Check when a template bundle lacks a template.
var ErrNoTemplates = errors.New("modelform/html: template bundle incomplete")

var (
	validTag  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-]*$`)
	validAttr = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_.:-]*$`)
)

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateFS fs.FS
	templates  rendertemplate.TemplateRenderer
	policy     *bluemonday.Policy
	logger     *slog.Logger
}

// WithTemplatesFS supplies an alternate template bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templates = renderer
		}
	}
}

// WithPolicy sets the sanitizer applied to layout text nodes. The default
// allows user-generated-content markup.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.policy = policy
		}
	}
}

// WithLogger routes render diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Renderer draws a session view as an HTML form. Generated inputs go through
// the field template; every other element of a layout goes through the
// generic element template.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	policy    *bluemonday.Policy
	logger    *slog.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS: TemplatesFS(),
		policy:     bluemonday.UGCPolicy(),
		logger:     slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	templates := cfg.templates
	if templates == nil {
		engine, err := rendertemplate.New(
			rendertemplate.WithFS(cfg.templateFS),
			rendertemplate.WithExtension(".tpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("modelform/html: configure templates: %w", err)
		}
		templates = engine
	}
	return &Renderer{templates: templates, policy: cfg.policy, logger: cfg.logger}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render draws view. Layout nodes precede the generated fields they did not
// claim.
func (r *Renderer) Render(ctx context.Context, view session.View, options render.Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	layout, err := r.nodes(view.Layout, options)
	if err != nil {
		return nil, err
	}
	fields, err := r.nodes(view.Fields, options)
	if err != nil {
		return nil, err
	}

	out, err := r.templates.RenderTemplate(TemplateForm, map[string]any{
		"className": view.ClassName,
		"model":     view.Model,
		"mode":      string(view.Mode),
		"state":     string(view.State),
		"action":    options.Action,
		"method":    options.FormMethod(),
		"hidden":    render.HiddenFields(options.Hidden...),
		"errors":    view.Errors,
		"layout":    layout,
		"fields":    fields,
		"submit": map[string]any{
			"element":  view.Submit.Element,
			"label":    submitLabel(view.Submit),
			"disabled": view.Submit.Disabled || view.Submit.Loading,
			"loading":  view.Submit.Loading,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("modelform/html: render form: %w", err)
	}
	return []byte(out), nil
}

func (r *Renderer) nodes(nodes []tree.Node, options render.Options) ([]string, error) {
	out := make([]string, 0, len(nodes))
	for _, node := range nodes {
		markup, err := r.node(node, options)
		if err != nil {
			return nil, err
		}
		if markup != "" {
			out = append(out, markup)
		}
	}
	return out, nil
}

func (r *Renderer) node(node tree.Node, options render.Options) (string, error) {
	switch n := node.(type) {
	case nil:
		return "", nil
	case tree.Text:
		return r.policy.Sanitize(string(n)), nil
	case *tree.Element:
		if n == nil {
			return "", nil
		}
		if isInput(n) {
			return r.field(n, options)
		}
		return r.element(n, options)
	case *tree.Func:
		// Funcs the merge walk could not expand are not drawn.
		r.logger.Warn("modelform/html: skipping unexpanded render function", "name", n.Name)
		return "", nil
	default:
		return "", fmt.Errorf("modelform/html: unexpected node %T after merge", node)
	}
}

func (r *Renderer) field(el *tree.Element, options render.Options) (string, error) {
	name := el.StringProp(form.PropName)
	value := el.Prop(form.PropValue)
	kind := inputType(el.Tag)
	if el.StringProp(form.PropType) == "checkbox" {
		kind = "checkbox"
	}

	rawOptions, isSelect := el.Prop(form.PropData).([]form.Option)
	current := stringValue(value)
	opts := make([]map[string]any, 0, len(rawOptions))
	for _, opt := range rawOptions {
		v := stringValue(opt.Value)
		opts = append(opts, map[string]any{
			"label":    opt.Label,
			"value":    v,
			"selected": current != "" && v == current,
		})
	}

	if kind == "datetime-local" {
		current = localDateTime(current)
	}
	checked, _ := value.(bool)

	out, err := r.templates.RenderTemplate(TemplateField, map[string]any{
		"tag":         el.Tag,
		"id":          "field-" + name,
		"name":        name,
		"label":       el.StringProp(form.PropLabel),
		"placeholder": el.StringProp(form.PropPlaceholder),
		"className":   el.StringProp(form.PropClassName),
		"inputType":   kind,
		"value":       current,
		"checked":     checked,
		"required":    boolProp(el, form.PropRequired),
		"disabled":    boolProp(el, form.PropDisabled),
		"autofocus":   boolProp(el, form.PropAutofocus),
		"loading":     boolProp(el, form.PropLoading),
		"isSelect":    isSelect,
		"options":     opts,
		"errors":      options.Errors[name],
	})
	if err != nil {
		return "", fmt.Errorf("modelform/html: render field %s: %w", name, err)
	}
	return strings.TrimSpace(out), nil
}

func (r *Renderer) element(el *tree.Element, options render.Options) (string, error) {
	if !validTag.MatchString(el.Tag) {
		return "", fmt.Errorf("modelform/html: invalid element tag %q", el.Tag)
	}
	children, err := r.nodes(el.Children, options)
	if err != nil {
		return "", err
	}
	out, err := r.templates.RenderTemplate(TemplateElement, map[string]any{
		"tag":      el.Tag,
		"attrs":    r.attributes(el),
		"children": strings.Join(children, ""),
	})
	if err != nil {
		return "", fmt.Errorf("modelform/html: render element %s: %w", el.Tag, err)
	}
	return strings.TrimSpace(out), nil
}

// attributes flattens scalar props into sorted attributes. Handlers, event
// attributes, nested values and false flags are dropped.
func (r *Renderer) attributes(el *tree.Element) []map[string]any {
	names := make([]string, 0, len(el.Props))
	for name := range el.Props {
		names = append(names, name)
	}
	sort.Strings(names)

	attrs := make([]map[string]any, 0, len(names))
	for _, name := range names {
		attr := name
		if name == form.PropClassName {
			attr = "class"
		}
		if name == form.PropOnChange || strings.HasPrefix(strings.ToLower(attr), "on") || !validAttr.MatchString(attr) {
			continue
		}
		switch v := el.Props[name].(type) {
		case bool:
			if v {
				attrs = append(attrs, map[string]any{"name": attr, "flag": true})
			}
		case string:
			if v != "" {
				attrs = append(attrs, map[string]any{"name": attr, "value": v})
			}
		case int, int64, float64, float32, int32:
			attrs = append(attrs, map[string]any{"name": attr, "value": stringValue(v)})
		default:
			r.logger.Debug("modelform/html: dropping non-scalar attribute", "tag", el.Tag, "attr", name)
		}
	}
	return attrs
}

func isInput(el *tree.Element) bool {
	_, ok := el.Props[form.PropPath]
	return ok && el.StringProp(form.PropName) != ""
}

func boolProp(el *tree.Element, name string) bool {
	b, _ := el.Prop(name).(bool)
	return b
}

func submitLabel(control session.SubmitControl) string {
	switch {
	case control.Loading:
		return "Saving..."
	case control.Mode == form.ModeUpdate:
		return "Save " + control.Model
	default:
		return "Create " + control.Model
	}
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// localDateTime converts RFC 3339 values to the datetime-local input format.
func localDateTime(value string) string {
	if value == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return t.Format("2006-01-02T15:04")
}

// Check renders an empty view through every template, reporting bundles that
// lack one of form, field or element.
func (r *Renderer) Check(ctx context.Context) error {
	view := session.View{
		Fields: []tree.Node{
			tree.El("span", nil, tree.Text("check")),
			tree.El(ElementText, map[string]any{form.PropName: "check", form.PropPath: "check"}),
		},
	}
	if _, err := r.Render(ctx, view, render.Options{}); err != nil {
		return fmt.Errorf("%w: %v", ErrNoTemplates, err)
	}
	return nil
}
