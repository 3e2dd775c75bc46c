package tree

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-modelform/pkg/form"
)

// DefaultMaxDepth bounds how deep the merge walk descends, counting expanded
// Func nodes.
const DefaultMaxDepth = 64

var (
	// ErrCustomFieldChildren is returned when a CustomField does not wrap
	// exactly one element. It is a configuration error and aborts the merge.
	ErrCustomFieldChildren = errors.New("modelform/tree: custom field must have exactly one child element")
	// ErrUnknownField is returned by a BindFunc for names the model does not
	// declare. The placeholder is left in place.
	ErrUnknownField = errors.New("modelform/tree: unknown field")
	// ErrSkipField is returned by a BindFunc for fields that never render,
	// such as hidden ones. The placeholder is dropped.
	ErrSkipField = errors.New("modelform/tree: field not rendered")
)

// BindFunc returns the generated binding for a field. Errors other than
// ErrUnknownField are rendered as an error element in place of the field.
type BindFunc func(field string) (form.Binding, error)

// Option customises a Merger.
type Option func(*Merger)

// WithLogger routes merge diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Merger) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(m *Merger) {
		if depth > 0 {
			m.maxDepth = depth
		}
	}
}

// Merger substitutes placeholders in caller trees with generated bindings.
// Each Func node is rendered at most once per Merger; a Merger is not safe for
// concurrent use.
type Merger struct {
	bind     BindFunc
	logger   *slog.Logger
	maxDepth int
	expanded map[*Func]expansion
}

type expansion struct {
	node Node
	ok   bool
}

// NewMerger constructs a Merger around bind.
func NewMerger(bind BindFunc, options ...Option) *Merger {
	m := &Merger{
		bind:     bind,
		logger:   slog.Default(),
		maxDepth: DefaultMaxDepth,
		expanded: make(map[*Func]expansion),
	}
	for _, opt := range options {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Merge returns a copy of root with every Slot and CustomField replaced by the
// generated input. Everything else is copied unchanged; the input tree is not
// modified.
func (m *Merger) Merge(root Node) (Node, error) {
	return m.merge(root, 0)
}

// MergeAll merges a list of sibling nodes.
func (m *Merger) MergeAll(nodes []Node) ([]Node, error) {
	out := make([]Node, 0, len(nodes))
	for _, node := range nodes {
		merged, err := m.merge(node, 0)
		if err != nil {
			return nil, err
		}
		if merged != nil {
			out = append(out, merged)
		}
	}
	return out, nil
}

func (m *Merger) merge(node Node, depth int) (Node, error) {
	if node == nil {
		return nil, nil
	}
	if depth > m.maxDepth {
		m.logger.Warn("modelform/tree: maximum depth reached, leaving subtree unchanged", "depth", depth)
		return node, nil
	}

	switch typed := node.(type) {
	case *Slot:
		return m.mergeSlot(typed), nil
	case *CustomField:
		return m.mergeCustom(typed, depth)
	case *Func:
		rendered, ok := m.expand(typed)
		if !ok {
			return node, nil
		}
		return m.merge(rendered, depth+1)
	case *Element:
		if typed == nil || len(typed.Children) == 0 {
			return node, nil
		}
		children := make([]Node, 0, len(typed.Children))
		for _, child := range typed.Children {
			merged, err := m.merge(child, depth+1)
			if err != nil {
				return nil, err
			}
			if merged != nil {
				children = append(children, merged)
			}
		}
		return &Element{Tag: typed.Tag, Props: copyProps(typed.Props), Children: children}, nil
	default:
		return node, nil
	}
}

func (m *Merger) mergeSlot(slot *Slot) Node {
	b, err := m.binding(slot.Field)
	if err != nil {
		return m.failure(slot, slot.Field, err)
	}

	props := b.Props()
	props[form.PropClassName] = form.JoinClass(slot.ClassName, b.ClassName)
	props[form.PropOnChange] = Compose(slot.OnChange, b.OnChange, b.Cascade)
	return &Element{Tag: b.Element, Props: props}
}

func (m *Merger) mergeCustom(custom *CustomField, depth int) (Node, error) {
	child, err := m.onlyChild(custom, depth)
	if err != nil {
		return nil, err
	}

	b, err := m.binding(custom.Field)
	if err != nil {
		return m.failure(custom, custom.Field, err), nil
	}

	props := copyProps(child.Props)
	for key, value := range b.Props() {
		if key == form.PropClassName {
			continue
		}
		if existing, set := child.Props[key]; set && existing != nil {
			continue
		}
		props[key] = value
	}
	props[form.PropClassName] = form.JoinClass(child.StringProp(form.PropClassName), b.ClassName)
	props[form.PropOnChange] = Compose(child.Handler(), b.OnChange, b.Cascade)
	if b.Placeholder == form.LoadingPlaceholder {
		props[form.PropPlaceholder] = form.LoadingPlaceholder
	}

	return &Element{Tag: child.Tag, Props: props, Children: child.Children}, nil
}

func (m *Merger) onlyChild(custom *CustomField, depth int) (*Element, error) {
	var elements []*Element
	for _, child := range custom.Children {
		if child == nil {
			continue
		}
		if fn, ok := child.(*Func); ok {
			rendered, ok := m.expand(fn)
			if !ok {
				return nil, fmt.Errorf("%w: %q has an unrenderable child", ErrCustomFieldChildren, custom.Field)
			}
			child = rendered
		}
		el, ok := child.(*Element)
		if !ok {
			return nil, fmt.Errorf("%w: %q has a %T child", ErrCustomFieldChildren, custom.Field, child)
		}
		elements = append(elements, el)
	}
	if len(elements) != 1 {
		return nil, fmt.Errorf("%w: %q has %d", ErrCustomFieldChildren, custom.Field, len(elements))
	}
	return elements[0], nil
}

func (m *Merger) binding(field string) (form.Binding, error) {
	if m.bind == nil {
		return form.Binding{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return m.bind(field)
}

// failure leaves unknown placeholders in place, drops skipped ones and renders
// other binding errors as an error element so the rest of the form still
// renders.
func (m *Merger) failure(node Node, field string, err error) Node {
	if errors.Is(err, ErrSkipField) {
		return nil
	}
	if errors.Is(err, ErrUnknownField) {
		m.logger.Warn("modelform/tree: placeholder names unknown field", "field", field)
		return node
	}
	m.logger.Error("modelform/tree: cannot bind field", "field", field, "error", err)
	return ErrorElement(err)
}

// expand renders a Func node once, recovering from panics.
func (m *Merger) expand(fn *Func) (Node, bool) {
	if fn == nil || fn.Render == nil {
		return nil, false
	}
	if done, seen := m.expanded[fn]; seen {
		return done.node, done.ok
	}
	rendered, ok := m.render(fn)
	m.expanded[fn] = expansion{node: rendered, ok: ok}
	return rendered, ok
}

func (m *Merger) render(fn *Func) (rendered Node, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("modelform/tree: render function panicked", "func", fn.Name, "panic", r)
			rendered, ok = nil, false
		}
	}()
	out, err := fn.Render()
	if err != nil {
		m.logger.Warn("modelform/tree: render function failed", "func", fn.Name, "error", err)
		return nil, false
	}
	return out, true
}

// ErrorClass is the class name of elements reporting configuration errors.
const ErrorClass = "modelform-error"

// ErrorElement renders err as a visible alert element.
func ErrorElement(err error) *Element {
	return &Element{
		Tag:      "div",
		Props:    map[string]any{form.PropClassName: ErrorClass, "role": "alert"},
		Children: []Node{Text(err.Error())},
	}
}

// Compose returns a handler calling each non-nil handler in order.
func Compose(handlers ...form.ChangeHandler) form.ChangeHandler {
	active := make([]form.ChangeHandler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			active = append(active, h)
		}
	}
	return func(value any) {
		for _, h := range active {
			h(value)
		}
	}
}

func copyProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for key, value := range props {
		out[key] = value
	}
	return out
}
