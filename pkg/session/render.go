package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-modelform/pkg/form"
	"github.com/goliatone/go-modelform/pkg/metadata"
	"github.com/goliatone/go-modelform/pkg/tree"
)

// SubmitControl describes the submit control of a rendered form.
type SubmitControl struct {
	Element  string
	Mode     form.Mode
	Model    string
	Disabled bool
	Loading  bool
}

// View is one render of a session: the automatically generated fields, the
// caller layout with its placeholders filled, aggregated validation errors
// and the submit control.
type View struct {
	Model     string
	Mode      form.Mode
	State     State
	ClassName string
	Fields    []tree.Node
	Layout    []tree.Node
	// Errors is the aggregated validation error text, empty when valid.
	Errors string
	Submit SubmitControl
	// ConfigErrors lists the per-field configuration errors of this render.
	ConfigErrors []error
}

// Render builds a View from the current state. Configuration errors tied to a
// single field are rendered in its place and reported in View.ConfigErrors;
// a malformed layout fails the whole render.
func (s *Session) Render() (View, error) {
	s.mu.Lock()
	snapshot := s.renderContext()
	lifecycle := s.lifecycle
	errorsText := aggregateErrors(s.issues)
	dirty := s.values.AnyDirty()
	s.mu.Unlock()

	view := View{
		Model:     s.model.Name(),
		Mode:      s.mode,
		State:     lifecycle,
		ClassName: form.JoinClass(s.host.GlobalClassName, s.className),
		Errors:    errorsText,
		Submit:    s.submitControl(lifecycle, dirty),
	}

	merger := tree.NewMerger(func(name string) (form.Binding, error) {
		field, ok := s.model.Field(name)
		if !ok {
			return form.Binding{}, fmt.Errorf("%w: %s.%s", tree.ErrUnknownField, s.model.Name(), name)
		}
		b, err := s.bind(field, -1, snapshot)
		if err != nil && !isSkip(err) {
			view.ConfigErrors = append(view.ConfigErrors, err)
		}
		return b, err
	}, tree.WithLogger(s.logger))

	claimed := merger.Claimed(s.layout...)
	for index, field := range s.model.Fields() {
		if _, ok := claimed[field.Name]; ok {
			continue
		}
		b, err := s.bind(field, index, snapshot)
		if err != nil {
			if isSkip(err) {
				continue
			}
			s.logger.Error("modelform/session: field configuration error",
				"model", s.model.Name(), "field", field.Name, "error", err)
			view.ConfigErrors = append(view.ConfigErrors, err)
			view.Fields = append(view.Fields, tree.ErrorElement(err))
			continue
		}
		view.Fields = append(view.Fields, inputElement(b))
	}

	if len(s.layout) > 0 {
		layout, err := merger.MergeAll(s.layout)
		if err != nil {
			return View{}, err
		}
		view.Layout = layout
	}
	return view, nil
}

type renderContext struct {
	values         form.Values
	dirty          map[string]bool
	loadingInitial bool
	related        map[string]form.QueryResult
}

func (s *Session) renderContext() renderContext {
	related := make(map[string]form.QueryResult, len(s.related))
	for key, value := range s.related {
		related[key] = value
	}
	return renderContext{
		values:         s.values.Values(),
		dirty:          s.values.Dirty(),
		loadingInitial: s.lifecycle == StateLoadingInitial,
		related:        related,
	}
}

// Binding returns the live binding of one field, for hosts that render fields
// individually.
func (s *Session) Binding(name string) (form.Binding, error) {
	field, ok := s.model.Field(name)
	if !ok {
		return form.Binding{}, fmt.Errorf("%w: %q", metadata.ErrFieldNotFound, name)
	}
	s.mu.Lock()
	snapshot := s.renderContext()
	s.mu.Unlock()

	index := -1
	for i, f := range s.model.Fields() {
		if f.Name == name {
			index = i
			break
		}
	}
	return s.bind(field, index, snapshot)
}

func (s *Session) bind(field metadata.Field, index int, rc renderContext) (form.Binding, error) {
	desc, ok, err := s.classifier.Classify(field)
	if err != nil {
		return form.Binding{}, err
	}
	if !ok {
		return form.Binding{}, fmt.Errorf("%w: %s", tree.ErrSkipField, field.Name)
	}

	b := s.classifier.Bind(desc, form.BindContext{
		Mode:           s.mode,
		Values:         rc.values,
		Dirty:          rc.dirty,
		LoadingInitial: rc.loadingInitial,
		Related: func(model string) form.QueryResult {
			if result, ok := rc.related[model]; ok {
				return result
			}
			return form.QueryResult{Loading: true}
		},
		Index: index,
	})

	element, ok := s.host.Elements[b.Kind]
	if !ok || strings.TrimSpace(element) == "" {
		return form.Binding{}, &form.ConfigError{
			Model: s.model.Name(),
			Field: field.Name,
			Err:   fmt.Errorf("%w for field %s with type: %s", form.ErrElementMapping, field.Name, field.Type),
		}
	}
	b.Element = element

	name := field.Name
	b.OnChange = func(value any) { s.Change(name, value) }
	return b, nil
}

func (s *Session) submitControl(lifecycle State, dirty bool) SubmitControl {
	control := SubmitControl{
		Mode:    s.mode,
		Model:   s.model.Name(),
		Loading: lifecycle == StateSubmitting,
	}
	if s.mode == form.ModeUpdate {
		control.Element = s.host.Submit.Update
		control.Disabled = !dirty
	} else {
		control.Element = s.host.Submit.Create
	}
	return control
}

func inputElement(b form.Binding) *tree.Element {
	props := b.Props()
	props[form.PropOnChange] = tree.Compose(b.OnChange, b.Cascade)
	return &tree.Element{Tag: b.Element, Props: props}
}

func isSkip(err error) bool {
	return errors.Is(err, tree.ErrSkipField)
}

// aggregateErrors renders the field errors as a single line, keyed like the
// field names so the text stays stable across renders.
func aggregateErrors(issues map[string][]string) string {
	if len(issues) == 0 {
		return ""
	}
	flat := make(map[string]string, len(issues))
	for key, msgs := range issues {
		flat[key] = strings.Join(msgs, "; ")
	}
	data, err := json.Marshal(flat)
	if err != nil {
		return "Errors: validation failed"
	}
	return "Errors: " + string(data)
}
