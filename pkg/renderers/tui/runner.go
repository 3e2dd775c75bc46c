package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/goliatone/go-modelform/pkg/form"
	"github.com/goliatone/go-modelform/pkg/metadata"
	"github.com/goliatone/go-modelform/pkg/schema"
	"github.com/goliatone/go-modelform/pkg/session"
	"github.com/goliatone/go-modelform/pkg/tree"
)

// Runner drives a session from the terminal: it prompts for every rendered
// field in model order, submits, and re-prompts the failing fields when
// validation rejects the values.
type Runner struct {
	driver   PromptDriver
	theme    Theme
	pageSize int
	logger   *slog.Logger
}

// New constructs a Runner. Without WithPromptDriver it prompts through survey
// on the process terminal.
func New(options ...Option) *Runner {
	r := &Runner{theme: DefaultTheme(), logger: slog.Default()}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver()
	}
	return r
}

// Run loads s, prompts for its fields and submits. It returns the payload
// handed to the mutation boundary.
func (r *Runner) Run(ctx context.Context, s *session.Session) (form.Payload, error) {
	if s == nil {
		return form.Payload{}, ErrNoSession
	}
	if err := s.Load(ctx); err != nil && !errors.Is(err, session.ErrNoQuerier) {
		return form.Payload{}, err
	}

	fields := promptable(s)
	pending := fields
	for {
		for _, name := range pending {
			if err := r.ask(ctx, s, name); err != nil {
				return form.Payload{}, err
			}
		}

		ok, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: submitMessage(s),
			Default: true,
		})
		if err != nil {
			return form.Payload{}, err
		}
		if !ok {
			return form.Payload{}, ErrAborted
		}

		payload, err := s.Submit(ctx)
		if err == nil {
			return payload, nil
		}
		var verr *schema.ValidationError
		if !errors.As(err, &verr) {
			return form.Payload{}, err
		}

		issues := s.FieldErrors()
		if err := r.report(ctx, issues); err != nil {
			return form.Payload{}, err
		}
		retry, cerr := r.driver.Confirm(ctx, ConfirmConfig{Message: "Fix and retry?", Default: true})
		if cerr != nil {
			return form.Payload{}, cerr
		}
		if !retry {
			return form.Payload{}, err
		}
		pending = failing(fields, issues)
		if len(pending) == 0 {
			return form.Payload{}, err
		}
	}
}

func (r *Runner) ask(ctx context.Context, s *session.Session, name string) error {
	b, err := s.Binding(name)
	if err != nil {
		if errors.Is(err, tree.ErrSkipField) {
			return nil
		}
		r.logger.Warn("modelform/tui: field cannot be prompted", "field", name, "error", err)
		return r.driver.Info(ctx, fmt.Sprintf("%s %v", r.theme.ErrorPrefix, err))
	}
	if b.Disabled {
		return r.driver.Info(ctx, fmt.Sprintf("%s %s is disabled", r.theme.InfoPrefix, b.Label))
	}

	message := b.Label
	if b.Required {
		message += " *"
	}

	switch {
	case b.Kind == form.KindOf(metadata.FieldTypeBoolean):
		current, _ := b.Value.(bool)
		answer, err := r.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: current})
		if err != nil {
			return err
		}
		if answer != current {
			commit(b, answer)
		}
	case b.Options != nil:
		labels := make([]string, 0, len(b.Options)+1)
		values := make([]any, 0, len(b.Options)+1)
		if !b.Required {
			labels = append(labels, r.theme.NoneOption)
			values = append(values, nil)
		}
		for _, opt := range b.Options {
			labels = append(labels, opt.Label)
			values = append(values, opt.Value)
		}
		selected := 0
		for i, value := range values {
			if value != nil && form.Equal(value, b.Value) {
				selected = i
				break
			}
		}
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      labels,
			DefaultIndex: selected,
			PageSize:     r.pageSize,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(values) {
			return fmt.Errorf("modelform/tui: selection %d out of range for %s", idx, name)
		}
		if !form.Equal(values[idx], b.Value) {
			commit(b, values[idx])
		}
	default:
		current := display(b.Value)
		answer, err := r.driver.Input(ctx, InputConfig{
			Message: message,
			Default: current,
			Help:    b.Placeholder,
		})
		if err != nil {
			return err
		}
		if answer != current {
			commit(b, answer)
		}
	}
	return nil
}

func (r *Runner) report(ctx context.Context, issues map[string][]string) error {
	keys := make([]string, 0, len(issues))
	for key := range issues {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		msg := fmt.Sprintf("%s %s: %s", r.theme.ErrorPrefix, key, strings.Join(issues[key], "; "))
		if err := r.driver.Info(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// commit runs the same handler chain a rendered input runs on change.
func commit(b form.Binding, value any) {
	tree.Compose(b.OnChange, b.Cascade)(value)
}

func promptable(s *session.Session) []string {
	var names []string
	for _, field := range s.Model().Fields() {
		if field.Hidden || field.IsDataModel || field.IsArray {
			continue
		}
		names = append(names, field.Name)
	}
	return names
}

func failing(fields []string, issues map[string][]string) []string {
	var out []string
	for _, name := range fields {
		if _, ok := issues[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

func submitMessage(s *session.Session) string {
	if s.Mode() == form.ModeUpdate {
		return fmt.Sprintf("Save %s?", s.Model().Name())
	}
	return fmt.Sprintf("Create %s?", s.Model().Name())
}

func display(value any) string {
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}
