package session

import (
	"context"
	"errors"

	"github.com/goliatone/go-modelform/pkg/form"
	"github.com/goliatone/go-modelform/pkg/schema"
)

// Submit validates the values, builds the payload and hands it to the
// mutation boundary, or to the override submit when one is configured.
//
// Validation failures return a *schema.ValidationError and never reach the
// boundary. Boundary failures return a *SubmitError and keep the edits. A
// second Submit while one is running returns ErrSubmitInFlight. When SetID
// switches records while the boundary call runs, the result is reported to
// the callbacks but the new record's values and identifier are left alone.
func (s *Session) Submit(ctx context.Context) (form.Payload, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return form.Payload{}, ErrSubmitInFlight
	}
	if s.mutator == nil && s.overrideSubmit == nil {
		s.mu.Unlock()
		return form.Payload{}, ErrNoMutator
	}

	payload, err := form.BuildPayload(form.PayloadRequest{
		Mode:   s.mode,
		Model:  s.model,
		Schema: s.schema,
		Values: s.values.Values(),
		Dirty:  s.values.Dirty(),
		ID:     s.id,
	})
	if err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			s.issues = verr.FieldErrors()
		}
		s.mu.Unlock()
		s.logger.Warn("modelform/session: submitted values do not match the schema",
			"model", s.model.Name(), "mode", s.mode, "error", err)
		return form.Payload{}, err
	}

	s.issues = nil
	s.submitting = true
	resting := s.lifecycle
	s.lifecycle = StateSubmitting
	generation := s.generation
	submitted := s.values.Values()
	idDirty := s.values.IsDirty(s.idField.Name)
	s.mu.Unlock()

	sent, err := s.send(ctx, payload)

	s.mu.Lock()
	s.submitting = false
	if s.lifecycle == StateSubmitting {
		s.lifecycle = resting
	}
	stale := generation != s.generation
	if err != nil {
		submitErr := &SubmitError{Model: s.model.Name(), Mode: s.mode, Err: err}
		if !stale {
			s.lastErr = submitErr
		}
		s.mu.Unlock()
		s.logger.Error("modelform/session: submit failed",
			"model", s.model.Name(), "mode", s.mode, "error", err)
		return form.Payload{}, submitErr
	}
	if stale {
		onSubmit, current := s.onSubmit, s.id
		s.mu.Unlock()
		s.logger.Debug("modelform/session: record replaced during submit, baseline kept",
			"model", s.model.Name(), "current", current)
		if onSubmit != nil {
			onSubmit(sent)
		}
		return payload, nil
	}
	s.lastErr = nil

	// Commit what was sent; edits made while the submit ran stay dirty.
	current := s.values.Values()
	s.values.SetInitialValues(submitted)
	for key, value := range current {
		if !form.Equal(submitted[key], value) {
			s.values.Set(key, value)
		}
	}

	var newID any
	if idDirty && s.mode == form.ModeUpdate {
		newID = payload.Data[s.idField.Name]
		s.id = newID
	}
	onSubmit, onIDChanged := s.onSubmit, s.onIDChanged
	s.mu.Unlock()

	if onSubmit != nil {
		onSubmit(sent)
	}
	if idDirty && s.mode == form.ModeUpdate && onIDChanged != nil {
		onIDChanged(newID)
	}
	return payload, nil
}

// send runs the boundary call and returns the value handed to it.
func (s *Session) send(ctx context.Context, payload form.Payload) (map[string]any, error) {
	model := s.model.Name()

	if s.overrideSubmit != nil {
		sent := payload.Map()
		if s.mode == form.ModeCreate {
			sent = payload.Data
		}
		if err := s.overrideSubmit(ctx, sent); err != nil {
			return nil, err
		}
		s.invalidate(ctx)
		return sent, nil
	}

	opts := MutateOptions{Optimistic: true}
	var err error
	if s.mode == form.ModeCreate {
		err = s.mutator.Create(ctx, model, payload, opts)
	} else {
		err = s.mutator.Update(ctx, model, payload, opts)
	}
	if err != nil {
		return nil, err
	}
	return payload.Map(), nil
}

// invalidate drops every cached query whose key mentions the model.
func (s *Session) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	model := s.model.Name()
	err := s.cache.InvalidateQueries(ctx, func(key QueryKey) bool {
		return key.Includes(model)
	})
	if err != nil {
		s.logger.Warn("modelform/session: cache invalidation failed", "model", model, "error", err)
	}
}
