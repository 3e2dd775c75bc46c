package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-modelform/pkg/form"
)

// SetID switches an update session to another record. Defaults are
// re-synthesized immediately so the previous record's values never show while
// the new one loads, and any fetch still running for the old identifier is
// ignored when it completes.
func (s *Session) SetID(id any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != form.ModeUpdate {
		return
	}
	if form.Equal(s.id, id) && s.lifecycle != StateLoadingInitial {
		return
	}
	s.id = id
	s.generation++
	s.values.SetInitialValues(form.Defaults(s.model, form.ModeUpdate))
	s.issues = nil
	s.lastErr = nil
	s.lifecycle = StateLoadingInitial
}

// Load fetches the related records of every reference field and, for update
// sessions, the record being edited. It blocks the calling goroutine only;
// results for an identifier replaced by SetID in the meantime are discarded.
func (s *Session) Load(ctx context.Context) error {
	if s.querier == nil {
		return ErrNoQuerier
	}

	var errs []error
	for _, target := range s.classifier.ReferenceTargets() {
		records, err := s.querier.FindMany(ctx, target)
		if err != nil {
			s.logger.Warn("modelform/session: related records unavailable",
				"model", s.model.Name(), "target", target, "error", err)
			errs = append(errs, fmt.Errorf("modelform/session: find many %s: %w", target, err))
			continue
		}
		if records == nil {
			records = []map[string]any{}
		}
		s.mu.Lock()
		s.related[target] = form.QueryResult{Data: records}
		s.mu.Unlock()
	}

	if s.mode == form.ModeUpdate {
		if err := s.loadRecord(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Session) loadRecord(ctx context.Context) error {
	s.mu.Lock()
	id := s.id
	generation := s.generation
	s.mu.Unlock()

	record, fetchErr := s.querier.FindUnique(ctx, s.model.Name(), map[string]any{s.idField.Name: id})

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		s.logger.Debug("modelform/session: discarding stale record",
			"model", s.model.Name(), "id", id, "current", s.id)
		return nil
	}

	s.lifecycle = StateReady
	if fetchErr != nil {
		s.lastErr = fmt.Errorf("modelform/session: find unique %s: %w", s.model.Name(), fetchErr)
		s.logger.Error("modelform/session: initial record unavailable",
			"model", s.model.Name(), "id", id, "error", fetchErr)
		return s.lastErr
	}
	if record == nil {
		return nil
	}

	initial := form.MergeRecord(s.model, form.Defaults(s.model, form.ModeUpdate), record)
	s.values.SetInitialValues(initial)
	return nil
}

// SetRelated installs a find-many result pushed by the host, for example from
// a live subscription.
func (s *Session) SetRelated(model string, result form.QueryResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.related[model] = result
}
