package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/goliatone/go-modelform/pkg/form"
	"github.com/goliatone/go-modelform/pkg/metadata"
	"github.com/goliatone/go-modelform/pkg/schema"
	"github.com/goliatone/go-modelform/pkg/tree"
)

// State is the lifecycle state of a session.
type State string

const (
	// StateIdle is the resting state of create sessions.
	StateIdle State = "idle"
	// StateLoadingInitial waits for the record of an update session.
	StateLoadingInitial State = "loading_initial"
	// StateReady is the resting state of loaded update sessions.
	StateReady State = "ready"
	// StateSubmitting runs the mutation boundary. Only one submit may be in
	// flight.
	StateSubmitting State = "submitting"
)

// SubmitControls names the host elements used for the submit control of each
// form variant.
type SubmitControls struct {
	Create string
	Update string
}

// HostConfig is the process-wide host configuration a session renders with.
type HostConfig struct {
	// Elements maps a field kind to the host element rendering it.
	Elements map[form.Kind]string
	// EnumLabel turns enum literals into option labels.
	EnumLabel func(string) string
	// GlobalClassName is applied to every generated form.
	GlobalClassName string
	// Submit names the submit controls.
	Submit SubmitControls
}

// Option customises a Session.
type Option func(*Session)

// WithHost installs the host configuration.
func WithHost(host HostConfig) Option {
	return func(s *Session) {
		s.host = host
	}
}

// WithID sets the record identifier of an update session.
func WithID(id any) Option {
	return func(s *Session) {
		s.id = id
	}
}

// WithQuerier installs the read boundary.
func WithQuerier(q Querier) Option {
	return func(s *Session) {
		s.querier = q
	}
}

// WithMutator installs the write boundary.
func WithMutator(m Mutator) Option {
	return func(s *Session) {
		s.mutator = m
	}
}

// WithCache installs the cache boundary used after override submits.
func WithCache(c Cache) Option {
	return func(s *Session) {
		s.cache = c
	}
}

// WithSchema replaces the schema derived from metadata.
func WithSchema(rule schema.Rule) Option {
	return func(s *Session) {
		s.schema = rule
	}
}

// WithLayout supplies the caller-authored tree merged with generated fields.
func WithLayout(nodes ...tree.Node) Option {
	return func(s *Session) {
		s.layout = append(s.layout, nodes...)
	}
}

// WithClassName adds a caller class name to the form.
func WithClassName(className string) Option {
	return func(s *Session) {
		s.className = className
	}
}

// WithOnSubmit registers a callback run after a successful submit with the
// payload that was sent.
func WithOnSubmit(fn func(payload map[string]any)) Option {
	return func(s *Session) {
		s.onSubmit = fn
	}
}

// WithOnIDChanged registers a callback run after a submit that changed the
// record identifier.
func WithOnIDChanged(fn func(id any)) Option {
	return func(s *Session) {
		s.onIDChanged = fn
	}
}

// WithOverrideSubmit bypasses the mutation boundary.
func WithOverrideSubmit(fn OverrideSubmit) Option {
	return func(s *Session) {
		s.overrideSubmit = fn
	}
}

// WithScheduler sets the scheduler used to restore focus after a revert.
func WithScheduler(scheduler Scheduler) Option {
	return func(s *Session) {
		if scheduler != nil {
			s.scheduler = scheduler
		}
	}
}

// WithFocus installs the focus tracker used by the revert shortcut.
func WithFocus(focus Focus) Option {
	return func(s *Session) {
		s.focus = focus
	}
}

// WithLogger routes session diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session drives one form instance through its create or update lifecycle.
// Values, dirty set and validation errors belong to the session alone. The
// methods are safe to call from multiple goroutines; boundary calls run
// without holding the session lock.
type Session struct {
	mu sync.Mutex

	registry *metadata.Registry
	model    *metadata.Model
	idField  metadata.Field
	mode     form.Mode

	schema     schema.Rule
	classifier *form.Classifier
	host       HostConfig
	layout     []tree.Node
	className  string

	querier        Querier
	mutator        Mutator
	cache          Cache
	overrideSubmit OverrideSubmit
	onSubmit       func(payload map[string]any)
	onIDChanged    func(id any)
	scheduler      Scheduler
	focus          Focus
	logger         *slog.Logger

	id         any
	generation uint64
	lifecycle  State
	submitting bool
	values     *form.State
	related    map[string]form.QueryResult
	issues     map[string][]string
	lastErr    error
}

// New builds a session for modelName in the given mode. The registry supplies
// metadata; options supply the boundaries and host configuration.
func New(registry *metadata.Registry, modelName string, mode form.Mode, options ...Option) (*Session, error) {
	if registry == nil {
		return nil, errors.New("modelform/session: registry is nil")
	}
	if mode != form.ModeCreate && mode != form.ModeUpdate {
		return nil, fmt.Errorf("modelform/session: unknown mode %q", mode)
	}
	model, err := registry.Model(modelName)
	if err != nil {
		return nil, err
	}
	idField, err := model.IDField()
	if err != nil {
		return nil, err
	}

	s := &Session{
		registry:  registry,
		model:     model,
		idField:   idField,
		mode:      mode,
		scheduler: goScheduler{},
		logger:    slog.Default(),
		related:   make(map[string]form.QueryResult),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}

	if s.schema == nil {
		if mode == form.ModeCreate {
			s.schema = schema.FromModel(model, schema.ForCreate())
		} else {
			s.schema = schema.FromModel(model)
		}
	}
	s.classifier = form.NewClassifier(registry, model, s.schema, form.WithEnumLabel(s.host.EnumLabel))
	for _, target := range s.classifier.ReferenceTargets() {
		s.related[target] = form.QueryResult{Loading: true}
	}

	s.values = form.NewState(form.Defaults(model, mode))
	if mode == form.ModeCreate {
		s.lifecycle = StateIdle
		return s, nil
	}
	if s.id == nil {
		return nil, ErrNoRecordID
	}
	s.lifecycle = StateLoadingInitial
	return s, nil
}

// Model returns the model the session edits.
func (s *Session) Model() *metadata.Model {
	return s.model
}

// Mode returns the form variant.
func (s *Session) Mode() form.Mode {
	return s.mode
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lifecycle
}

// ID returns the identifier of the record being edited.
func (s *Session) ID() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Values returns a copy of the current values.
func (s *Session) Values() form.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.Values()
}

// Value returns the current value of one field.
func (s *Session) Value(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.Get(name)
}

// IsDirty reports whether any field differs from the committed baseline.
func (s *Session) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.AnyDirty()
}

// Dirty returns a copy of the dirty set.
func (s *Session) Dirty() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.Dirty()
}

// FieldErrors returns the validation messages of the last failed submit.
func (s *Session) FieldErrors() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.issues) == 0 {
		return nil
	}
	out := make(map[string][]string, len(s.issues))
	for key, msgs := range s.issues {
		out[key] = append([]string(nil), msgs...)
	}
	return out
}

// LastError returns the most recent load or submit failure.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Change commits value for field and applies the dependency cascade under one
// lock, so no reader observes the change without its resets.
func (s *Session) Change(field string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values.Set(field, value)
	delete(s.issues, field)
	for _, reset := range form.Cascade(s.model, field) {
		s.values.Set(reset.Field, reset.Value)
		s.logger.Debug("modelform/session: reset dependent field",
			"model", s.model.Name(), "changed", field, "field", reset.Field)
	}
}

// Revert restores the committed baseline.
func (s *Session) Revert() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values.Revert()
	s.issues = nil
}
