package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/goliatone/go-modelform/pkg/form"
	"github.com/goliatone/go-modelform/pkg/metadata"
	"github.com/goliatone/go-modelform/pkg/session"
	"github.com/goliatone/go-modelform/pkg/store"
)

// Option customises a Store.
type Option func(*Store)

// WithLogger routes store diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type table struct {
	rows   []map[string]any
	nextID int64
}

// Store keeps records of every registered model in memory. It implements
// session.Querier and session.Mutator, so forms can run without a database.
type Store struct {
	mu       sync.RWMutex
	registry *metadata.Registry
	tables   map[string]*table
	logger   *slog.Logger
}

var (
	_ session.Querier = (*Store)(nil)
	_ session.Mutator = (*Store)(nil)
)

// New constructs an empty store for the models of registry.
func New(registry *metadata.Registry, options ...Option) *Store {
	s := &Store{
		registry: registry,
		tables:   make(map[string]*table),
		logger:   slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Seed inserts records as-is, bypassing the mutation path. Identifiers must
// be unique.
func (s *Store) Seed(model string, records ...map[string]any) error {
	m, idField, err := s.model(model)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(model)
	for _, record := range records {
		row := store.Normalize(m, record)
		if err := t.insert(row, idField); err != nil {
			return fmt.Errorf("modelform/store/memory: seed %s: %w", model, err)
		}
	}
	return nil
}

// FindMany returns copies of every record in insertion order.
func (s *Store) FindMany(ctx context.Context, model string) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, _, err := s.model(model); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := s.tables[model]
	out := make([]map[string]any, 0)
	if t == nil {
		return out, nil
	}
	for _, row := range t.rows {
		out = append(out, clone(row))
	}
	return out, nil
}

// FindUnique returns a copy of the first record matching where, or nil.
func (s *Store) FindUnique(ctx context.Context, model string, where map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, _, err := s.model(model); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := s.tables[model]
	if t == nil {
		return nil, nil
	}
	if _, row := t.find(where); row != nil {
		return clone(row), nil
	}
	return nil, nil
}

// Create inserts payload.Data, resolving connect objects to foreign keys.
// Integer identifiers left unset are assigned from a per-model sequence.
func (s *Store) Create(ctx context.Context, model string, payload form.Payload, _ session.MutateOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, idField, err := s.model(model)
	if err != nil {
		return err
	}
	row, err := store.Columns(m, payload.Data)
	if err != nil {
		return err
	}
	row = store.Normalize(m, row)

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(model)
	if row[idField.Name] == nil && idField.Type.IsNumeric() {
		t.nextID++
		row[idField.Name] = t.nextID
	}
	if err := t.insert(row, idField); err != nil {
		return err
	}
	s.logger.Debug("modelform/store/memory: created record", "model", model, "id", row[idField.Name])
	return nil
}

// Update applies payload.Data to the record matching payload.Where.
func (s *Store) Update(ctx context.Context, model string, payload form.Payload, _ session.MutateOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, idField, err := s.model(model)
	if err != nil {
		return err
	}
	changes, err := store.Columns(m, payload.Data)
	if err != nil {
		return err
	}
	changes = store.Normalize(m, changes)

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(model)
	index, row := t.find(payload.Where)
	if row == nil {
		return fmt.Errorf("%w: %s %v", store.ErrNotFound, model, payload.Where)
	}
	if newID, ok := changes[idField.Name]; ok && !store.Equal(newID, row[idField.Name]) {
		if _, clash := t.find(map[string]any{idField.Name: newID}); clash != nil {
			return fmt.Errorf("%w: %s %v", store.ErrConflict, model, newID)
		}
	}

	updated := clone(row)
	for key, value := range changes {
		updated[key] = value
	}
	t.rows[index] = updated
	s.logger.Debug("modelform/store/memory: updated record", "model", model, "id", updated[idField.Name])
	return nil
}

func (s *Store) model(name string) (*metadata.Model, metadata.Field, error) {
	if s.registry == nil {
		return nil, metadata.Field{}, fmt.Errorf("%w: %q", metadata.ErrModelNotFound, name)
	}
	m, err := s.registry.Model(name)
	if err != nil {
		return nil, metadata.Field{}, err
	}
	idField, err := m.IDField()
	if err != nil {
		return nil, metadata.Field{}, err
	}
	return m, idField, nil
}

func (s *Store) table(model string) *table {
	t, ok := s.tables[model]
	if !ok {
		t = &table{}
		s.tables[model] = t
	}
	return t
}

func (t *table) insert(row map[string]any, idField metadata.Field) error {
	id := row[idField.Name]
	if id != nil {
		if _, clash := t.find(map[string]any{idField.Name: id}); clash != nil {
			return fmt.Errorf("%w: %v", store.ErrConflict, id)
		}
		if n, ok := id.(int64); ok && n > t.nextID {
			t.nextID = n
		}
	}
	t.rows = append(t.rows, clone(row))
	return nil
}

func (t *table) find(where map[string]any) (int, map[string]any) {
	if len(where) == 0 {
		return -1, nil
	}
	for i, row := range t.rows {
		if store.Matches(row, where) {
			return i, row
		}
	}
	return -1, nil
}

func clone(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for key, value := range row {
		out[key] = value
	}
	return out
}
