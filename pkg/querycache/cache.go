package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/goliatone/go-modelform/pkg/form"
	"github.com/goliatone/go-modelform/pkg/session"
)

// DefaultMaxEntries bounds the number of cached query results.
const DefaultMaxEntries = 256

// Query kinds used as the second key component.
const (
	OpFindMany   = "findMany"
	OpFindUnique = "findUnique"
)

// ErrNilQuerier is returned when a caching querier wraps nothing.
var ErrNilQuerier = errors.New("modelform/querycache: wrapped querier is nil")

// Option customises a Store.
type Option func(*Store)

// WithMaxEntries overrides DefaultMaxEntries. The oldest entry is evicted
// first.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithLogger routes cache diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type entry struct {
	key  session.QueryKey
	many []map[string]any
	one  map[string]any
}

// Store is an in-process query result cache keyed by session.QueryKey. It
// implements session.Cache.
type Store struct {
	mu         sync.Mutex
	entries    map[string]entry
	order      []string
	maxEntries int
	logger     *slog.Logger
}

// New constructs an empty Store.
func New(options ...Option) *Store {
	s := &Store{
		entries:    make(map[string]entry),
		maxEntries: DefaultMaxEntries,
		logger:     slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// InvalidateQueries drops every entry whose key matches predicate.
func (s *Store) InvalidateQueries(ctx context.Context, predicate func(session.QueryKey) bool) error {
	if predicate == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.order[:0]
	dropped := 0
	for _, id := range s.order {
		if predicate(s.entries[id].key) {
			delete(s.entries, id)
			dropped++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	if dropped > 0 {
		s.logger.Debug("modelform/querycache: invalidated queries", "count", dropped)
	}
	return nil
}

// Keys returns the cached keys, oldest first.
func (s *Store) Keys() []session.QueryKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]session.QueryKey, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, append(session.QueryKey(nil), s.entries[id].key...))
	}
	return out
}

// Len reports the number of cached results.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) get(key session.QueryKey) (entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[keyID(key)]
	return e, ok
}

func (s *Store) put(e entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := keyID(e.key)
	if _, exists := s.entries[id]; !exists {
		s.order = append(s.order, id)
	}
	s.entries[id] = e
	for len(s.order) > s.maxEntries {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}
}

// Querier serves reads from a Store, falling through to the wrapped querier
// on a miss. Results are copied in both directions so callers never share
// maps with the cache.
type Querier struct {
	next  session.Querier
	store *Store
}

// Wrap returns a caching querier in front of next.
func Wrap(next session.Querier, store *Store) (*Querier, error) {
	if next == nil {
		return nil, ErrNilQuerier
	}
	if store == nil {
		store = New()
	}
	return &Querier{next: next, store: store}, nil
}

// Store returns the backing cache.
func (q *Querier) Store() *Store {
	return q.store
}

// FindMany implements session.Querier under the key [model, findMany].
func (q *Querier) FindMany(ctx context.Context, model string) ([]map[string]any, error) {
	key := session.QueryKey{model, OpFindMany}
	if cached, ok := q.store.get(key); ok {
		return copyRecords(cached.many), nil
	}
	records, err := q.next.FindMany(ctx, model)
	if err != nil {
		return nil, err
	}
	q.store.put(entry{key: key, many: copyRecords(records)})
	return records, nil
}

// FindUnique implements session.Querier under the key
// [model, findUnique, <where>]. Missing records are not cached.
func (q *Querier) FindUnique(ctx context.Context, model string, where map[string]any) (map[string]any, error) {
	whereKey, err := encodeWhere(where)
	if err != nil {
		return nil, err
	}
	key := session.QueryKey{model, OpFindUnique, whereKey}
	if cached, ok := q.store.get(key); ok {
		return copyRecord(cached.one), nil
	}
	record, err := q.next.FindUnique(ctx, model, where)
	if err != nil || record == nil {
		return record, err
	}
	q.store.put(entry{key: key, one: copyRecord(record)})
	return record, nil
}

// Mutator invalidates every cached query of a model after the wrapped mutator
// succeeds.
type Mutator struct {
	next  session.Mutator
	store *Store
}

// WrapMutator returns an invalidating mutator in front of next.
func WrapMutator(next session.Mutator, store *Store) *Mutator {
	return &Mutator{next: next, store: store}
}

// Create implements session.Mutator.
func (m *Mutator) Create(ctx context.Context, model string, payload form.Payload, opts session.MutateOptions) error {
	if err := m.next.Create(ctx, model, payload, opts); err != nil {
		return err
	}
	return m.invalidate(ctx, model)
}

// Update implements session.Mutator.
func (m *Mutator) Update(ctx context.Context, model string, payload form.Payload, opts session.MutateOptions) error {
	if err := m.next.Update(ctx, model, payload, opts); err != nil {
		return err
	}
	return m.invalidate(ctx, model)
}

func (m *Mutator) invalidate(ctx context.Context, model string) error {
	if m.store == nil {
		return nil
	}
	return m.store.InvalidateQueries(ctx, func(key session.QueryKey) bool {
		return key.Includes(model)
	})
}

func keyID(key session.QueryKey) string {
	return strings.Join(key, "\x00")
}

// encodeWhere renders a where clause with sorted keys.
func encodeWhere(where map[string]any) (string, error) {
	data, err := json.Marshal(where)
	if err != nil {
		return "", fmt.Errorf("modelform/querycache: encode where: %w", err)
	}
	return string(data), nil
}

func copyRecords(records []map[string]any) []map[string]any {
	if records == nil {
		return nil
	}
	out := make([]map[string]any, len(records))
	for i, record := range records {
		out[i] = copyRecord(record)
	}
	return out
}

func copyRecord(record map[string]any) map[string]any {
	if record == nil {
		return nil
	}
	out := make(map[string]any, len(record))
	for key, value := range record {
		out[key] = value
	}
	return out
}
