package server

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-modelform/pkg/session"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("modelform/server: session not found")

type entry struct {
	session *session.Session
	touched time.Time
}

// sessions holds the live form sessions. Entries idle for longer than ttl are
// pruned on access; when max is reached the least recently used entry is
// evicted.
type sessions struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*entry
	ttl     time.Duration
	max     int
	now     func() time.Time
}

func newSessions(ttl time.Duration, max int, now func() time.Time) *sessions {
	return &sessions{
		entries: make(map[uuid.UUID]*entry),
		ttl:     ttl,
		max:     max,
		now:     now,
	}
}

func (t *sessions) add(s *session.Session) uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.pruneLocked(now)
	for t.max > 0 && len(t.entries) >= t.max {
		t.evictOldestLocked()
	}

	id := uuid.New()
	t.entries[id] = &entry{session: s, touched: now}
	return id
}

func (t *sessions) get(id uuid.UUID) (*session.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	e, ok := t.entries[id]
	if !ok || t.expired(e, now) {
		delete(t.entries, id)
		return nil, ErrSessionNotFound
	}
	e.touched = now
	return e.session, nil
}

func (t *sessions) remove(id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.entries[id]
	delete(t.entries, id)
	return ok
}

func (t *sessions) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pruneLocked(t.now())
	return len(t.entries)
}

func (t *sessions) expired(e *entry, now time.Time) bool {
	return t.ttl > 0 && now.Sub(e.touched) > t.ttl
}

func (t *sessions) pruneLocked(now time.Time) {
	for id, e := range t.entries {
		if t.expired(e, now) {
			delete(t.entries, id)
		}
	}
}

func (t *sessions) evictOldestLocked() {
	ids := make([]uuid.UUID, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return
	}
	sort.Slice(ids, func(i, j int) bool {
		return t.entries[ids[i]].touched.Before(t.entries[ids[j]].touched)
	})
	delete(t.entries, ids[0])
}
