package session

import (
	"context"
	"slices"

	"github.com/goliatone/go-modelform/pkg/form"
)

// Querier is the read boundary. FindUnique looks a record up by a where clause
// on its identifier; FindMany lists every record of a model. A nil record with
// a nil error means the record does not exist.
type Querier interface {
	FindUnique(ctx context.Context, model string, where map[string]any) (map[string]any, error)
	FindMany(ctx context.Context, model string) ([]map[string]any, error)
}

// MutateOptions tunes a mutation call.
type MutateOptions struct {
	// Optimistic asks the boundary to update cached reads before the write
	// is confirmed.
	Optimistic bool
}

// Mutator is the write boundary. Create receives {data}; Update receives
// {where, data}.
type Mutator interface {
	Create(ctx context.Context, model string, payload form.Payload, opts MutateOptions) error
	Update(ctx context.Context, model string, payload form.Payload, opts MutateOptions) error
}

// QueryKey identifies a cached query, for example ["Item", "findMany"].
type QueryKey []string

// Includes reports whether any key component equals part.
func (k QueryKey) Includes(part string) bool {
	return slices.Contains(k, part)
}

// Cache is the data-cache boundary.
type Cache interface {
	InvalidateQueries(ctx context.Context, predicate func(QueryKey) bool) error
}

// OverrideSubmit replaces the mutation boundary. Update forms pass the full
// {where, data} map, create forms only the cleaned data.
type OverrideSubmit func(ctx context.Context, payload map[string]any) error

// Scheduler defers work by one tick of the host event loop.
type Scheduler interface {
	AfterTick(fn func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

// AfterTick implements Scheduler.
func (f SchedulerFunc) AfterTick(fn func()) { f(fn) }

// goScheduler runs deferred work on a new goroutine.
type goScheduler struct{}

func (goScheduler) AfterTick(fn func()) { go fn() }

// Focus reads and restores input focus. Paths are the data-path markers
// stamped on generated inputs.
type Focus interface {
	ActivePath() string
	FocusPath(path string)
}
