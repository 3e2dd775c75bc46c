package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-modelform/pkg/form"
	"github.com/goliatone/go-modelform/pkg/metadata"
	"github.com/goliatone/go-modelform/pkg/schema"
	"github.com/goliatone/go-modelform/pkg/testsupport"
	"github.com/goliatone/go-modelform/pkg/tree"
)

type stubQuerier struct {
	mu      sync.Mutex
	records map[any]map[string]any
	many    map[string][]map[string]any
	gate    map[any]chan struct{}
	started chan any
}

func (q *stubQuerier) FindUnique(ctx context.Context, model string, where map[string]any) (map[string]any, error) {
	id := where["id"]
	q.mu.Lock()
	gate := q.gate[id]
	record := q.records[id]
	q.mu.Unlock()
	if q.started != nil {
		q.started <- id
	}
	if gate != nil {
		<-gate
	}
	return record, nil
}

func (q *stubQuerier) FindMany(ctx context.Context, model string) ([]map[string]any, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.many[model], nil
}

type stubMutator struct {
	mu      sync.Mutex
	creates []form.Payload
	updates []form.Payload
	opts    []MutateOptions
	err     error
	gate    chan struct{}
	started chan struct{}
}

func (m *stubMutator) Create(ctx context.Context, model string, payload form.Payload, opts MutateOptions) error {
	return m.record(&m.creates, payload, opts)
}

func (m *stubMutator) Update(ctx context.Context, model string, payload form.Payload, opts MutateOptions) error {
	return m.record(&m.updates, payload, opts)
}

func (m *stubMutator) record(into *[]form.Payload, payload form.Payload, opts MutateOptions) error {
	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	*into = append(*into, payload)
	m.opts = append(m.opts, opts)
	return m.err
}

type stubCache struct {
	keys        []QueryKey
	invalidated []QueryKey
}

func (c *stubCache) InvalidateQueries(ctx context.Context, predicate func(QueryKey) bool) error {
	for _, key := range c.keys {
		if predicate(key) {
			c.invalidated = append(c.invalidated, key)
		}
	}
	return nil
}

type stubFocus struct {
	active  string
	focused []string
}

func (f *stubFocus) ActivePath() string { return f.active }
func (f *stubFocus) FocusPath(path string) { f.focused = append(f.focused, path) }

type manualScheduler struct {
	pending []func()
}

func (s *manualScheduler) AfterTick(fn func()) { s.pending = append(s.pending, fn) }

func (s *manualScheduler) Tick() {
	pending := s.pending
	s.pending = nil
	for _, fn := range pending {
		fn()
	}
}

func testHost() HostConfig {
	return HostConfig{
		Elements: map[form.Kind]string{
			"String":                 "text-input",
			"Int":                    "number-input",
			"Float":                  "number-input",
			"Boolean":                "checkbox",
			"DateTime":               "date-input",
			form.KindEnum:            "select",
			form.KindReferenceSingle: "reference-select",
		},
		GlobalClassName: "zs-form",
		Submit:          SubmitControls{Create: "create-button", Update: "update-button"},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSession(t *testing.T, mode form.Mode, options ...Option) *Session {
	t.Helper()

	base := []Option{WithHost(testHost()), WithLogger(quietLogger())}
	s, err := New(testsupport.Registry(t), testsupport.ItemModel, mode, append(base, options...)...)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func fieldNames(nodes []tree.Node) []string {
	var names []string
	for _, node := range nodes {
		el, ok := node.(*tree.Element)
		if !ok {
			continue
		}
		names = append(names, el.StringProp(form.PropName))
	}
	return names
}

func findField(t *testing.T, nodes []tree.Node, name string) *tree.Element {
	t.Helper()
	for _, node := range nodes {
		if el, ok := node.(*tree.Element); ok && el.StringProp(form.PropName) == name {
			return el
		}
	}
	t.Fatalf("field %s not rendered", name)
	return nil
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	reg := testsupport.Registry(t)
	if _, err := New(reg, "Missing", form.ModeCreate); !errors.Is(err, metadata.ErrModelNotFound) {
		t.Fatalf("expected model not found, got %v", err)
	}
	if _, err := New(reg, testsupport.ItemModel, form.ModeUpdate); !errors.Is(err, ErrNoRecordID) {
		t.Fatalf("expected missing id error, got %v", err)
	}
	if _, err := New(reg, testsupport.ItemModel, form.Mode("patch")); err == nil {
		t.Fatalf("expected unknown mode error")
	}
}

func TestCreateSession_RendersGeneratedFields(t *testing.T) {
	t.Parallel()

	s := newSession(t, form.ModeCreate, WithClassName("item-form"))
	if s.State() != StateIdle {
		t.Fatalf("create sessions start idle, got %s", s.State())
	}

	view, err := s.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := []string{"id", "name", "description", "status", "category", "subCategory", "inStock", "price", "ownerId"}
	if diff := cmp.Diff(want, fieldNames(view.Fields)); diff != "" {
		t.Fatalf("rendered fields mismatch (-want +got):\n%s", diff)
	}
	if view.ClassName != "zs-form item-form" {
		t.Fatalf("unexpected form class %q", view.ClassName)
	}
	if view.Submit.Element != "create-button" || view.Submit.Disabled {
		t.Fatalf("unexpected submit control %+v", view.Submit)
	}

	owner := findField(t, view.Fields, "ownerId")
	if owner.Tag != "reference-select" || owner.Prop(form.PropDisabled) != true {
		t.Fatalf("reference field must wait for data: %+v", owner)
	}
	if !findField(t, view.Fields, "id").Prop(form.PropAutofocus).(bool) {
		t.Fatalf("first field must take autofocus")
	}
}

func TestCreateSession_LoadResolvesReferenceOptions(t *testing.T) {
	t.Parallel()

	q := &stubQuerier{many: map[string][]map[string]any{testsupport.PersonModel: testsupport.People()}}
	s := newSession(t, form.ModeCreate, WithQuerier(q))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	view, err := s.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	owner := findField(t, view.Fields, "ownerId")
	want := []form.Option{
		{Label: "Ada", Value: int64(7)},
		{Label: "Grace", Value: int64(8)},
		{Label: "Linus", Value: int64(9)},
	}
	if diff := cmp.Diff(want, owner.Prop(form.PropData)); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if owner.Prop(form.PropDisabled) != false {
		t.Fatalf("reference field must be interactive once loaded")
	}
}

func TestSession_CascadeThroughInputHandler(t *testing.T) {
	t.Parallel()

	s := newSession(t, form.ModeCreate)
	s.Change("subCategory", "drills")

	view, err := s.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if findField(t, view.Fields, "subCategory").Prop(form.PropDisabled) != true {
		t.Fatalf("subCategory must be disabled while category is unset")
	}

	findField(t, view.Fields, "category").Handler()("tools")

	value, ok := s.Value("subCategory")
	if !ok || value != nil {
		t.Fatalf("expected subCategory reset to nil, got %v", value)
	}
	if got, _ := s.Value("category"); got != "tools" {
		t.Fatalf("expected category to be committed, got %v", got)
	}

	view, _ = s.Render()
	if findField(t, view.Fields, "subCategory").Prop(form.PropDisabled) != false {
		t.Fatalf("subCategory must be enabled once category is set")
	}
}

func TestUpdateSession_SubmitSendsDirtyFields(t *testing.T) {
	t.Parallel()

	q := &stubQuerier{records: map[any]map[string]any{42: {"id": int64(42), "name": "Drill"}}}
	m := &stubMutator{}
	var submitted map[string]any
	s := newSession(t, form.ModeUpdate,
		WithID(42),
		WithQuerier(q),
		WithMutator(m),
		WithOnSubmit(func(p map[string]any) { submitted = p }),
		WithOnIDChanged(func(any) { t.Errorf("id did not change") }),
	)
	if s.State() != StateLoadingInitial {
		t.Fatalf("update sessions start loading, got %s", s.State())
	}

	view, _ := s.Render()
	if got := findField(t, view.Fields, "name").Prop(form.PropPlaceholder); got != form.LoadingPlaceholder {
		t.Fatalf("expected loading placeholder, got %v", got)
	}

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.State() != StateReady {
		t.Fatalf("expected ready, got %s", s.State())
	}

	view, _ = s.Render()
	if !view.Submit.Disabled {
		t.Fatalf("update submit must be disabled while nothing is dirty")
	}

	s.Change("name", "Hammer")
	view, _ = s.Render()
	name := findField(t, view.Fields, "name")
	if name.Prop(form.PropClassName) != form.DirtyClass {
		t.Fatalf("dirty input must carry the dirty class, got %v", name.Prop(form.PropClassName))
	}
	if view.Submit.Disabled {
		t.Fatalf("update submit must be enabled once dirty")
	}

	payload, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	want := map[string]any{
		"where": map[string]any{"id": 42},
		"data":  map[string]any{"name": "Hammer"},
	}
	if diff := cmp.Diff(want, payload.Map()); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	if len(m.updates) != 1 || !m.opts[0].Optimistic {
		t.Fatalf("expected one optimistic update, got %d %+v", len(m.updates), m.opts)
	}
	if diff := cmp.Diff(want, submitted); diff != "" {
		t.Fatalf("onSubmit payload mismatch (-want +got):\n%s", diff)
	}
	if s.IsDirty() || s.State() != StateReady {
		t.Fatalf("successful submit must commit the baseline, dirty=%v state=%s", s.IsDirty(), s.State())
	}
}

func TestUpdateSession_IDChange(t *testing.T) {
	t.Parallel()

	q := &stubQuerier{records: map[any]map[string]any{42: {"id": int64(42), "name": "Drill"}}}
	var changed any
	s := newSession(t, form.ModeUpdate,
		WithID(42),
		WithQuerier(q),
		WithMutator(&stubMutator{}),
		WithOnIDChanged(func(id any) { changed = id }),
	)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	s.Change("id", 43)
	payload, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if payload.Where["id"] != 42 {
		t.Fatalf("where clause must target the original id, got %v", payload.Where)
	}
	if changed != int64(43) || s.ID() != int64(43) {
		t.Fatalf("expected id change to 43, callback=%v session=%v", changed, s.ID())
	}
}

func TestUpdateSession_StaleFetchDiscarded(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	q := &stubQuerier{
		records: map[any]map[string]any{
			1: {"id": int64(1), "name": "Old"},
			2: {"id": int64(2), "name": "New"},
		},
		gate:    map[any]chan struct{}{1: gate},
		started: make(chan any, 2),
	}
	s := newSession(t, form.ModeUpdate, WithID(1), WithQuerier(q))

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()
	<-q.started

	s.SetID(2)
	if got, _ := s.Value("name"); got != "" {
		t.Fatalf("SetID must re-synthesize defaults first, got %v", got)
	}
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load new record: %v", err)
	}
	<-q.started

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("stale load: %v", err)
	}

	if got, _ := s.Value("name"); got != "New" {
		t.Fatalf("stale record overwrote the current one: %v", got)
	}
	if s.ID() != 2 || s.State() != StateReady {
		t.Fatalf("unexpected id/state %v %s", s.ID(), s.State())
	}
}

func TestUpdateSession_SubmitFinishingAfterSetIDKeepsNewRecord(t *testing.T) {
	t.Parallel()

	q := &stubQuerier{records: map[any]map[string]any{
		1: {"id": int64(1), "name": "Old"},
		2: {"id": int64(2), "name": "New"},
	}}
	m := &stubMutator{gate: make(chan struct{}), started: make(chan struct{}, 1)}
	var submitted map[string]any
	s := newSession(t, form.ModeUpdate,
		WithID(1),
		WithQuerier(q),
		WithMutator(m),
		WithOnSubmit(func(p map[string]any) { submitted = p }),
	)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	s.Change("name", "Edited")

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background())
		done <- err
	}()
	<-m.started

	s.SetID(2)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load new record: %v", err)
	}
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight while the first submit runs, got %v", err)
	}

	close(m.gate)
	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}

	if got, _ := s.Value("name"); got != "New" {
		t.Fatalf("finished submit overwrote the new record: %v", got)
	}
	if s.ID() != 2 || s.State() != StateReady {
		t.Fatalf("unexpected id/state %v %s", s.ID(), s.State())
	}
	if s.IsDirty() {
		t.Fatalf("new record must load clean, dirty=%v", s.Dirty())
	}
	want := map[string]any{
		"where": map[string]any{"id": 1},
		"data":  map[string]any{"name": "Edited"},
	}
	if diff := cmp.Diff(want, submitted); diff != "" {
		t.Fatalf("onSubmit payload mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_ChangeAndCascadeObservedTogether(t *testing.T) {
	t.Parallel()

	s := newSession(t, form.ModeCreate)
	handler := func(name string) form.ChangeHandler {
		b, err := s.Binding(name)
		if err != nil {
			t.Fatalf("binding %s: %v", name, err)
		}
		return tree.Compose(b.OnChange, b.Cascade)
	}
	setSub, setCategory := handler("subCategory"), handler("category")

	const rounds = 500
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < rounds; i++ {
			setSub(fmt.Sprintf("s%d", i))
			setCategory(fmt.Sprintf("%d", i))
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
		}
		values := s.Values()
		category, sub := values["category"], values["subCategory"]
		if sub != nil && sub == fmt.Sprintf("s%v", category) {
			t.Fatalf("category %v committed without resetting subCategory %v", category, sub)
		}
	}
}

func TestSubmit_ExclusiveWhileInFlight(t *testing.T) {
	t.Parallel()

	m := &stubMutator{gate: make(chan struct{}), started: make(chan struct{}, 1)}
	s := newSession(t, form.ModeCreate, WithMutator(m))
	s.Change("name", "Drill")

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background())
		done <- err
	}()
	<-m.started

	if s.State() != StateSubmitting {
		t.Fatalf("expected submitting state, got %s", s.State())
	}
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}
	view, _ := s.Render()
	if !view.Submit.Loading {
		t.Fatalf("submit control must show loading while submitting")
	}

	close(m.gate)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if s.State() != StateIdle {
		t.Fatalf("create session must return to idle, got %s", s.State())
	}
}

func TestSubmit_ValidationFailureSkipsBoundary(t *testing.T) {
	t.Parallel()

	m := &stubMutator{}
	s := newSession(t, form.ModeCreate, WithMutator(m))
	s.Change("status", "bogus")

	_, err := s.Submit(context.Background())
	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(m.creates) != 0 {
		t.Fatalf("mutation boundary must not be called on invalid input")
	}

	view, _ := s.Render()
	if !strings.HasPrefix(view.Errors, "Errors: ") || !strings.Contains(view.Errors, "status") {
		t.Fatalf("expected aggregated errors, got %q", view.Errors)
	}

	s.Change("status", "draft")
	if _, ok := s.FieldErrors()["status"]; ok {
		t.Fatalf("editing a field must clear its error")
	}
}

func TestSubmit_BoundaryFailureKeepsEdits(t *testing.T) {
	t.Parallel()

	q := &stubQuerier{records: map[any]map[string]any{42: {"id": int64(42), "name": "Drill"}}}
	m := &stubMutator{err: errors.New("conflict")}
	s := newSession(t, form.ModeUpdate, WithID(42), WithQuerier(q), WithMutator(m))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	s.Change("name", "Hammer")

	_, err := s.Submit(context.Background())
	var submitErr *SubmitError
	if !errors.As(err, &submitErr) || submitErr.Mode != form.ModeUpdate {
		t.Fatalf("expected SubmitError, got %v", err)
	}
	if !s.Dirty()["name"] || s.State() != StateReady {
		t.Fatalf("failed submit must keep edits: dirty=%v state=%s", s.Dirty(), s.State())
	}
	if !errors.Is(s.LastError(), err) {
		t.Fatalf("LastError must report the failure")
	}
}

func TestSubmit_OverrideCreateSendsDataAndInvalidates(t *testing.T) {
	t.Parallel()

	cache := &stubCache{keys: []QueryKey{
		{testsupport.ItemModel, "findMany"},
		{testsupport.PersonModel, "findMany"},
		{"findUnique", testsupport.ItemModel, "42"},
	}}
	var sent, submitted map[string]any
	s := newSession(t, form.ModeCreate,
		WithCache(cache),
		WithOverrideSubmit(func(ctx context.Context, payload map[string]any) error {
			sent = payload
			return nil
		}),
		WithOnSubmit(func(p map[string]any) { submitted = p }),
	)
	s.Change("name", "Drill")

	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	want := map[string]any{"name": "Drill", "status": "draft", "inStock": false}
	if diff := cmp.Diff(want, sent); diff != "" {
		t.Fatalf("override payload mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, submitted); diff != "" {
		t.Fatalf("onSubmit payload mismatch (-want +got):\n%s", diff)
	}
	wantKeys := []QueryKey{{testsupport.ItemModel, "findMany"}, {"findUnique", testsupport.ItemModel, "42"}}
	if diff := cmp.Diff(wantKeys, cache.invalidated); diff != "" {
		t.Fatalf("invalidated keys mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmit_OverrideUpdateSendsWhereAndData(t *testing.T) {
	t.Parallel()

	q := &stubQuerier{records: map[any]map[string]any{42: {"id": int64(42), "name": "Drill"}}}
	m := &stubMutator{}
	cache := &stubCache{keys: []QueryKey{
		{testsupport.ItemModel, "findMany"},
		{testsupport.PersonModel, "findMany"},
	}}
	var sent map[string]any
	s := newSession(t, form.ModeUpdate,
		WithID(42),
		WithQuerier(q),
		WithMutator(m),
		WithCache(cache),
		WithOverrideSubmit(func(ctx context.Context, payload map[string]any) error {
			sent = payload
			return nil
		}),
	)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	s.Change("name", "Hammer")

	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	want := map[string]any{
		"where": map[string]any{"id": 42},
		"data":  map[string]any{"name": "Hammer"},
	}
	if diff := cmp.Diff(want, sent); diff != "" {
		t.Fatalf("override payload mismatch (-want +got):\n%s", diff)
	}
	if len(m.updates) != 0 || len(m.creates) != 0 {
		t.Fatalf("override submit must bypass the mutator, got %d updates %d creates", len(m.updates), len(m.creates))
	}
	wantKeys := []QueryKey{{testsupport.ItemModel, "findMany"}}
	if diff := cmp.Diff(wantKeys, cache.invalidated); diff != "" {
		t.Fatalf("invalidated keys mismatch (-want +got):\n%s", diff)
	}
	if s.IsDirty() {
		t.Fatalf("successful override submit must commit the baseline")
	}
}

func TestHandleKey_RevertRestoresFocusAfterTick(t *testing.T) {
	t.Parallel()

	q := &stubQuerier{records: map[any]map[string]any{42: {"id": int64(42), "name": "Drill"}}}
	focus := &stubFocus{active: "name"}
	scheduler := &manualScheduler{}
	s := newSession(t, form.ModeUpdate, WithID(42), WithQuerier(q), WithFocus(focus), WithScheduler(scheduler))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	s.Change("name", "Hammer")

	handled, err := s.HandleKey(context.Background(), "Ctrl+Backspace")
	if !handled || err != nil {
		t.Fatalf("revert not handled: %v %v", handled, err)
	}
	if got, _ := s.Value("name"); got != "Drill" {
		t.Fatalf("revert must restore the baseline, got %v", got)
	}
	if len(focus.focused) != 0 {
		t.Fatalf("focus must be restored after a tick, not synchronously")
	}
	scheduler.Tick()
	if diff := cmp.Diff([]string{"name"}, focus.focused); diff != "" {
		t.Fatalf("focus mismatch (-want +got):\n%s", diff)
	}

	if handled, _ := s.HandleKey(context.Background(), "alt+x"); handled {
		t.Fatalf("unbound combos must not be handled")
	}
}

func TestHandleKey_SaveSubmits(t *testing.T) {
	t.Parallel()

	q := &stubQuerier{records: map[any]map[string]any{42: {"id": int64(42), "name": "Drill"}}}
	m := &stubMutator{}
	s := newSession(t, form.ModeUpdate, WithID(42), WithQuerier(q), WithMutator(m))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	s.Change("name", "Hammer")

	if handled, err := s.HandleKey(context.Background(), KeySave); !handled || err != nil {
		t.Fatalf("save not handled: %v %v", handled, err)
	}
	if len(m.updates) != 1 {
		t.Fatalf("expected one update, got %d", len(m.updates))
	}

	create := newSession(t, form.ModeCreate, WithMutator(m))
	if handled, _ := create.HandleKey(context.Background(), KeySave); handled {
		t.Fatalf("create forms bind no shortcuts")
	}
}

func TestRender_MissingElementMapping(t *testing.T) {
	t.Parallel()

	host := testHost()
	delete(host.Elements, "Boolean")
	s := newSession(t, form.ModeCreate, WithHost(host))

	view, err := s.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(view.ConfigErrors) != 1 || !errors.Is(view.ConfigErrors[0], form.ErrElementMapping) {
		t.Fatalf("expected one element mapping error, got %v", view.ConfigErrors)
	}

	var alert *tree.Element
	for _, node := range view.Fields {
		if el, ok := node.(*tree.Element); ok && el.StringProp(form.PropClassName) == tree.ErrorClass {
			alert = el
		}
	}
	if alert == nil || !strings.Contains(string(alert.Children[0].(tree.Text)), "inStock") {
		t.Fatalf("expected an error element naming inStock, got %+v", alert)
	}
	if len(view.Fields) != 9 {
		t.Fatalf("the remaining fields must still render, got %d", len(view.Fields))
	}
}

func TestRender_LayoutPlaceholdersClaimFields(t *testing.T) {
	t.Parallel()

	s := newSession(t, form.ModeCreate, WithLayout(
		tree.El("fieldset", nil,
			tree.SlotFor("name"),
			tree.Custom("status", tree.El("radio-group", map[string]any{form.PropLabel: "State"})),
			tree.SlotFor("createdAt"),
		),
	))

	view, err := s.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, name := range fieldNames(view.Fields) {
		if name == "name" || name == "status" {
			t.Fatalf("%s is placed by the layout and must not be generated", name)
		}
	}

	fieldset := view.Layout[0].(*tree.Element)
	if len(fieldset.Children) != 2 {
		t.Fatalf("hidden slot must render nothing, got %d children", len(fieldset.Children))
	}
	status := fieldset.Children[1].(*tree.Element)
	if status.Tag != "radio-group" || status.Prop(form.PropLabel) != "State" || status.Prop(form.PropAutofocus) != false {
		t.Fatalf("unexpected custom field %+v", status)
	}

	status.Handler()("published")
	if got, _ := s.Value("status"); got != "published" {
		t.Fatalf("custom field handler must commit the value, got %v", got)
	}
}

func TestRender_MalformedCustomFieldFails(t *testing.T) {
	t.Parallel()

	s := newSession(t, form.ModeCreate, WithLayout(
		tree.Custom("name", tree.El("input", nil), tree.El("input", nil)),
	))
	if _, err := s.Render(); !errors.Is(err, tree.ErrCustomFieldChildren) {
		t.Fatalf("expected ErrCustomFieldChildren, got %v", err)
	}
}
