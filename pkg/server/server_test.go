package server_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-modelform/pkg/form"
	"github.com/goliatone/go-modelform/pkg/querycache"
	"github.com/goliatone/go-modelform/pkg/render"
	"github.com/goliatone/go-modelform/pkg/renderers/html"
	"github.com/goliatone/go-modelform/pkg/renderers/tui"
	"github.com/goliatone/go-modelform/pkg/schema"
	"github.com/goliatone/go-modelform/pkg/server"
	"github.com/goliatone/go-modelform/pkg/store/memory"
	"github.com/goliatone/go-modelform/pkg/testsupport"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	handler http.Handler
	db      *memory.Store
	clock   *clock
	server  *server.Server
}

func newFixture(t *testing.T, options ...server.Option) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg := testsupport.Registry(t)
	db := memory.New(reg, memory.WithLogger(logger))
	require.NoError(t, db.Seed(testsupport.PersonModel, testsupport.People()...))

	cache := querycache.New(querycache.WithLogger(logger))
	querier, err := querycache.Wrap(db, cache)
	require.NoError(t, err)

	htmlRenderer, err := html.New(html.WithLogger(logger))
	require.NoError(t, err)
	renderers, err := render.NewRegistry(htmlRenderer, tui.TextRenderer{})
	require.NoError(t, err)

	clk := &clock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	base := []server.Option{
		server.WithRenderers(renderers),
		server.WithQuerier(querier),
		server.WithMutator(querycache.WrapMutator(db, cache)),
		server.WithCache(cache),
		server.WithHost(html.DefaultHost()),
		server.WithClock(clk.Now),
		server.WithLogger(logger),
	}
	srv, err := server.New(reg, append(base, options...)...)
	require.NoError(t, err)
	return fixture{handler: srv.Handler(), db: db, clock: clk, server: srv}
}

func (f fixture) do(t *testing.T, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" && header["Content-Type"] == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range header {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f fixture) open(t *testing.T, model, body string) server.FormState {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/models/"+model+"/forms", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	st := decodeState(t, rec)
	assert.Equal(t, "/forms/"+st.Session, rec.Header().Get("Location"))
	return st
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) server.FormState {
	t.Helper()
	var st server.FormState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st
}

func TestServer_CreateChangeSubmit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	st := f.open(t, testsupport.ItemModel, "")
	assert.Equal(t, "create", string(st.Mode))
	assert.Equal(t, "idle", string(st.State))
	assert.Equal(t, "draft", st.Values["status"])
	assert.Empty(t, st.Dirty)

	base := "/forms/" + st.Session
	rec := f.do(t, http.MethodPut, base+"/fields/subCategory", `{"value":"saws"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	for _, change := range []struct{ field, body string }{
		{"name", `{"value":"Drill"}`},
		{"category", `{"value":"tools"}`},
		{"subCategory", `{"value":"saws"}`},
		{"category", `{"value":"garden"}`},
		{"ownerId", `{"value":8}`},
		{"inStock", `{"value":true}`},
	} {
		rec = f.do(t, http.MethodPut, base+"/fields/"+change.field, change.body, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	st = decodeState(t, rec)
	assert.Nil(t, st.Values["subCategory"])
	assert.Equal(t, []string{"category", "inStock", "name", "ownerId"}, st.Dirty)

	rec = f.do(t, http.MethodPut, base+"/fields/owner", `{"value":1}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, base+"/submit", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result server.SubmitResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Drill", result.Payload.Data["name"])
	assert.Nil(t, result.Payload.Where)
	assert.Empty(t, result.Form.Dirty)

	record, err := f.db.FindUnique(context.Background(), testsupport.ItemModel, map[string]any{"id": int64(1)})
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Drill", record["name"])
	assert.Equal(t, "garden", record["category"])
	assert.Equal(t, int64(8), record["ownerId"])
	assert.Equal(t, true, record["inStock"])
}

func TestServer_SubmitValidationError(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	st := f.open(t, testsupport.ItemModel, `{"mode":"create"}`)
	rec := f.do(t, http.MethodPost, "/forms/"+st.Session+"/submit", "", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Code   string              `json:"code"`
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Equal(t, []string{"Required"}, body.Errors["name"])

	rec = f.do(t, http.MethodGet, "/forms/"+st.Session, "", nil)
	assert.Equal(t, []string{"Required"}, decodeState(t, rec).Errors["name"])
}

func TestServer_UpdateForm(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	require.NoError(t, f.db.Seed(testsupport.ItemModel, map[string]any{
		"id": int64(1), "name": "Drill", "status": "published", "inStock": true,
	}))

	rec := f.do(t, http.MethodPost, "/models/Item/forms", `{"mode":"update","id":99}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodPost, "/models/Item/forms", `{"mode":"update"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	st := f.open(t, testsupport.ItemModel, `{"mode":"update","id":1}`)
	assert.Equal(t, "ready", string(st.State))
	assert.Equal(t, "Drill", st.Values["name"])
	assert.EqualValues(t, 1, st.ID)

	base := "/forms/" + st.Session
	rec = f.do(t, http.MethodPut, base+"/fields/name", `{"value":"Hammer"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, base+"/submit", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result server.SubmitResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, map[string]any{"name": "Hammer"}, result.Payload.Data)
	assert.Equal(t, map[string]any{"id": float64(1)}, result.Payload.Where)

	record, err := f.db.FindUnique(context.Background(), testsupport.ItemModel, map[string]any{"id": int64(1)})
	require.NoError(t, err)
	assert.Equal(t, "Hammer", record["name"])
	assert.Equal(t, "published", record["status"])
}

func TestServer_RevertAndDiscard(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	st := f.open(t, testsupport.ItemModel, "")
	base := "/forms/" + st.Session
	rec := f.do(t, http.MethodPut, base+"/fields/name", `{"value":"Drill"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"name"}, decodeState(t, rec).Dirty)

	rec = f.do(t, http.MethodPost, base+"/revert", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st = decodeState(t, rec)
	assert.Empty(t, st.Dirty)
	assert.Nil(t, st.Values["name"])

	rec = f.do(t, http.MethodDelete, base, "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodGet, base, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodDelete, base, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_HTMLFormPost(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	st := f.open(t, testsupport.ItemModel, "")
	base := "/forms/" + st.Session

	rec := f.do(t, http.MethodGet, base+"?format=html", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	page := rec.Body.String()
	assert.Contains(t, page, `action="/forms/`+st.Session+`/submit"`)
	assert.Contains(t, page, `<input type="hidden" name="_session" value="`+st.Session+`">`)
	assert.Contains(t, page, `<option value="8">Grace</option>`)

	formHeader := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}

	invalid := url.Values{"name": {""}, "status": {"draft"}}
	rec = f.do(t, http.MethodPost, base+"/submit", invalid.Encode(), formHeader)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Required")

	valid := url.Values{
		"_session": {st.Session},
		"id":       {""},
		"name":     {"Drill"},
		"status":   {"draft"},
		"inStock":  {"on"},
		"price":    {"12.5"},
		"ownerId":  {"8"},
	}
	rec = f.do(t, http.MethodPost, base+"/submit", valid.Encode(), formHeader)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `<option value="8" selected>Grace</option>`)

	record, err := f.db.FindUnique(context.Background(), testsupport.ItemModel, map[string]any{"id": int64(1)})
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Drill", record["name"])
	assert.Equal(t, true, record["inStock"])
	assert.Equal(t, 12.5, record["price"])
	assert.Equal(t, int64(8), record["ownerId"])
}

func TestServer_Formats(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	st := f.open(t, testsupport.ItemModel, "")
	base := "/forms/" + st.Session

	rec := f.do(t, http.MethodGet, base, "", map[string]string{"Accept": "text/plain"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "create Item [idle]\n"), rec.Body.String())

	rec = f.do(t, http.MethodGet, base, "", map[string]string{"Accept": "text/html"})
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = f.do(t, http.MethodGet, base+"?format=pdf", "", nil)
	assert.Equal(t, http.StatusNotAcceptable, rec.Code)
}

func TestServer_Routing(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/models", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"models":["Category","Item","Person"]}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/models/Ghost/forms", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/models/Item/forms", `{"mode":"upsert"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/forms/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_SessionExpiryAndLimit(t *testing.T) {
	t.Parallel()
	f := newFixture(t, server.WithSessionTTL(time.Minute), server.WithMaxSessions(2))

	first := f.open(t, testsupport.ItemModel, "")
	f.clock.Advance(30 * time.Second)
	second := f.open(t, testsupport.ItemModel, "")
	f.clock.Advance(10 * time.Second)

	rec := f.do(t, http.MethodGet, "/forms/"+first.Session, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	f.open(t, testsupport.ItemModel, "")
	assert.Equal(t, 2, f.server.Sessions())
	rec = f.do(t, http.MethodGet, "/forms/"+second.Session, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.clock.Advance(2 * time.Minute)
	rec = f.do(t, http.MethodGet, "/forms/"+first.Session, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, f.server.Sessions())
}

type boundedSchemas struct {
	t *testing.T
}

func (b boundedSchemas) Schema(model string, mode form.Mode) (*schema.Object, error) {
	m := testsupport.Model(b.t, testsupport.Registry(b.t), model)
	options := []schema.DeriveOption{schema.WithBaseRule("name", &schema.String{MinLength: 3})}
	if mode == form.ModeCreate {
		options = append(options, schema.ForCreate())
	}
	return schema.FromModel(m, options...), nil
}

func TestServer_SchemaSource(t *testing.T) {
	t.Parallel()
	f := newFixture(t, server.WithSchemas(boundedSchemas{t: t}))

	st := f.open(t, testsupport.ItemModel, "")
	base := "/forms/" + st.Session
	rec := f.do(t, http.MethodPut, base+"/fields/name", `{"value":"ab"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, base+"/submit", "", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decodeState(t, f.do(t, http.MethodGet, base, "", nil)).Errors["name"])
}

func TestServer_PickerOptions(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	st := f.open(t, testsupport.ItemModel, "")
	base := "/forms/" + st.Session + "/fields/"

	rec := f.do(t, http.MethodGet, base+"ownerId/options?q=a", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp server.OptionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	labels := make([]string, 0, len(resp.Data))
	for _, option := range resp.Data {
		labels = append(labels, option.Label)
	}
	assert.Equal(t, []string{"Ada", "Grace"}, labels)

	rec = f.do(t, http.MethodGet, base+"ownerId/options?q=a&limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Ada", resp.Data[0].Label)

	rec = f.do(t, http.MethodGet, base+"ownerId/options?q=zz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, base+"name/options", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodGet, base+"missing/options", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
