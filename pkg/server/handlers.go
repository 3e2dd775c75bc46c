package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/goliatone/go-modelform/pkg/form"
	"github.com/goliatone/go-modelform/pkg/metadata"
	"github.com/goliatone/go-modelform/pkg/render"
	"github.com/goliatone/go-modelform/pkg/schema"
	"github.com/goliatone/go-modelform/pkg/session"
	"github.com/goliatone/go-modelform/pkg/store"
)

// FormatJSON selects the session state document instead of a renderer.
const FormatJSON = "json"

type createFormRequest struct {
	Mode form.Mode `json:"mode"`
	ID   any       `json:"id"`
}

type changeRequest struct {
	Value any `json:"value"`
}

// FormState is the JSON document describing a session.
type FormState struct {
	Session string              `json:"session"`
	Model   string              `json:"model"`
	Mode    form.Mode           `json:"mode"`
	State   session.State       `json:"state"`
	ID      any                 `json:"id,omitempty"`
	Values  map[string]any      `json:"values"`
	Dirty   []string            `json:"dirty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// SubmitResult is returned by a successful JSON submit.
type SubmitResult struct {
	Payload form.Payload `json:"payload"`
	Form    FormState    `json:"form"`
}

// handleListModels returns the model names forms can be opened for.
// GET /models
func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string][]string{"models": s.registry.Models()})
}

// handleCreateForm opens a session for a model.
// POST /models/{model}/forms
func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	modelName := chi.URLParam(r, "model")
	model, err := s.registry.Model(modelName)
	if err != nil {
		writeError(w, s.logger, http.StatusNotFound, "UNKNOWN_MODEL", err.Error())
		return
	}

	var req createFormRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, s.logger, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.Mode == "" {
		req.Mode = form.ModeCreate
	}
	req.ID = plain(req.ID)

	if req.Mode == form.ModeUpdate {
		if req.ID == nil {
			writeError(w, s.logger, http.StatusBadRequest, "MISSING_ID", "update forms require an id")
			return
		}
		if s.querier != nil {
			idField, err := model.IDField()
			if err != nil {
				writeError(w, s.logger, http.StatusInternalServerError, "INVALID_MODEL", err.Error())
				return
			}
			record, err := s.querier.FindUnique(r.Context(), model.Name(), map[string]any{idField.Name: req.ID})
			if err != nil {
				s.boundaryError(w, err)
				return
			}
			if record == nil {
				writeError(w, s.logger, http.StatusNotFound, "NOT_FOUND", "record not found")
				return
			}
		}
	}

	options := []session.Option{
		session.WithHost(s.host),
		session.WithQuerier(s.querier),
		session.WithMutator(s.mutator),
		session.WithCache(s.cache),
		session.WithID(req.ID),
		session.WithLogger(s.logger),
	}
	if s.schemas != nil && (req.Mode == form.ModeCreate || req.Mode == form.ModeUpdate) {
		rule, err := s.schemas.Schema(model.Name(), req.Mode)
		if err != nil {
			writeError(w, s.logger, http.StatusInternalServerError, "INVALID_SCHEMA", err.Error())
			return
		}
		options = append(options, session.WithSchema(rule))
	}

	sess, err := session.New(s.registry, model.Name(), req.Mode, options...)
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "INVALID_FORM", err.Error())
		return
	}
	if err := sess.Load(r.Context()); err != nil && !errors.Is(err, session.ErrNoQuerier) {
		s.boundaryError(w, err)
		return
	}

	id := s.sessions.add(sess)
	s.logger.Debug("modelform/server: session opened", "session", id, "model", model.Name(), "mode", req.Mode)
	w.Header().Set("Location", "/forms/"+id.String())
	writeJSON(w, s.logger, http.StatusCreated, formState(id, sess))
}

// handleView renders a session. The format comes from the format query
// parameter or the Accept header and defaults to JSON.
// GET /forms/{session}
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	format := negotiate(r)
	if format == FormatJSON {
		writeJSON(w, s.logger, http.StatusOK, formState(id, sess))
		return
	}
	s.renderView(w, r, id, sess, format, http.StatusOK)
}

// handleDiscard drops a session.
// DELETE /forms/{session}
func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseSessionID(w, r)
	if !ok {
		return
	}
	if !s.sessions.remove(id) {
		writeError(w, s.logger, http.StatusNotFound, "SESSION_NOT_FOUND", ErrSessionNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleChange commits one field value and its cascade.
// PUT /forms/{session}/fields/{field}
func (s *Server) handleChange(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "field")
	field, ok := sess.Model().Field(name)
	if !ok || field.IsDataModel || field.IsArray {
		writeError(w, s.logger, http.StatusNotFound, "UNKNOWN_FIELD", "unknown field "+name)
		return
	}
	if form.Disabled(field, sess.Values()) {
		writeError(w, s.logger, http.StatusConflict, "FIELD_DISABLED", name+" depends on unset fields")
		return
	}

	var req changeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	sess.Change(name, plain(req.Value))
	writeJSON(w, s.logger, http.StatusOK, formState(id, sess))
}

// handleRevert restores the committed values.
// POST /forms/{session}/revert
func (s *Server) handleRevert(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Revert()
	writeJSON(w, s.logger, http.StatusOK, formState(id, sess))
}

// handleSubmit validates and saves the session. URL-encoded bodies are
// applied as field changes first and answered with the re-rendered HTML form.
// POST /forms/{session}/submit
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	posted := isFormPost(r)
	if posted {
		if err := r.ParseForm(); err != nil {
			writeError(w, s.logger, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		applyForm(sess, r.PostForm)
	}

	payload, err := sess.Submit(r.Context())
	if err != nil {
		var verr *schema.ValidationError
		switch {
		case errors.As(err, &verr) && posted:
			s.renderView(w, r, id, sess, "html", http.StatusUnprocessableEntity)
		case errors.As(err, &verr):
			writeJSON(w, s.logger, http.StatusUnprocessableEntity, map[string]any{
				"error":  err.Error(),
				"code":   "VALIDATION_ERROR",
				"errors": sess.FieldErrors(),
			})
		case errors.Is(err, session.ErrSubmitInFlight):
			writeError(w, s.logger, http.StatusConflict, "SUBMIT_IN_FLIGHT", err.Error())
		case errors.Is(err, session.ErrNoMutator):
			writeError(w, s.logger, http.StatusNotImplemented, "READ_ONLY", err.Error())
		default:
			s.boundaryError(w, err)
		}
		return
	}

	if posted {
		s.renderView(w, r, id, sess, "html", http.StatusOK)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, SubmitResult{Payload: payload, Form: formState(id, sess)})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (uuid.UUID, *session.Session, bool) {
	id, ok := s.parseSessionID(w, r)
	if !ok {
		return uuid.Nil, nil, false
	}
	sess, err := s.sessions.get(id)
	if err != nil {
		writeError(w, s.logger, http.StatusNotFound, "SESSION_NOT_FOUND", err.Error())
		return uuid.Nil, nil, false
	}
	return id, sess, true
}

func (s *Server) renderView(w http.ResponseWriter, r *http.Request, id uuid.UUID, sess *session.Session, format string, status int) {
	renderer, err := s.renderers.Get(format)
	if err != nil {
		writeError(w, s.logger, http.StatusNotAcceptable, "UNKNOWN_FORMAT", err.Error())
		return
	}
	view, err := sess.Render()
	if err != nil {
		s.logger.Error("modelform/server: render view", "session", id, "error", err)
		writeError(w, s.logger, http.StatusInternalServerError, "RENDER_FAILED", err.Error())
		return
	}
	for _, cfgErr := range view.ConfigErrors {
		s.logger.Warn("modelform/server: field configuration error", "session", id, "error", cfgErr)
	}

	out, err := renderer.Render(r.Context(), view, render.Options{
		Action: "/forms/" + id.String() + "/submit",
		Hidden: []render.HiddenField{render.SessionField(id.String())},
		Errors: sess.FieldErrors(),
	})
	if err != nil {
		s.logger.Error("modelform/server: render output", "session", id, "renderer", renderer.Name(), "error", err)
		writeError(w, s.logger, http.StatusInternalServerError, "RENDER_FAILED", err.Error())
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(status)
	if _, err := w.Write(out); err != nil {
		s.logger.Debug("modelform/server: write response", "error", err)
	}
}

// boundaryError maps querier and mutator failures to HTTP responses.
func (s *Server) boundaryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, s.logger, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, store.ErrConflict):
		writeError(w, s.logger, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, store.ErrUnsupportedRelation):
		writeError(w, s.logger, http.StatusBadRequest, "UNSUPPORTED_RELATION", err.Error())
	default:
		s.logger.Error("modelform/server: boundary failure", "error", err)
		writeError(w, s.logger, http.StatusBadGateway, "BOUNDARY_FAILED", err.Error())
	}
}

func formState(id uuid.UUID, sess *session.Session) FormState {
	dirty := []string{}
	for name, isDirty := range sess.Dirty() {
		if isDirty {
			dirty = append(dirty, name)
		}
	}
	sort.Strings(dirty)
	return FormState{
		Session: id.String(),
		Model:   sess.Model().Name(),
		Mode:    sess.Mode(),
		State:   sess.State(),
		ID:      sess.ID(),
		Values:  map[string]any(sess.Values()),
		Dirty:   dirty,
		Errors:  sess.FieldErrors(),
	}
}

func negotiate(r *http.Request) string {
	if format := r.URL.Query().Get("format"); format != "" {
		return strings.ToLower(format)
	}
	accept := r.Header.Get("Accept")
	switch {
	case strings.Contains(accept, "text/html"):
		return "html"
	case strings.Contains(accept, "text/plain"):
		return "text"
	default:
		return FormatJSON
	}
}

func isFormPost(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	return strings.HasPrefix(contentType, "application/x-www-form-urlencoded")
}

// applyForm commits posted values in model order so a parent change resets
// its dependents before their posted values land. Unchecked checkboxes are
// absent from the body and read as false; disabled inputs are never posted.
func applyForm(sess *session.Session, posted url.Values) {
	for _, field := range sess.Model().Fields() {
		if field.Hidden || field.IsDataModel || field.IsArray {
			continue
		}
		values := sess.Values()
		if form.Disabled(field, values) {
			continue
		}
		raw, present := posted[field.Name]
		if !present && field.Type != metadata.FieldTypeBoolean {
			continue
		}
		value := formValue(field, first(raw), present)
		current := values[field.Name]
		if current == nil && value == "" {
			continue
		}
		if !form.Equal(current, value) {
			sess.Change(field.Name, value)
		}
	}
}

func formValue(field metadata.Field, raw string, present bool) any {
	switch {
	case field.Type == metadata.FieldTypeBoolean:
		return present && raw != "" && raw != "false" && raw != "0"
	case field.Type.IsNumeric() && raw != "":
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}
	return raw
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// plain converts json.Number values decoded by decodeJSON to int64 or
// float64.
func plain(value any) any {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = plain(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plain(item)
		}
		return out
	default:
		return value
	}
}
