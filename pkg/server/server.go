package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-modelform/pkg/form"
	"github.com/goliatone/go-modelform/pkg/metadata"
	"github.com/goliatone/go-modelform/pkg/render"
	"github.com/goliatone/go-modelform/pkg/schema"
	"github.com/goliatone/go-modelform/pkg/session"
)

// Defaults applied when the matching option is not set.
const (
	DefaultSessionTTL  = 30 * time.Minute
	DefaultMaxSessions = 1000
)

// Option customises a Server.
type Option func(*Server)

// WithRenderers sets the renderers a view request can select.
func WithRenderers(registry *render.Registry) Option {
	return func(s *Server) {
		s.renderers = registry
	}
}

// WithQuerier installs the read boundary shared by every session.
func WithQuerier(q session.Querier) Option {
	return func(s *Server) {
		s.querier = q
	}
}

// WithMutator installs the write boundary shared by every session.
func WithMutator(m session.Mutator) Option {
	return func(s *Server) {
		s.mutator = m
	}
}

// WithCache installs the cache boundary shared by every session.
func WithCache(c session.Cache) Option {
	return func(s *Server) {
		s.cache = c
	}
}

// WithHost sets the host configuration sessions render with.
func WithHost(host session.HostConfig) Option {
	return func(s *Server) {
		s.host = host
	}
}

// SchemaSource supplies the validation rule of a new session, for example
// the bounds an OpenAPI document declared.
type SchemaSource interface {
	Schema(model string, mode form.Mode) (*schema.Object, error)
}

// WithSchemas validates sessions with rules from source instead of rules
// derived from metadata alone.
func WithSchemas(source SchemaSource) Option {
	return func(s *Server) {
		s.schemas = source
	}
}

// WithSessionTTL sets how long an idle session is kept.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMaxSessions caps the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithClock replaces time.Now for session expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger routes server diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server exposes form sessions over HTTP. Each session is addressed by a
// random id and lives in memory until it is discarded or expires.
type Server struct {
	registry    *metadata.Registry
	renderers   *render.Registry
	querier     session.Querier
	mutator     session.Mutator
	cache       session.Cache
	host        session.HostConfig
	schemas     SchemaSource
	ttl         time.Duration
	maxSessions int
	now         func() time.Time
	logger      *slog.Logger

	sessions *sessions
	router   chi.Router
}

// New constructs a Server for the models in registry.
func New(registry *metadata.Registry, options ...Option) (*Server, error) {
	if registry == nil {
		return nil, errors.New("modelform/server: registry is nil")
	}
	s := &Server{
		registry:    registry,
		ttl:         DefaultSessionTTL,
		maxSessions: DefaultMaxSessions,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.renderers == nil {
		empty, err := render.NewRegistry()
		if err != nil {
			return nil, err
		}
		s.renderers = empty
	}
	s.sessions = newSessions(s.ttl, s.maxSessions, s.now)
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/models", s.handleListModels)
	r.Post("/models/{model}/forms", s.handleCreateForm)

	r.Route("/forms/{session}", func(r chi.Router) {
		r.Get("/", s.handleView)
		r.Delete("/", s.handleDiscard)
		r.Put("/fields/{field}", s.handleChange)
		r.Get("/fields/{field}/options", s.handleOptions)
		r.Post("/revert", s.handleRevert)
		r.Post("/submit", s.handleSubmit)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("modelform/server: listening", "addr", addr, "models", len(s.registry.Models()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("modelform/server: shutdown: %w", err)
		}
		return nil
	}
}

// Sessions reports the number of live sessions.
func (s *Server) Sessions() int {
	return s.sessions.len()
}
