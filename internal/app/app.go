package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/goliatone/go-modelform"
	"github.com/goliatone/go-modelform/internal/config"
	"github.com/goliatone/go-modelform/pkg/form"
	pkgopenapi "github.com/goliatone/go-modelform/pkg/openapi"
	"github.com/goliatone/go-modelform/pkg/querycache"
	"github.com/goliatone/go-modelform/pkg/render"
	"github.com/goliatone/go-modelform/pkg/renderers/html"
	"github.com/goliatone/go-modelform/pkg/renderers/tui"
	"github.com/goliatone/go-modelform/pkg/server"
	"github.com/goliatone/go-modelform/pkg/session"
	"github.com/goliatone/go-modelform/pkg/store/gormstore"
	"github.com/goliatone/go-modelform/pkg/store/memory"
)

// schemaFetchTimeout bounds remote schema downloads.
const schemaFetchTimeout = 30 * time.Second

// App is the wired runtime shared by the server and CLI commands.
type App struct {
	Catalog   *modelform.Catalog
	Querier   session.Querier
	Mutator   session.Mutator
	Cache     *querycache.Store
	Renderers *render.Registry
	Host      session.HostConfig
	Logger    *slog.Logger

	memory *memory.Store
	close  func() error
}

// Open loads the catalog, connects the configured store and builds the
// renderers.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = cfg.Log.Logger()
	}

	catalog, err := modelform.LoadCatalog(ctx, cfg.Schema.Source, cfg.Schema.Format,
		modelform.WithLogger(logger),
		modelform.WithLoaderOptions(pkgopenapi.WithHTTPFallback(schemaFetchTimeout)),
	)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", cfg.Schema.Source, err)
	}

	a := &App{
		Catalog: catalog,
		Host:    html.DefaultHost(),
		Logger:  logger,
		close:   func() error { return nil },
	}
	if cfg.Host.ClassName != "" {
		a.Host.GlobalClassName = cfg.Host.ClassName
	}

	if err := a.openStore(ctx, cfg.Database); err != nil {
		return nil, err
	}
	if cfg.Cache.Enabled {
		a.Cache = querycache.New(
			querycache.WithMaxEntries(cfg.Cache.MaxEntries),
			querycache.WithLogger(logger),
		)
		cached, err := querycache.Wrap(a.Querier, a.Cache)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Querier = cached
		a.Mutator = querycache.WrapMutator(a.Mutator, a.Cache)
	}

	htmlRenderer, err := html.New(html.WithLogger(logger))
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Renderers, err = render.NewRegistry(htmlRenderer, tui.TextRenderer{})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) openStore(ctx context.Context, db config.DatabaseConfig) error {
	registry := a.Catalog.Registry
	if db.Driver == config.DriverMemory {
		a.memory = memory.New(registry, memory.WithLogger(a.Logger))
		a.Querier = a.memory
		a.Mutator = a.memory
		return nil
	}

	dialector, err := gormstore.Dialector(db.Driver, db.DSN())
	if err != nil {
		return err
	}
	st, err := gormstore.Open(dialector, registry, &gorm.Config{}, gormstore.WithLogger(a.Logger))
	if err != nil {
		return err
	}
	sqlDB, err := st.DB().DB()
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("access connection pool: %w", err)
	}
	sqlDB.SetMaxIdleConns(db.MaxIdleConns)
	sqlDB.SetMaxOpenConns(db.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(db.MaxConnLifetimeSeconds) * time.Second)

	if db.Migrate {
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return err
		}
	}
	a.Querier = st
	a.Mutator = st
	a.close = st.Close
	a.Logger.Info("connected record store", "driver", db.Driver)
	return nil
}

// Seed inserts records into the in-memory store. It fails for database
// drivers.
func (a *App) Seed(model string, records ...map[string]any) error {
	if a.memory == nil {
		return errors.New("seeding requires the memory driver")
	}
	return a.memory.Seed(model, records...)
}

// SeedFile loads a YAML or JSON document mapping model names to record lists
// into the in-memory store.
func (a *App) SeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var doc map[string][]map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse seed file %s: %w", path, err)
	}
	models := make([]string, 0, len(doc))
	for model := range doc {
		models = append(models, model)
	}
	sort.Strings(models)
	for _, model := range models {
		if err := a.Seed(model, doc[model]...); err != nil {
			return fmt.Errorf("seed %s: %w", model, err)
		}
	}
	return nil
}

// NewSession opens a form session wired to the app boundaries.
func (a *App) NewSession(model string, mode form.Mode, options ...session.Option) (*session.Session, error) {
	base := []session.Option{
		session.WithHost(a.Host),
		session.WithQuerier(a.Querier),
		session.WithMutator(a.Mutator),
		session.WithLogger(a.Logger),
	}
	if a.Cache != nil {
		base = append(base, session.WithCache(a.Cache))
	}
	return a.Catalog.NewSession(model, mode, append(base, options...)...)
}

// Server builds the HTTP server for the app.
func (a *App) Server(cfg config.ServerConfig) (*server.Server, error) {
	options := []server.Option{
		server.WithRenderers(a.Renderers),
		server.WithQuerier(a.Querier),
		server.WithMutator(a.Mutator),
		server.WithHost(a.Host),
		server.WithSchemas(a.Catalog),
		server.WithSessionTTL(cfg.SessionTTL),
		server.WithMaxSessions(cfg.MaxSessions),
		server.WithLogger(a.Logger),
	}
	if a.Cache != nil {
		options = append(options, server.WithCache(a.Cache))
	}
	return server.New(a.Catalog.Registry, options...)
}

// Close releases the store connection.
func (a *App) Close() error {
	return a.close()
}
