package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/goliatone/go-modelform/pkg/form"
	"github.com/goliatone/go-modelform/pkg/metadata"
	"github.com/goliatone/go-modelform/pkg/session"
	"github.com/goliatone/go-modelform/pkg/store"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver is returned by Dialector for unsupported driver names.
var ErrUnknownDriver = errors.New("modelform/gormstore: unknown driver")

// Dialector returns the gorm dialector for driver and dsn.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite, "sqlite3":
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		return sqlite.Open(dsn), nil
	case DriverPostgres, "postgresql":
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// Option customises a Store.
type Option func(*Store)

// WithLogger routes store diagnostics to logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTableName overrides how model names map to table names. The default is
// the gorm naming strategy of the connection.
func WithTableName(fn func(model string) string) Option {
	return func(s *Store) {
		if fn != nil {
			s.tableName = fn
		}
	}
}

// Store persists form payloads through gorm using map rows, one table per
// model with one column per scalar field. It implements session.Querier and
// session.Mutator.
type Store struct {
	db        *gorm.DB
	registry  *metadata.Registry
	tableName func(string) string
	logger    *slog.Logger
}

var (
	_ session.Querier = (*Store)(nil)
	_ session.Mutator = (*Store)(nil)
)

// Open connects with the supplied dialector. gorm's own logger is silenced
// unless cfg sets one, and driver errors are always translated so duplicate
// keys surface as store.ErrConflict.
func Open(dialector gorm.Dialector, registry *metadata.Registry, cfg *gorm.Config, options ...Option) (*Store, error) {
	if cfg == nil {
		cfg = &gorm.Config{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	cfg.TranslateError = true
	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("modelform/gormstore: connect: %w", err)
	}
	return New(db, registry, options...), nil
}

// New wraps an existing connection.
func New(db *gorm.DB, registry *metadata.Registry, options ...Option) *Store {
	s := &Store{
		db:       db,
		registry: registry,
		logger:   slog.Default(),
	}
	s.tableName = func(model string) string {
		return db.NamingStrategy.TableName(model)
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// DB returns the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates a table for every registered model that does not have one.
// Existing tables are left untouched.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	for _, name := range s.registry.Models() {
		m, err := s.registry.Model(name)
		if err != nil {
			return err
		}
		table := s.tableName(name)
		if db.Migrator().HasTable(table) {
			continue
		}
		ddl, err := createTable(s.db.Dialector, table, m)
		if err != nil {
			return err
		}
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("modelform/gormstore: create table %s: %w", table, err)
		}
		s.logger.Info("modelform/gormstore: created table", "model", name, "table", table)
	}
	return nil
}

// FindMany returns every row of model ordered by identifier.
func (s *Store) FindMany(ctx context.Context, model string) ([]map[string]any, error) {
	m, idField, err := s.model(model)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	err = s.db.WithContext(ctx).
		Table(s.tableName(model)).
		Order(clause.OrderByColumn{Column: clause.Column{Name: idField.Name}}).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("modelform/gormstore: find many %s: %w", model, err)
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, store.Normalize(m, row))
	}
	return out, nil
}

// FindUnique returns the first row matching where, or nil.
func (s *Store) FindUnique(ctx context.Context, model string, where map[string]any) (map[string]any, error) {
	m, _, err := s.model(model)
	if err != nil {
		return nil, err
	}
	if len(where) == 0 {
		return nil, nil
	}
	var rows []map[string]any
	err = s.db.WithContext(ctx).
		Table(s.tableName(model)).
		Where(where).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("modelform/gormstore: find unique %s: %w", model, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return store.Normalize(m, rows[0]), nil
}

// Create inserts payload.Data. Unset identifiers are left to the database.
func (s *Store) Create(ctx context.Context, model string, payload form.Payload, _ session.MutateOptions) error {
	m, idField, err := s.model(model)
	if err != nil {
		return err
	}
	row, err := store.Columns(m, payload.Data)
	if err != nil {
		return err
	}
	if row[idField.Name] == nil {
		delete(row, idField.Name)
	}
	if len(row) == 0 {
		return fmt.Errorf("modelform/gormstore: create %s: no columns", model)
	}

	if err := s.db.WithContext(ctx).Table(s.tableName(model)).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s: %v", store.ErrConflict, model, err)
		}
		return fmt.Errorf("modelform/gormstore: create %s: %w", model, err)
	}
	return nil
}

// Update writes payload.Data to the row matching payload.Where.
func (s *Store) Update(ctx context.Context, model string, payload form.Payload, _ session.MutateOptions) error {
	m, _, err := s.model(model)
	if err != nil {
		return err
	}
	if len(payload.Where) == 0 {
		return fmt.Errorf("modelform/gormstore: update %s: empty where clause", model)
	}
	changes, err := store.Columns(m, payload.Data)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return nil
	}

	res := s.db.WithContext(ctx).Table(s.tableName(model)).Where(payload.Where).Updates(changes)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s: %v", store.ErrConflict, model, res.Error)
		}
		return fmt.Errorf("modelform/gormstore: update %s: %w", model, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s %v", store.ErrNotFound, model, payload.Where)
	}
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
