package modelform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/goliatone/go-modelform/pkg/form"
	"github.com/goliatone/go-modelform/pkg/metadata"
	pkgopenapi "github.com/goliatone/go-modelform/pkg/openapi"
	"github.com/goliatone/go-modelform/pkg/schema"
	"github.com/goliatone/go-modelform/pkg/session"
)

// Source formats accepted by LoadCatalog.
const (
	FormatOpenAPI  = "openapi"
	FormatMetadata = "metadata"
)

// ErrUnknownFormat is returned for source formats other than openapi and
// metadata.
var ErrUnknownFormat = errors.New("modelform: unknown source format")

// CatalogOption customises LoadCatalog.
type CatalogOption func(*catalogConfig)

type catalogConfig struct {
	loader   []pkgopenapi.LoaderOption
	importer []pkgopenapi.ImportOption
	logger   *slog.Logger
}

// WithLoaderOptions forwards options to the document loader, for example to
// enable HTTP sources.
func WithLoaderOptions(options ...pkgopenapi.LoaderOption) CatalogOption {
	return func(cfg *catalogConfig) {
		cfg.loader = append(cfg.loader, options...)
	}
}

// WithImportOptions forwards options to the OpenAPI importer.
func WithImportOptions(options ...pkgopenapi.ImportOption) CatalogOption {
	return func(cfg *catalogConfig) {
		cfg.importer = append(cfg.importer, options...)
	}
}

// WithLogger routes loader and importer diagnostics to logger.
func WithLogger(logger *slog.Logger) CatalogOption {
	return func(cfg *catalogConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Catalog is a loaded set of model definitions together with the validation
// bounds their source declared.
type Catalog struct {
	Registry *metadata.Registry
	imported *pkgopenapi.Result
	logger   *slog.Logger
}

// NewCatalog wraps an already built registry.
func NewCatalog(registry *metadata.Registry) *Catalog {
	return &Catalog{Registry: registry, logger: slog.Default()}
}

// LoadCatalog reads model definitions from source. OpenAPI sources are a file
// path or http(s) URL; metadata sources may also name a directory, in which
// case every JSON, YAML and CUE file below it is loaded.
func LoadCatalog(ctx context.Context, source, format string, options ...CatalogOption) (*Catalog, error) {
	cfg := catalogConfig{logger: slog.Default()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	src, err := ParseSource(source)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case FormatOpenAPI, "":
		doc, err := NewLoader(cfg.loader...).Load(ctx, src)
		if err != nil {
			return nil, err
		}
		importer := NewImporter(append([]pkgopenapi.ImportOption{pkgopenapi.WithLogger(cfg.logger)}, cfg.importer...)...)
		result, err := importer.Import(ctx, doc)
		if err != nil {
			return nil, err
		}
		cfg.logger.Debug("modelform: catalog imported", "source", source, "models", result.Registry.Models())
		return &Catalog{Registry: result.Registry, imported: result, logger: cfg.logger}, nil

	case FormatMetadata:
		if src.Kind() == pkgopenapi.SourceKindFile {
			if info, err := os.Stat(src.Location()); err == nil && info.IsDir() {
				registry, err := metadata.LoadFS(os.DirFS(src.Location()))
				if err != nil {
					return nil, err
				}
				return &Catalog{Registry: registry, logger: cfg.logger}, nil
			}
		}
		doc, err := NewLoader(cfg.loader...).Load(ctx, src)
		if err != nil {
			return nil, err
		}
		registry, err := metadata.Parse(doc.Raw(), doc.Location())
		if err != nil {
			return nil, err
		}
		return &Catalog{Registry: registry, logger: cfg.logger}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Schema returns the validation rule for model in the given mode, including
// any bounds the source declared.
func (c *Catalog) Schema(model string, mode form.Mode) (*schema.Object, error) {
	var options []schema.DeriveOption
	if mode == form.ModeCreate {
		options = append(options, schema.ForCreate())
	}
	if c.imported != nil {
		return c.imported.Schema(model, options...)
	}
	m, err := c.Registry.Model(model)
	if err != nil {
		return nil, err
	}
	return schema.FromModel(m, options...), nil
}

// NewSession opens a form session validated by the catalog schema. Options
// are applied after the schema, so session.WithSchema still overrides it.
func (c *Catalog) NewSession(model string, mode form.Mode, options ...session.Option) (*session.Session, error) {
	rule, err := c.Schema(model, mode)
	if err != nil {
		return nil, err
	}
	base := []session.Option{session.WithSchema(rule), session.WithLogger(c.logger)}
	return session.New(c.Registry, model, mode, append(base, options...)...)
}

// ParseSource maps a path or http(s) URL to a document source.
func ParseSource(raw string) (pkgopenapi.Source, error) {
	path := strings.TrimSpace(raw)
	if path == "" {
		return nil, errors.New("modelform: source is required")
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return pkgopenapi.SourceFromURL(path)
	}
	return pkgopenapi.SourceFromFile(path), nil
}
