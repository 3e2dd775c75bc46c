package openapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// maxRemoteBytes caps documents fetched over HTTP.
const maxRemoteBytes = 8 << 20

// LoaderOption customises a Loader.
type LoaderOption func(*Loader)

// WithFileSystem sets the fs.FS used by SourceFromFS sources.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(l *Loader) {
		l.fs = files
	}
}

// WithHTTPClient enables URL sources with client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) {
		l.http = client
	}
}

// WithHTTPFallback enables URL sources with a default client and an optional
// request timeout.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(l *Loader) {
		l.timeout = timeout
		if l.http == nil {
			l.http = &http.Client{Timeout: timeout}
		}
	}
}

// Loader reads documents from files, an fs.FS or HTTP. URL sources are
// rejected unless an HTTP client is configured.
type Loader struct {
	fs      fs.FS
	http    *http.Client
	timeout time.Duration
}

// NewLoader constructs a Loader.
func NewLoader(options ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Load fetches src and wraps it in a Document.
func (l *Loader) Load(ctx context.Context, src Source) (Document, error) {
	if src == nil {
		return Document{}, errors.New("modelform/openapi: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case SourceKindFile:
		data, err = loadFile(src.Location())
	case SourceKindFS:
		data, err = l.loadFS(src.Location())
	case SourceKindURL:
		data, err = l.loadHTTP(ctx, src.Location())
	default:
		err = fmt.Errorf("modelform/openapi: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return Document{}, err
	}
	return NewDocument(src, data)
}

func loadFile(path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("modelform/openapi: file path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

func (l *Loader) loadFS(name string) ([]byte, error) {
	if l.fs == nil {
		return nil, errors.New("modelform/openapi: filesystem is not configured")
	}
	if name == "" {
		return nil, errors.New("modelform/openapi: fs path is required")
	}
	return fs.ReadFile(l.fs, name)
}

func (l *Loader) loadHTTP(ctx context.Context, url string) ([]byte, error) {
	if l.http == nil {
		return nil, errors.New("modelform/openapi: http support disabled")
	}
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("modelform/openapi: unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxRemoteBytes))
}
