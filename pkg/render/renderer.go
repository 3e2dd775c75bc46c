package render

import (
	"context"

	"github.com/goliatone/go-modelform/pkg/session"
)

// Renderer turns a session view into a byte representation (HTML, a terminal
// transcript).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, view session.View, options Options) ([]byte, error)
}
