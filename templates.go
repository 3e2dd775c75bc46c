package modelform

import (
	"io/fs"

	"github.com/goliatone/go-modelform/pkg/renderers/html"
)

// EmbeddedTemplates exposes the built-in HTML renderer templates so callers
// can copy or extend them and pass the result to html.WithTemplatesFS.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}
