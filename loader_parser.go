package modelform

import (
	pkgopenapi "github.com/goliatone/go-modelform/pkg/openapi"
)

// NewLoader constructs a document loader.
func NewLoader(options ...pkgopenapi.LoaderOption) *pkgopenapi.Loader {
	return pkgopenapi.NewLoader(options...)
}

// NewImporter constructs an OpenAPI importer.
func NewImporter(options ...pkgopenapi.ImportOption) *pkgopenapi.Importer {
	return pkgopenapi.NewImporter(options...)
}
