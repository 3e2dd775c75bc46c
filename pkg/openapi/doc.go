// Package openapi loads OpenAPI 3 documents from files, an fs.FS or HTTP and
// imports their component schemas as model metadata.
//
// Component properties map to metadata fields by type and format; x-formgen-*
// vendor extensions carry the form hints (identifier, label, placeholder,
// hidden, dependsOn, filter, picker display field and relation mapping).
// Length and range constraints become validation bounds exposed through
// Result.Schema.
package openapi
