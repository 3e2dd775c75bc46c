// Package modelform generates create and update forms from model metadata.
//
// A Catalog loads model definitions from an OpenAPI document or from
// metadata files and opens form sessions for them. Sessions synthesize
// defaults, resolve reference pickers through a Querier, reset dependent
// fields when the fields they depend on change, and submit only the dirty
// fields of an update through a Mutator. Views are drawn by the renderers
// under pkg/renderers.
package modelform
