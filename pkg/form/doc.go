// Package form holds the field-level engine behind generated forms: default
// synthesis (Defaults), classification of fields into UI kinds (Classifier),
// option lists for enum and reference pickers (ResolveOptions, EnumOptions),
// the shallow dependency cascade (Disabled, Cascade), dirty tracking (State)
// and payload construction (BuildPayload, Connect).
//
// Everything here is synchronous and free of I/O; pkg/session wires the pieces
// to the query, mutation and cache boundaries.
package form
