// Package tree merges generated field bindings into caller-authored UI trees.
//
// Callers describe their layout with Element and Text nodes and mark where
// generated inputs go with two placeholders: Slot renders the generated input
// in place, CustomField hands the binding to a single caller element. Func
// nodes are expanded during the walk so placeholders returned by render
// functions are found too.
//
//	layout := tree.El("section", nil,
//		tree.SlotFor("name"),
//		tree.Custom("status", tree.El("my-select", map[string]any{"label": "State"})),
//	)
//
// Claimed reports the fields a tree already places so automatic generation can
// skip them.
package tree
