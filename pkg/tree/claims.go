package tree

// Claims reports whether root contains a Slot or CustomField for field. It
// walks the same structure Merge does, expanding Func nodes; a Func that fails
// to render claims nothing.
func Claims(root Node, field string) bool {
	_, ok := Claimed(root)[field]
	return ok
}

// Claimed returns every field name claimed by a placeholder under the nodes,
// using a Merger with default settings.
func Claimed(nodes ...Node) map[string]struct{} {
	return NewMerger(nil).Claimed(nodes...)
}

// Claimed returns every field name claimed by a placeholder under the nodes.
// It shares the merger's depth bound and Func expansions, so a later Merge
// sees the same tree and renders each Func only once.
func (m *Merger) Claimed(nodes ...Node) map[string]struct{} {
	out := make(map[string]struct{})
	for _, node := range nodes {
		m.collect(node, out, 0)
	}
	return out
}

func (m *Merger) collect(node Node, out map[string]struct{}, depth int) {
	if node == nil || depth > m.maxDepth {
		return
	}
	switch typed := node.(type) {
	case *Slot:
		out[typed.Field] = struct{}{}
	case *CustomField:
		out[typed.Field] = struct{}{}
	case *Func:
		if rendered, ok := m.expand(typed); ok {
			m.collect(rendered, out, depth+1)
		}
	case *Element:
		if typed == nil {
			return
		}
		for _, child := range typed.Children {
			m.collect(child, out, depth+1)
		}
	}
}
