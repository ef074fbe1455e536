package tree

import "strings"

// FromPaths reverses ToPaths: given a flat map from sep-joined paths to
// leaf values, rebuilds the nested LabelTree those paths project from
// (spec §4.F "to_paths(sep)/from_paths(sep) — flat path projection for
// persistence to hierarchical backends"). Intermediate path segments
// become LabelTree nodes; the variant of the leaves themselves is
// whatever was stored, same as ToPaths's own leaf passthrough.
func FromPaths(flat map[string]interface{}, sep string) *LabelTree {
	if sep == "" {
		sep = "/"
	}
	root := NewLabelTree()
	for path, v := range flat {
		segments := strings.Split(path, sep)
		insertPath(root, segments, v)
	}
	return root
}

func insertPath(node *LabelTree, segments []string, v interface{}) {
	head := segments[0]
	if len(segments) == 1 {
		node.Put(head, v)
		return
	}
	child, ok := node.Get(head)
	sub, isLabel := child.(*LabelTree)
	if !ok || !isLabel {
		sub = NewLabelTree()
		node.Put(head, sub)
	}
	insertPath(sub, segments[1:], v)
}
