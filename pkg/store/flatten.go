package store

import (
	"github.com/praetorian-inc/kstree/pkg/tree"
)

// Flatten walks the tree under root into records. Nodes deeper than maxDepth
// are not visited; a negative maxDepth visits everything. Subtrees that fail
// to build are left out and their errors returned alongside the records.
func Flatten(root tree.Node, maxDepth int) ([]Record, error) {
	var records []Record
	err := tree.Walk(root, func(n tree.Node, depth int) error {
		records = append(records, NewRecord(n, depth))
		if maxDepth >= 0 && depth >= maxDepth {
			return tree.SkipChildren
		}
		return nil
	})
	return records, err
}

// NewRecord describes a single node.
func NewRecord(n tree.Node, depth int) Record {
	r := Record{
		Path:  tree.PathString(n),
		Name:  n.Name(),
		Kind:  n.Kind().String(),
		Depth: depth,
	}
	if span, ok := n.Span(); ok {
		r.Start, r.End, r.HasSpan = span.Start, span.End, true
	}

	switch x := n.(type) {
	case *tree.SimpleNode:
		r.Type = x.ValueType()
		r.Value = x.FormattedValue()
	case *tree.ListNode:
		r.Type = x.ElementType()
	case *tree.StructNode:
		r.Type = x.Descriptor().Type
	}
	return r
}
