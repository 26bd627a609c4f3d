package explore

import (
	"github.com/praetorian-inc/kstree/pkg/tree"
)

// row is one visible line of the tree pane. A row whose child failed to build
// has a nil node and carries the failure instead.
type row struct {
	node   tree.Node
	parent tree.Node
	index  int
	depth  int
	err    error
}

func (r row) expandable() bool {
	return r.node != nil && r.node.AllowsChildren() && !r.node.IsLeaf()
}

// outline tracks which nodes are expanded and flattens the visible part of
// the tree into rows. Children are only requested for expanded nodes.
type outline struct {
	root     tree.Node
	expanded map[tree.NodeID]bool
	rows     []row
}

func newOutline(root tree.Node, expandDepth int) *outline {
	o := &outline{
		root:     root,
		expanded: make(map[tree.NodeID]bool),
	}
	o.expandTo(root, expandDepth)
	o.rebuild()
	return o
}

func (o *outline) expandTo(n tree.Node, depth int) {
	if depth <= 0 || n.IsLeaf() {
		return
	}
	o.expanded[n.ID()] = true
	for _, c := range n.All() {
		o.expandTo(c, depth-1)
	}
}

func (o *outline) rebuild() {
	o.rows = o.rows[:0]
	o.appendRows(row{node: o.root}, 0)
}

func (o *outline) appendRows(r row, depth int) {
	r.depth = depth
	o.rows = append(o.rows, r)
	if r.node == nil || !o.expanded[r.node.ID()] {
		return
	}

	children, _ := r.node.Children()
	for i, c := range children {
		child := row{node: c, parent: r.node, index: i}
		if c == nil {
			_, child.err = r.node.ChildAt(i)
		}
		o.appendRows(child, depth+1)
	}
}

func (o *outline) isExpanded(r row) bool {
	return r.node != nil && o.expanded[r.node.ID()]
}

// setExpanded expands or collapses the node at row i and reports whether
// anything changed.
func (o *outline) setExpanded(i int, expand bool) bool {
	if i < 0 || i >= len(o.rows) || !o.rows[i].expandable() {
		return false
	}
	id := o.rows[i].node.ID()
	if o.expanded[id] == expand {
		return false
	}
	if expand {
		o.expanded[id] = true
	} else {
		delete(o.expanded, id)
	}
	o.rebuild()
	return true
}

func (o *outline) toggle(i int) bool {
	if i < 0 || i >= len(o.rows) {
		return false
	}
	return o.setExpanded(i, !o.isExpanded(o.rows[i]))
}

// parentRow returns the row index of row i's parent, or -1 for the root.
func (o *outline) parentRow(i int) int {
	if i <= 0 || i >= len(o.rows) {
		return -1
	}
	for j := i - 1; j >= 0; j-- {
		if o.rows[j].depth < o.rows[i].depth {
			return j
		}
	}
	return -1
}

// reveal expands every ancestor of n and returns n's row index.
func (o *outline) reveal(n tree.Node) int {
	for p := n.Parent(); p != nil; p = p.Parent() {
		o.expanded[p.ID()] = true
	}
	o.rebuild()
	return o.indexOf(n)
}

func (o *outline) indexOf(n tree.Node) int {
	for i, r := range o.rows {
		if r.node != nil && r.node == n {
			return i
		}
	}
	return -1
}
