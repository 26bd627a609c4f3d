package tree

import (
	"errors"
	"slices"
	"strings"
)

// SkipChildren may be returned by a WalkFunc to not descend into a node.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every node visited by Walk.
type WalkFunc func(n Node, depth int) error

// Walk visits n and its descendants depth-first, expanding nodes as it goes.
// Children that fail to build are skipped and their errors joined into the
// result; an error from fn other than SkipChildren stops the walk.
func Walk(n Node, fn WalkFunc) error {
	var failures []error

	var visit func(n Node, depth int) error
	visit = func(n Node, depth int) error {
		if err := fn(n, depth); err != nil {
			if errors.Is(err, SkipChildren) {
				return nil
			}
			return err
		}

		children, err := n.Children()
		if err != nil {
			failures = append(failures, err)
		}
		for _, c := range children {
			if c == nil {
				continue
			}
			if err := visit(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(n, 0); err != nil {
		return err
	}
	return errors.Join(failures...)
}

// Path returns the names from the root down to n.
func Path(n Node) []string {
	var names []string
	for cur := n; cur != nil; cur = cur.Parent() {
		names = append(names, cur.Name())
	}
	slices.Reverse(names)
	return names
}

// PathString joins Path(n) with "/".
func PathString(n Node) string {
	return strings.Join(Path(n), "/")
}

// Depth returns the number of ancestors of n.
func Depth(n Node) int {
	depth := 0
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		depth++
	}
	return depth
}

// Locate returns the deepest node under root whose span contains offset.
// Only nodes on the way down are expanded; groups are searched through.
func Locate(root Node, offset int64) (Node, bool) {
	if span, ok := root.Span(); ok && !span.Contains(offset) {
		return nil, false
	}
	if found := locateIn(root, offset); found != nil {
		return found, true
	}
	if _, ok := root.Span(); ok {
		return root, true
	}
	return nil, false
}

func locateIn(n Node, offset int64) Node {
	children, _ := n.Children()
	for _, c := range children {
		if c == nil {
			continue
		}
		span, ok := c.Span()
		if !ok {
			if found := locateIn(c, offset); found != nil {
				return found
			}
			continue
		}
		if !span.Contains(offset) {
			continue
		}
		if found := locateIn(c, offset); found != nil {
			return found
		}
		return c
	}
	return nil
}

// Find returns every node under root, root included, for which match is true.
func Find(root Node, match func(Node) bool) ([]Node, error) {
	var found []Node
	err := Walk(root, func(n Node, _ int) error {
		if match(n) {
			found = append(found, n)
		}
		return nil
	})
	return found, err
}
