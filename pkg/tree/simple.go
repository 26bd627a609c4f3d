package tree

import (
	"fmt"
	"iter"
)

// SimpleNode wraps a scalar or opaque value: a number, text, bytes, or a null
// of known static type. It never has children.
type SimpleNode struct {
	chunk
	value     any
	valueType string
}

func (n *SimpleNode) Kind() Kind { return KindSimple }

func (n *SimpleNode) Value() any { return n.value }

// ValueType returns the static declared type of the value, which identifies
// the value even when it is nil.
func (n *SimpleNode) ValueType() string { return n.valueType }

func (n *SimpleNode) ChildCount() int { return 0 }

func (n *SimpleNode) ChildAt(index int) (Node, error) {
	return nil, fmt.Errorf("%w: %s has no child nodes (index %d)", ErrIndexOutOfRange, n.name, index)
}

func (n *SimpleNode) IndexOf(Node) int { return -1 }

func (n *SimpleNode) IsLeaf() bool { return true }

func (n *SimpleNode) AllowsChildren() bool { return false }

func (n *SimpleNode) Children() ([]Node, error) { return nil, nil }

func (n *SimpleNode) All() iter.Seq2[int, Node] {
	return func(func(int, Node) bool) {}
}

// FormattedValue renders the value with the tree's formatter.
func (n *SimpleNode) FormattedValue() string {
	return n.tree.formatter.Format(n.value)
}

// String renders "name [offset=S; size=N] = value", or "name = value"
// without a span.
func (n *SimpleNode) String() string {
	formatted := n.FormattedValue()
	if label := n.spanLabel(); label != "" {
		return fmt.Sprintf("%s [%s] = %s", n.name, label, formatted)
	}
	return fmt.Sprintf("%s = %s", n.name, formatted)
}
