package tree

import (
	"fmt"
	"iter"

	"github.com/praetorian-inc/kstree/pkg/types"
)

// ListNode wraps the values of a repeated field. Element i becomes child
// "[i]" spanning (starts[i], ends[i]).
type ListNode struct {
	chunk
	raw      any
	items    []any
	elemType string
	starts   []int64
	ends     []int64

	lazyChildren
}

func (n *ListNode) Kind() Kind { return KindList }

// Value returns the repeated value as the parser produced it.
func (n *ListNode) Value() any { return n.raw }

// ElementType returns the static type of the elements.
func (n *ListNode) ElementType() string { return n.elemType }

// ChildCount is the element count; it does not build any child.
func (n *ListNode) ChildCount() int { return len(n.items) }

func (n *ListNode) ChildAt(index int) (Node, error) {
	if index >= 0 && index < len(n.items) {
		n.init()
	}
	return n.at(n.name, index, len(n.items))
}

func (n *ListNode) IndexOf(child Node) int {
	n.init()
	return n.indexOf(child)
}

func (n *ListNode) IsLeaf() bool { return len(n.items) == 0 }

func (n *ListNode) AllowsChildren() bool { return true }

func (n *ListNode) Children() ([]Node, error) {
	n.init()
	return n.all()
}

func (n *ListNode) All() iter.Seq2[int, Node] {
	n.init()
	return n.seq()
}

// String renders "name [count=N; offset=S; size=Z]".
func (n *ListNode) String() string {
	if label := n.spanLabel(); label != "" {
		return fmt.Sprintf("%s [count=%d; %s]", n.name, len(n.items), label)
	}
	return fmt.Sprintf("%s [count=%d]", n.name, len(n.items))
}

func (n *ListNode) init() {
	n.load(func() ([]slot, error) {
		if len(n.starts) != len(n.items) || len(n.ends) != len(n.items) {
			return nil, fmt.Errorf("%w: %s has %d values but %d start and %d end offsets",
				ErrOutOfSync, n.name, len(n.items), len(n.starts), len(n.ends))
		}

		slots := make([]slot, len(n.items))
		for i, item := range n.items {
			name := fmt.Sprintf("[%d]", i)
			span, err := types.NewSpan(n.starts[i], n.ends[i])
			if err != nil {
				slots[i] = slot{err: childError(n.name, i, name, err)}
				continue
			}
			child, err := n.tree.create(n.id, name, item, n.elemType, span, true, nil, n.sequential)
			if err != nil {
				slots[i] = slot{err: childError(n.name, i, name, err)}
				continue
			}
			slots[i] = slot{node: child}
		}

		n.tree.logger.Debug("expanded list", "name", n.name, "count", len(slots))
		n.tree.logFailures(n.name, slots)
		return slots, nil
	})
}
