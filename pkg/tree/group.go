package tree

import (
	"fmt"
	"iter"

	"github.com/praetorian-inc/kstree/pkg/schema"
)

// GroupNode is a display-only heading that collects one category of a
// structure's members. It has no byte footprint.
type GroupNode struct {
	chunk
	owner    *StructNode
	category schema.Category
	members  []schema.Member

	lazyChildren
}

func (n *GroupNode) Kind() Kind { return KindGroup }

// Value returns nil; a group is not a parsed entity.
func (n *GroupNode) Value() any { return nil }

// Category returns which members the group holds.
func (n *GroupNode) Category() schema.Category { return n.category }

// Members returns the member descriptors captured at construction.
func (n *GroupNode) Members() []schema.Member { return n.members }

func (n *GroupNode) ChildCount() int { return len(n.members) }

func (n *GroupNode) ChildAt(index int) (Node, error) {
	if index >= 0 && index < len(n.members) {
		n.init()
	}
	return n.at(n.name, index, len(n.members))
}

func (n *GroupNode) IndexOf(child Node) int {
	n.init()
	return n.indexOf(child)
}

func (n *GroupNode) IsLeaf() bool { return len(n.members) == 0 }

func (n *GroupNode) AllowsChildren() bool { return true }

func (n *GroupNode) Children() ([]Node, error) {
	n.init()
	return n.all()
}

func (n *GroupNode) All() iter.Seq2[int, Node] {
	n.init()
	return n.seq()
}

// String renders "name [count=K]".
func (n *GroupNode) String() string {
	return fmt.Sprintf("%s [count=%d]", n.name, len(n.members))
}

func (n *GroupNode) init() {
	n.load(func() ([]slot, error) {
		slots := make([]slot, len(n.members))
		for i, m := range n.members {
			child, err := n.owner.derive(n, m)
			if err != nil {
				slots[i] = slot{err: childError(n.owner.name+"/"+n.name, i, m.Name, err)}
				continue
			}
			slots[i] = slot{node: child}
		}

		n.tree.logger.Debug("expanded group", "struct", n.owner.name, "group", n.name, "count", len(slots))
		n.tree.logFailures(n.name, slots)
		return slots, nil
	})
}
