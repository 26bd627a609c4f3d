package tree

import (
	"fmt"
	"iter"

	"github.com/praetorian-inc/kstree/pkg/schema"
	"github.com/praetorian-inc/kstree/pkg/types"
)

// groupOrder is the order of a StructNode's children.
var groupOrder = []schema.Category{
	schema.CategoryParam,
	schema.CategoryField,
	schema.CategoryInstance,
}

// StructNode wraps one parsed structure. Its children are three groups:
// Parameters, Fields (in declared serialization order) and Instances.
type StructNode struct {
	chunk
	value schema.Struct
	desc  *schema.Descriptor
	pos   *types.Positions
	parts schema.Partition

	lazyChildren
}

func (n *StructNode) Kind() Kind { return KindStruct }

func (n *StructNode) Value() any { return n.value }

// Descriptor returns the descriptor of the wrapped structure.
func (n *StructNode) Descriptor() *schema.Descriptor { return n.desc }

// FieldCount returns the number of sequential fields.
func (n *StructNode) FieldCount() int { return len(n.parts.Fields) }

// Group returns the group child for category c.
func (n *StructNode) Group(c schema.Category) (*GroupNode, error) {
	for i, cat := range groupOrder {
		if cat != c {
			continue
		}
		child, err := n.ChildAt(i)
		if err != nil {
			return nil, err
		}
		return child.(*GroupNode), nil
	}
	return nil, fmt.Errorf("unknown category %d", int(c))
}

// Fields is shorthand for Group(schema.CategoryField).
func (n *StructNode) Fields() (*GroupNode, error) {
	return n.Group(schema.CategoryField)
}

func (n *StructNode) ChildCount() int { return len(groupOrder) }

func (n *StructNode) ChildAt(index int) (Node, error) {
	n.init()
	return n.at(n.name, index, len(groupOrder))
}

func (n *StructNode) IndexOf(child Node) int {
	n.init()
	return n.indexOf(child)
}

func (n *StructNode) IsLeaf() bool { return false }

func (n *StructNode) AllowsChildren() bool { return true }

func (n *StructNode) Children() ([]Node, error) {
	n.init()
	return n.all()
}

func (n *StructNode) All() iter.Seq2[int, Node] {
	n.init()
	return n.seq()
}

// String renders "name [Type; fields=K; offset=S; size=N]".
func (n *StructNode) String() string {
	if label := n.spanLabel(); label != "" {
		return fmt.Sprintf("%s [%s; fields=%d; %s]", n.name, n.desc.Type, len(n.parts.Fields), label)
	}
	return fmt.Sprintf("%s [%s; fields=%d]", n.name, n.desc.Type, len(n.parts.Fields))
}

func (n *StructNode) init() {
	n.load(func() ([]slot, error) {
		slots := make([]slot, len(groupOrder))
		for i, c := range groupOrder {
			g := &GroupNode{
				chunk:    chunk{parent: n.id, name: c.Title(), sequential: c == schema.CategoryField},
				owner:    n,
				category: c,
				members:  n.parts.Group(c),
			}
			n.tree.alloc(&g.chunk, g)
			slots[i] = slot{node: g}
		}
		return slots, nil
	})
}

// derive builds the child node for member m of this structure, parented to g.
func (n *StructNode) derive(g *GroupNode, m schema.Member) (Node, error) {
	value, err := m.Get(n.value)
	if err != nil {
		return nil, fmt.Errorf("reading %s.%s: %w", n.desc.Type, m.Name, err)
	}

	// Sequential fields must have offsets; parameters and instances may not.
	span, hasSpan := n.pos.Attr(m.Name)
	if !hasSpan && g.category == schema.CategoryField {
		return nil, fmt.Errorf("%w: %s.%s has no valid recorded offsets", ErrNoPositions, n.desc.Type, m.Name)
	}

	switch m.Shape {
	case schema.ShapeRepeated:
		items, ok := asSlice(value)
		if !ok && !isNil(value) {
			return nil, fmt.Errorf("%w: %s.%s is declared repeated but holds %T", ErrShapeMismatch, n.desc.Type, m.Name, value)
		}
		starts, ends, ok := n.pos.Elements(m.Name)
		if !ok && len(items) > 0 {
			return nil, fmt.Errorf("%w: %s.%s has no element offsets", ErrNoPositions, n.desc.Type, m.Name)
		}
		return n.tree.newList(g.id, m.Name, value, items, m.Type, span, hasSpan, &elements{starts: starts, ends: ends}, g.sequential), nil

	case schema.ShapeStruct:
		if !isNil(value) {
			if _, ok := value.(schema.Struct); !ok {
				return nil, fmt.Errorf("%w: %s.%s is declared a structure but holds %T", ErrShapeMismatch, n.desc.Type, m.Name, value)
			}
		}
	}

	return n.tree.create(g.id, m.Name, value, m.Type, span, hasSpan, nil, g.sequential)
}
