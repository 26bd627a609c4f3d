// Package tree builds navigable, lazily expanded node trees over parsed
// structures. Every node knows the byte range its value occupied in the root
// stream; children are derived from the value graph and the parser's position
// side tables the first time they are requested.
package tree

import (
	"errors"
	"fmt"
	"iter"

	"github.com/praetorian-inc/kstree/pkg/types"
)

var (
	// ErrNoPositions is returned when a structure or field lacks the position
	// side tables, e.g. because the parser ran without debug info.
	ErrNoPositions = errors.New("no position info available")

	// ErrOutOfSync is returned when a repeated value has fewer offsets than elements.
	ErrOutOfSync = errors.New("index/offset arrays out of sync")

	// ErrIndexOutOfRange is returned when navigating to a child that does not exist.
	ErrIndexOutOfRange = errors.New("child index out of range")

	// ErrShapeMismatch is returned when a member's value does not have its declared shape.
	ErrShapeMismatch = errors.New("value does not match declared shape")
)

// NodeID is the handle of a node inside its Tree.
type NodeID int

const noParent NodeID = -1

// Kind identifies the node variant.
type Kind int

const (
	KindSimple Kind = iota
	KindList
	KindStruct
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindList:
		return "list"
	case KindStruct:
		return "struct"
	case KindGroup:
		return "group"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is the navigable view of one value. The set of implementations is
// closed: *SimpleNode, *ListNode, *StructNode and *GroupNode.
type Node interface {
	ID() NodeID
	Kind() Kind
	Name() string

	// Parent returns nil for the root.
	Parent() Node

	// Span returns the byte range of the value; ok is false for nodes without
	// a byte footprint, such as groups.
	Span() (span types.Span, ok bool)

	// IsSequential reports whether the span comes from sequential parsing
	// rather than from a computed instance.
	IsSequential() bool

	Value() any

	ChildCount() int
	ChildAt(index int) (Node, error)

	// IndexOf returns the position of child, or -1.
	IndexOf(child Node) int

	IsLeaf() bool
	AllowsChildren() bool

	// Children materializes the child list. Failed slots are nil in the
	// returned slice and reported through the joined error.
	Children() ([]Node, error)

	// All iterates the successfully built children in order.
	All() iter.Seq2[int, Node]

	String() string

	base() *chunk
}

// ChildError reports the failure to build one child. Siblings are unaffected.
type ChildError struct {
	Parent string
	Index  int
	Name   string
	Err    error
}

func (e *ChildError) Error() string {
	return fmt.Sprintf("%s: child %d (%s): %v", e.Parent, e.Index, e.Name, e.Err)
}

func (e *ChildError) Unwrap() error {
	return e.Err
}

// chunk holds what every node variant shares.
type chunk struct {
	tree       *Tree
	id         NodeID
	parent     NodeID
	name       string
	span       types.Span
	hasSpan    bool
	sequential bool
}

func (c *chunk) ID() NodeID { return c.id }

func (c *chunk) Name() string { return c.name }

func (c *chunk) Parent() Node {
	if c.parent == noParent {
		return nil
	}
	n, _ := c.tree.Node(c.parent)
	return n
}

func (c *chunk) Span() (types.Span, bool) { return c.span, c.hasSpan }

func (c *chunk) IsSequential() bool { return c.sequential }

func (c *chunk) base() *chunk { return c }

// spanLabel renders "offset=S; size=N", or "" without a span.
func (c *chunk) spanLabel() string {
	if !c.hasSpan {
		return ""
	}
	return fmt.Sprintf("offset=%d; size=%d", c.span.Start, c.span.Size())
}
