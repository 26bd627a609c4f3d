// Package schema describes parsed structures explicitly: every composite type
// publishes a Descriptor listing its members, their result shape and the
// declared serialization order of its sequential fields.
package schema

import (
	"errors"
	"fmt"

	"github.com/kaitai-io/kaitai_struct_go_runtime/kaitai"
	"github.com/praetorian-inc/kstree/pkg/types"
)

var (
	// ErrUnknownType is returned when no descriptor is registered for a type.
	ErrUnknownType = errors.New("unknown structure type")

	// ErrDuplicateType is returned when a type is registered twice.
	ErrDuplicateType = errors.New("structure type already registered")

	// ErrInvalidDescriptor is returned by Descriptor.Validate.
	ErrInvalidDescriptor = errors.New("invalid descriptor")
)

// Shape is the declared result shape of a member.
type Shape int

const (
	// ShapeScalar is a single non-composite value: number, text, bytes, or null.
	ShapeScalar Shape = iota

	// ShapeStruct is a single nested structure.
	ShapeStruct

	// ShapeRepeated is an ordered sequence of values produced by a repeated field.
	ShapeRepeated
)

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeStruct:
		return "struct"
	case ShapeRepeated:
		return "repeated"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Category groups the members of a structure for display.
type Category int

const (
	// CategoryParam holds user-supplied construction parameters.
	CategoryParam Category = iota

	// CategoryField holds sequentially parsed fields.
	CategoryField

	// CategoryInstance holds computed or lazily parsed values.
	CategoryInstance
)

// Title is the heading shown for the category's group node.
func (c Category) Title() string {
	switch c {
	case CategoryParam:
		return "Parameters"
	case CategoryField:
		return "Fields"
	case CategoryInstance:
		return "Instances"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Struct is implemented by every parsed composite value.
type Struct interface {
	// TypeName identifies the Descriptor describing this value.
	TypeName() string

	// Stream is the stream the value was parsed from.
	Stream() *kaitai.Stream

	// Positions returns the debug side tables recorded while parsing, or nil
	// when the parser ran without position tracking.
	Positions() *types.Positions
}

// Member describes one value-producing accessor of a structure.
type Member struct {
	Name  string
	Shape Shape

	// Type is the static declared type, used to label a nil value.
	Type string

	// Get reads the member from a value of the described type.
	Get func(Struct) (any, error)
}

// Descriptor is the explicit description of a structure type.
type Descriptor struct {
	Type string

	// SeqFields is the declared serialization order of sequential fields.
	SeqFields []string

	Members []Member

	// Instances names the members that are computed values rather than
	// construction parameters.
	Instances []string
}

// SeqIndex returns the position of name in the declared order, or -1.
func (d *Descriptor) SeqIndex(name string) int {
	for i, n := range d.SeqFields {
		if n == name {
			return i
		}
	}
	return -1
}

// Member returns the member called name.
func (d *Descriptor) Member(name string) (Member, bool) {
	for _, m := range d.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// Validate checks that the descriptor is usable for building trees.
func (d *Descriptor) Validate() error {
	if d.Type == "" {
		return fmt.Errorf("%w: empty type name", ErrInvalidDescriptor)
	}

	seen := make(map[string]bool, len(d.Members))
	for _, m := range d.Members {
		if m.Name == "" {
			return fmt.Errorf("%w: %s has a member without a name", ErrInvalidDescriptor, d.Type)
		}
		if seen[m.Name] {
			return fmt.Errorf("%w: %s declares member %q twice", ErrInvalidDescriptor, d.Type, m.Name)
		}
		if m.Get == nil {
			return fmt.Errorf("%w: %s.%s has no accessor", ErrInvalidDescriptor, d.Type, m.Name)
		}
		seen[m.Name] = true
	}

	order := make(map[string]bool, len(d.SeqFields))
	for _, name := range d.SeqFields {
		if order[name] {
			return fmt.Errorf("%w: %s lists field %q twice in its order", ErrInvalidDescriptor, d.Type, name)
		}
		order[name] = true
	}

	return nil
}
