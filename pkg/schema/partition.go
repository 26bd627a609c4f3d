package schema

import (
	"slices"
	"strings"
)

// Partition is a descriptor's members split by category.
type Partition struct {
	Params    []Member
	Fields    []Member
	Instances []Member
}

// Group returns the members of category c.
func (p Partition) Group(c Category) []Member {
	switch c {
	case CategoryParam:
		return p.Params
	case CategoryField:
		return p.Fields
	case CategoryInstance:
		return p.Instances
	default:
		return nil
	}
}

// Split partitions the members of d. Internal bookkeeping members (names
// starting with '_') are dropped. Members present in the declared order become
// fields, sorted by that order; members named as instances by d or by the
// overlay become instances, ordered as d lists them followed by the overlay;
// everything else is a parameter, ordered by name.
func Split(d *Descriptor, overlay *Overlay) Partition {
	var p Partition

	extra := overlay.InstancesOf(d.Type)
	for _, m := range d.Members {
		if strings.HasPrefix(m.Name, "_") {
			continue
		}
		switch {
		case d.SeqIndex(m.Name) >= 0:
			p.Fields = append(p.Fields, m)
		case slices.Contains(d.Instances, m.Name) || slices.Contains(extra, m.Name):
			p.Instances = append(p.Instances, m)
		default:
			p.Params = append(p.Params, m)
		}
	}

	// Members may be declared in any order; only SeqFields is authoritative.
	slices.SortStableFunc(p.Fields, func(a, b Member) int {
		return d.SeqIndex(a.Name) - d.SeqIndex(b.Name)
	})
	slices.SortStableFunc(p.Instances, func(a, b Member) int {
		return instanceIndex(d, extra, a.Name) - instanceIndex(d, extra, b.Name)
	})
	slices.SortStableFunc(p.Params, func(a, b Member) int {
		return strings.Compare(a.Name, b.Name)
	})

	return p
}

func instanceIndex(d *Descriptor, extra []string, name string) int {
	if i := slices.Index(d.Instances, name); i >= 0 {
		return i
	}
	return len(d.Instances) + slices.Index(extra, name)
}
