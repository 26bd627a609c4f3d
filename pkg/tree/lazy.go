package tree

import (
	"errors"
	"fmt"
	"iter"
	"sync"
)

type slot struct {
	node Node
	err  error
}

// lazyChildren is the one-time child cache shared by every composite node.
// The build function runs at most once, even under concurrent first access.
type lazyChildren struct {
	once  sync.Once
	slots []slot
	err   error
}

func (l *lazyChildren) load(build func() ([]slot, error)) {
	l.once.Do(func() {
		l.slots, l.err = build()
	})
}

func (l *lazyChildren) at(owner string, index, count int) (Node, error) {
	if index < 0 || index >= count {
		return nil, fmt.Errorf("%w: %s has %d children (index %d)", ErrIndexOutOfRange, owner, count, index)
	}
	if l.err != nil {
		return nil, l.err
	}
	s := l.slots[index]
	return s.node, s.err
}

func (l *lazyChildren) all() ([]Node, error) {
	if l.err != nil {
		return nil, l.err
	}
	nodes := make([]Node, len(l.slots))
	var errs []error
	for i, s := range l.slots {
		nodes[i] = s.node
		if s.err != nil {
			errs = append(errs, s.err)
		}
	}
	return nodes, errors.Join(errs...)
}

func (l *lazyChildren) indexOf(child Node) int {
	if child == nil {
		return -1
	}
	for i, s := range l.slots {
		if s.node == child {
			return i
		}
	}
	return -1
}

func (l *lazyChildren) seq() iter.Seq2[int, Node] {
	return func(yield func(int, Node) bool) {
		for i, s := range l.slots {
			if s.node == nil {
				continue
			}
			if !yield(i, s.node) {
				return
			}
		}
	}
}
