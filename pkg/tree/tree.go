package tree

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/praetorian-inc/kstree/pkg/schema"
	"github.com/praetorian-inc/kstree/pkg/types"
)

// Tree owns every node built for one root structure. Nodes refer to their
// parent by NodeID only; the Tree is the single owner.
type Tree struct {
	mu    sync.Mutex
	nodes []Node
	root  Node

	registry  *schema.Registry
	overlay   *schema.Overlay
	logger    *slog.Logger
	formatter *Formatter
}

// treeConfig holds tree construction options.
type treeConfig struct {
	registry  *schema.Registry
	overlay   *schema.Overlay
	logger    *slog.Logger
	formatter *Formatter
	rootName  string
}

// Option configures a Tree.
type Option func(*treeConfig)

// WithRegistry supplies the descriptors of every structure type reachable
// from the root. Required.
func WithRegistry(r *schema.Registry) Option {
	return func(c *treeConfig) {
		c.registry = r
	}
}

// WithOverlay reclassifies members as instances.
func WithOverlay(o *schema.Overlay) Option {
	return func(c *treeConfig) {
		c.overlay = o
	}
}

// WithLogger sets the logger used for debug output. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *treeConfig) {
		c.logger = l
	}
}

// WithFormatter sets how scalar values are rendered in labels.
func WithFormatter(f *Formatter) Option {
	return func(c *treeConfig) {
		c.formatter = f
	}
}

// WithRootName sets the root node's name. Default is the root's type name.
func WithRootName(name string) Option {
	return func(c *treeConfig) {
		c.rootName = name
	}
}

// New builds the root node for a parsed structure. The root span runs from
// offset 0 to the current position of the root's stream. Nothing below the
// root is built until it is requested.
func New(root schema.Struct, opts ...Option) (*Tree, error) {
	cfg := &treeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if isNil(root) {
		return nil, fmt.Errorf("root structure is nil")
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.formatter == nil {
		cfg.formatter = DefaultFormatter()
	}
	if cfg.rootName == "" {
		cfg.rootName = root.TypeName()
	}

	stream := root.Stream()
	if stream == nil {
		return nil, fmt.Errorf("root structure %s has no stream", root.TypeName())
	}
	end, err := stream.Pos()
	if err != nil {
		return nil, fmt.Errorf("reading root stream position: %w", err)
	}

	t := &Tree{
		registry:  cfg.registry,
		overlay:   cfg.overlay,
		logger:    cfg.logger,
		formatter: cfg.formatter,
	}

	n, err := t.newStruct(noParent, cfg.rootName, root, types.Span{Start: 0, End: end}, true, true)
	if err != nil {
		return nil, err
	}
	t.root = n
	return t, nil
}

// Root returns the root node.
func (t *Tree) Root() Node {
	return t.root
}

// Node returns the node with the given handle.
func (t *Tree) Node(id NodeID) (Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id < 0 || int(id) >= len(t.nodes) {
		return nil, false
	}
	return t.nodes[id], true
}

// Len returns how many nodes have been built so far.
func (t *Tree) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.nodes)
}

func (t *Tree) alloc(c *chunk, n Node) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c.tree = t
	c.id = NodeID(len(t.nodes))
	t.nodes = append(t.nodes, n)
}

// elements carries per-element offsets for a repeated value.
type elements struct {
	starts []int64
	ends   []int64
}

// create picks the node variant from the shape of value: a repeated sequence
// becomes a ListNode, a structure a StructNode, anything else a SimpleNode.
func (t *Tree) create(parent NodeID, name string, value any, staticType string, span types.Span, hasSpan bool, elems *elements, sequential bool) (Node, error) {
	if isNil(value) {
		return t.newSimple(parent, name, nil, staticType, span, hasSpan, sequential), nil
	}

	if s, ok := value.(schema.Struct); ok {
		return t.newStruct(parent, name, s, span, hasSpan, sequential)
	}

	if items, ok := asSlice(value); ok {
		if elems == nil {
			if len(items) > 0 {
				return nil, fmt.Errorf("%w: %s has no element offsets", ErrNoPositions, name)
			}
			elems = &elements{}
		}
		return t.newList(parent, name, value, items, staticType, span, hasSpan, elems, sequential), nil
	}

	return t.newSimple(parent, name, value, staticType, span, hasSpan, sequential), nil
}

func (t *Tree) newSimple(parent NodeID, name string, value any, staticType string, span types.Span, hasSpan, sequential bool) *SimpleNode {
	n := &SimpleNode{
		chunk:     chunk{parent: parent, name: name, span: span, hasSpan: hasSpan, sequential: sequential},
		value:     value,
		valueType: staticType,
	}
	t.alloc(&n.chunk, n)
	return n
}

func (t *Tree) newList(parent NodeID, name string, raw any, items []any, elemType string, span types.Span, hasSpan bool, elems *elements, sequential bool) *ListNode {
	n := &ListNode{
		chunk:    chunk{parent: parent, name: name, span: span, hasSpan: hasSpan, sequential: sequential},
		raw:      raw,
		items:    items,
		elemType: elemType,
		starts:   elems.starts,
		ends:     elems.ends,
	}
	t.alloc(&n.chunk, n)
	return n
}

// newStruct validates before allocating, so a failed construction leaves no
// partially valid node behind.
func (t *Tree) newStruct(parent NodeID, name string, value schema.Struct, span types.Span, hasSpan, sequential bool) (*StructNode, error) {
	desc, err := t.registry.Lookup(value.TypeName())
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", name, err)
	}

	pos := value.Positions()
	if pos == nil {
		return nil, fmt.Errorf("%w: %s (%s) was parsed without debug info", ErrNoPositions, name, desc.Type)
	}

	n := &StructNode{
		chunk: chunk{parent: parent, name: name, span: span, hasSpan: hasSpan, sequential: sequential},
		value: value,
		desc:  desc,
		pos:   pos,
		parts: schema.Split(desc, t.overlay),
	}
	t.alloc(&n.chunk, n)
	return n, nil
}

func (t *Tree) logFailures(owner string, slots []slot) {
	for i, s := range slots {
		if s.err != nil {
			t.logger.Debug("child failed", "parent", owner, "index", i, "error", s.err)
		}
	}
}

// asSlice converts a repeated value to its elements. Byte slices are opaque
// scalars, not repetitions.
func asSlice(v any) ([]any, bool) {
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map:
		return rv.IsNil()
	}
	return false
}

// childError wraps a slot failure with its position.
func childError(owner string, index int, name string, err error) error {
	return &ChildError{Parent: owner, Index: index, Name: name, Err: err}
}
