// Package kstree turns parsed binary structures into navigable trees in
// which every node knows the byte range it was read from.
//
// # Basic Usage
//
// Open a file in one of the built-in formats and walk its tree:
//
//	doc, err := kstree.Open("image.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	kstree.Walk(doc.Root(), func(n kstree.Node, depth int) error {
//	    fmt.Printf("%*s%s\n", depth*2, "", n)
//	    return nil
//	})
//
// # Custom Structures
//
// Any parser output can be browsed once its types are described:
//
//	registry := kstree.NewRegistry()
//	registry.MustRegister(myDescriptors...)
//
//	t, err := kstree.Build(root, registry)
//
// Children are built on first access, one level at a time.
package kstree

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kaitai-io/kaitai_struct_go_runtime/kaitai"
	"github.com/praetorian-inc/kstree/pkg/formats"
	"github.com/praetorian-inc/kstree/pkg/schema"
	"github.com/praetorian-inc/kstree/pkg/tree"
	"github.com/praetorian-inc/kstree/pkg/types"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/praetorian-inc/kstree" without subpackages.
type (
	// Node is any node of a tree.
	Node = tree.Node

	// Tree owns the nodes built for one root structure.
	Tree = tree.Tree

	// Span is a half-open byte range.
	Span = types.Span

	// Struct is a parsed structure with position side tables.
	Struct = schema.Struct

	// Descriptor lists the members of a structure type.
	Descriptor = schema.Descriptor

	// Member describes one member of a structure type.
	Member = schema.Member

	// Registry maps type names to descriptors.
	Registry = schema.Registry

	// Overlay reclassifies members as instances.
	Overlay = schema.Overlay

	// WalkFunc is called for every node visited by Walk.
	WalkFunc = tree.WalkFunc
)

// Re-export node kinds.
const (
	KindSimple = tree.KindSimple
	KindList   = tree.KindList
	KindStruct = tree.KindStruct
	KindGroup  = tree.KindGroup
)

// Re-export tree errors.
var (
	ErrNoPositions     = tree.ErrNoPositions
	ErrOutOfSync       = tree.ErrOutOfSync
	ErrIndexOutOfRange = tree.ErrIndexOutOfRange
	ErrUnknownFormat   = formats.ErrUnknownFormat
)

// NewRegistry creates an empty descriptor registry.
func NewRegistry() *Registry {
	return schema.NewRegistry()
}

// Walk visits n and its descendants depth-first.
func Walk(n Node, fn WalkFunc) error {
	return tree.Walk(n, fn)
}

// Locate returns the deepest node under root whose span contains offset.
func Locate(root Node, offset int64) (Node, bool) {
	return tree.Locate(root, offset)
}

// config holds Open and Build options.
type config struct {
	format        string
	overlay       *schema.Overlay
	logger        *slog.Logger
	maxValueBytes int
}

// Option configures Open and Build.
type Option func(*config)

// WithFormat skips detection and parses with the named built-in format.
func WithFormat(name string) Option {
	return func(c *config) {
		c.format = name
	}
}

// WithOverlay reclassifies members as instances.
func WithOverlay(o *Overlay) Option {
	return func(c *config) {
		c.overlay = o
	}
}

// WithLogger sets the logger for debug output. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithMaxValueBytes limits how many bytes of binary values node labels show.
// Default is 32; 0 shows all.
func WithMaxValueBytes(n int) Option {
	return func(c *config) {
		c.maxValueBytes = n
	}
}

func newConfig(opts []Option) *config {
	cfg := &config{
		logger:        slog.Default(),
		maxValueBytes: tree.DefaultFormatter().MaxBytes,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *config) treeOptions(registry *Registry) []tree.Option {
	return []tree.Option{
		tree.WithRegistry(registry),
		tree.WithOverlay(c.overlay),
		tree.WithLogger(c.logger),
		tree.WithFormatter(&tree.Formatter{MaxBytes: c.maxValueBytes}),
	}
}

// Build creates the tree for an already parsed structure.
func Build(root Struct, registry *Registry, opts ...Option) (*Tree, error) {
	cfg := newConfig(opts)
	return tree.New(root, cfg.treeOptions(registry)...)
}

// Document is a file parsed with a built-in format.
type Document struct {
	Path      string
	Format    *formats.Format
	Data      []byte
	ContentID types.ContentID
	Tree      *Tree
}

// Root returns the root node of the document's tree.
func (d *Document) Root() Node {
	return d.Tree.Root()
}

// Open reads and parses the file at path.
func Open(path string, opts ...Option) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return OpenBytes(path, data, opts...)
}

// OpenBytes parses data; name is used for format detection and as the
// document path.
func OpenBytes(name string, data []byte, opts ...Option) (*Document, error) {
	cfg := newConfig(opts)

	var f *formats.Format
	var err error
	if cfg.format != "" {
		f, err = formats.Lookup(cfg.format)
	} else {
		f, err = formats.Detect(name, data)
	}
	if err != nil {
		return nil, err
	}

	registry := schema.NewRegistry()
	if err := f.Register(registry); err != nil {
		return nil, fmt.Errorf("registering %s: %w", f.Name, err)
	}

	root, err := f.Parse(kaitai.NewStream(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("parsing %s as %s: %w", filepath.Base(name), f.Name, err)
	}
	cfg.logger.Debug("parsed file", "path", name, "format", f.Name, "size", len(data))

	t, err := tree.New(root, cfg.treeOptions(registry)...)
	if err != nil {
		return nil, err
	}

	return &Document{
		Path:      name,
		Format:    f,
		Data:      data,
		ContentID: types.ComputeContentID(data),
		Tree:      t,
	}, nil
}
