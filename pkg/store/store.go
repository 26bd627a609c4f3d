package store

import (
	"fmt"

	"github.com/praetorian-inc/kstree/pkg/types"
)

// File is an indexed input file. Files are identified by content, so the
// same bytes indexed under two paths are stored once.
type File struct {
	ID        int64
	Path      string
	Size      int64
	ContentID types.ContentID
	Format    string
}

// Record is one tree node flattened for storage.
type Record struct {
	Path    string
	Name    string
	Kind    string
	Type    string
	Start   int64
	End     int64
	HasSpan bool
	Value   string
	Depth   int
}

// Span returns the record's byte range and whether it has one.
func (r Record) Span() (types.Span, bool) {
	return types.Span{Start: r.Start, End: r.End}, r.HasSpan
}

// Store persists flattened node trees.
// This interface abstracts the underlying storage implementation,
// allowing for different backends (SQLite, in-memory).
type Store interface {
	// AddFile stores a file and returns its ID. A file whose content is
	// already stored is not added again; the existing ID is returned with
	// added set to false.
	AddFile(f File) (id int64, added bool, err error)

	// AddRecords stores the flattened nodes of a file.
	AddRecords(fileID int64, records []Record) error

	// Files returns every stored file, ordered by ID.
	Files() ([]File, error)

	// Records returns the records of a file in insertion order.
	Records(fileID int64) ([]Record, error)

	// Covering returns the records of a file whose span contains offset,
	// outermost first.
	Covering(fileID int64, offset int64) ([]Record, error)

	// Close closes the store.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for an in-memory store (useful for testing).
	Path string
}

// New creates a Store: in-memory for ":memory:", SQLite otherwise.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	if cfg.Path == ":memory:" {
		return NewMemory(), nil
	}

	return NewSQLite(cfg.Path)
}
