// Package datastore manages an index directory: the node index database
// plus, optionally, the indexed file contents.
package datastore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/kstree/pkg/store"
)

// DBName is the index database file inside a datastore directory.
const DBName = "index.db"

// Datastore manages a directory-based index.
type Datastore struct {
	Path      string      // Directory path (e.g., "kstree.ds")
	Store     store.Store // SQLite store for flattened trees
	BlobStore *BlobStore  // Indexed file contents, nil unless enabled or present
}

// Options configures datastore behavior.
type Options struct {
	StoreBlobs bool // Create blob storage (--store-blobs flag)
}

// Open opens or creates a datastore directory. An existing blobs directory
// is opened even when StoreBlobs is not set.
func Open(path string, opts Options) (*Datastore, error) {
	if path == "" {
		return nil, fmt.Errorf("datastore path is required")
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("creating datastore directory: %w", err)
	}

	blobsDir := filepath.Join(path, "blobs")
	if opts.StoreBlobs {
		if err := os.MkdirAll(blobsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating blobs directory: %w", err)
		}
	}

	gitignorePath := filepath.Join(path, ".gitignore")
	if err := os.WriteFile(gitignorePath, []byte("*\n"), 0644); err != nil {
		return nil, fmt.Errorf("writing .gitignore: %w", err)
	}

	s, err := store.New(store.Config{Path: filepath.Join(path, DBName)})
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	ds := &Datastore{
		Path:  path,
		Store: s,
	}
	if info, err := os.Stat(blobsDir); err == nil && info.IsDir() {
		ds.BlobStore = &BlobStore{Root: blobsDir}
	}

	return ds, nil
}

// DBPath returns the index database for path: the database inside it when
// path is a datastore directory, path itself otherwise.
func DBPath(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, DBName)
	}
	return path
}

// Close closes the datastore and releases resources.
func (d *Datastore) Close() error {
	if d.Store != nil {
		return d.Store.Close()
	}
	return nil
}
