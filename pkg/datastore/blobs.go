package datastore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/kstree/pkg/types"
)

// ErrBlobNotFound is returned by Get for content that was never stored.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore manages content-addressable storage of indexed files.
type BlobStore struct {
	Root string
}

// Store writes content to blob storage and returns its content ID.
func (b *BlobStore) Store(content []byte) (types.ContentID, error) {
	id := types.ComputeContentID(content)

	// Content-addressable, so an existing blob is already correct
	path := b.blobPath(id)
	if _, err := os.Stat(path); err == nil {
		return id, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return types.ContentID{}, fmt.Errorf("creating blob directory: %w", err)
	}

	// Write blob content atomically using temp file + rename
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return types.ContentID{}, fmt.Errorf("writing blob: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return types.ContentID{}, fmt.Errorf("renaming blob: %w", err)
	}

	return id, nil
}

// Get retrieves content by content ID.
func (b *BlobStore) Get(id types.ContentID) ([]byte, error) {
	content, err := os.ReadFile(b.blobPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, id.Hex())
		}
		return nil, fmt.Errorf("reading blob: %w", err)
	}
	return content, nil
}

// Exists checks if a blob exists in storage.
func (b *BlobStore) Exists(id types.ContentID) bool {
	_, err := os.Stat(b.blobPath(id))
	return err == nil
}

// blobPath returns the file path for a content ID: blobs/ab/cdef1234...
func (b *BlobStore) blobPath(id types.ContentID) string {
	hexID := id.Hex()
	return filepath.Join(b.Root, hexID[:2], hexID[2:])
}
