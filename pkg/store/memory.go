package store

import (
	"slices"
	"sync"
)

// MemoryStore implements Store using in-memory data structures.
type MemoryStore struct {
	mu        sync.RWMutex
	files     []File
	byContent map[string]int64   // keyed by ContentID.Hex()
	records   map[int64][]Record // keyed by file ID
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		byContent: make(map[string]int64),
		records:   make(map[int64][]Record),
	}
}

// AddFile stores a file record.
func (m *MemoryStore) AddFile(f File) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := f.ContentID.Hex()
	if id, exists := m.byContent[key]; exists {
		// Idempotent - already exists
		return id, false, nil
	}

	f.ID = int64(len(m.files) + 1)
	m.files = append(m.files, f)
	m.byContent[key] = f.ID
	return f.ID, true, nil
}

// AddRecords stores the records of a file.
func (m *MemoryStore) AddRecords(fileID int64, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[fileID] = append(m.records[fileID], records...)
	return nil
}

// Files retrieves all files.
func (m *MemoryStore) Files() ([]File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.files), nil
}

// Records retrieves the records of a file.
func (m *MemoryStore) Records(fileID int64) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.records[fileID]), nil
}

// Covering retrieves the records of a file whose span contains offset.
func (m *MemoryStore) Covering(fileID int64, offset int64) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Record
	for _, r := range m.records[fileID] {
		if span, ok := r.Span(); ok && span.Contains(offset) {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b Record) int {
		return a.Depth - b.Depth
	})
	return out, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
