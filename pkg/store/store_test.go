package store

import (
	"path/filepath"
	"testing"

	"github.com/praetorian-inc/kstree/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Interface(t *testing.T) {
	var _ Store = (*SQLiteStore)(nil)
	var _ Store = (*MemoryStore)(nil)
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	mem, err := New(Config{Path: ":memory:"})
	require.NoError(t, err)
	defer mem.Close()
	assert.IsType(t, &MemoryStore{}, mem)

	db, err := New(Config{Path: filepath.Join(t.TempDir(), "index.db")})
	require.NoError(t, err)
	defer db.Close()
	assert.IsType(t, &SQLiteStore{}, db)
}

// backends returns a fresh store of every kind.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	db, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]Store{
		"sqlite": db,
		"memory": NewMemory(),
	}
}

func sampleRecords() []Record {
	return []Record{
		{Path: "png", Name: "png", Kind: "struct", Type: "png", Start: 0, End: 83, HasSpan: true, Depth: 0},
		{Path: "png/Fields", Name: "Fields", Kind: "group", Depth: 1},
		{Path: "png/Fields/ihdr", Name: "ihdr", Kind: "struct", Type: "ihdr_chunk", Start: 16, End: 29, HasSpan: true, Depth: 2},
		{Path: "png/Fields/ihdr/Fields/width", Name: "width", Kind: "simple", Type: "u4be", Start: 16, End: 20, HasSpan: true, Value: "2", Depth: 4},
		{Path: "png/Instances/note", Name: "note", Kind: "simple", Type: "str", Value: "null", Depth: 2},
	}
}

func TestStore_AddFileDeduplicatesContent(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			// Arrange
			cid := types.ComputeContentID([]byte("image bytes"))

			// Act
			id1, added1, err := s.AddFile(File{Path: "a.png", Size: 11, ContentID: cid, Format: "png"})
			require.NoError(t, err)
			id2, added2, err := s.AddFile(File{Path: "copy/a.png", Size: 11, ContentID: cid, Format: "png"})
			require.NoError(t, err)

			// Assert
			assert.True(t, added1)
			assert.False(t, added2)
			assert.Equal(t, id1, id2)

			files, err := s.Files()
			require.NoError(t, err)
			require.Len(t, files, 1)
			assert.Equal(t, "a.png", files[0].Path)
			assert.Equal(t, cid, files[0].ContentID)
			assert.Equal(t, int64(11), files[0].Size)
			assert.Equal(t, "png", files[0].Format)
		})
	}
}

func TestStore_Records(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			// Arrange
			id, _, err := s.AddFile(File{Path: "a.png", ContentID: types.ComputeContentID([]byte("a")), Format: "png"})
			require.NoError(t, err)

			// Act
			require.NoError(t, s.AddRecords(id, sampleRecords()))
			records, err := s.Records(id)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, sampleRecords(), records)

			other, err := s.Records(id + 100)
			require.NoError(t, err)
			assert.Empty(t, other)
		})
	}
}

func TestStore_Covering(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			// Arrange
			id, _, err := s.AddFile(File{Path: "a.png", ContentID: types.ComputeContentID([]byte("a")), Format: "png"})
			require.NoError(t, err)
			require.NoError(t, s.AddRecords(id, sampleRecords()))

			// Act
			covering, err := s.Covering(id, 17)
			require.NoError(t, err)

			// Assert
			var paths []string
			for _, r := range covering {
				paths = append(paths, r.Path)
			}
			assert.Equal(t, []string{"png", "png/Fields/ihdr", "png/Fields/ihdr/Fields/width"}, paths)

			outside, err := s.Covering(id, 83)
			require.NoError(t, err)
			assert.Empty(t, outside)
		})
	}
}

func TestSQLite_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	id, _, err := s.AddFile(File{Path: "a.png", ContentID: types.ComputeContentID([]byte("a")), Format: "png"})
	require.NoError(t, err)
	require.NoError(t, s.AddRecords(id, sampleRecords()))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	records, err := s.Records(id)
	require.NoError(t, err)
	assert.Len(t, records, len(sampleRecords()))
}

func TestRecord_Span(t *testing.T) {
	span, ok := Record{Start: 4, End: 8, HasSpan: true}.Span()
	assert.True(t, ok)
	assert.Equal(t, types.Span{Start: 4, End: 8}, span)

	_, ok = Record{}.Span()
	assert.False(t, ok)
}
