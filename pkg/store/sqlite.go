package store

import (
	"database/sql"
	"fmt"

	"github.com/praetorian-inc/kstree/pkg/types"
	_ "modernc.org/sqlite"
)

// driverName is the database/sql driver registered by modernc.org/sqlite.
const driverName = "sqlite"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store.
// Use ":memory:" for an in-memory database (useful for testing).
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every ":memory:" connection would otherwise open its own empty database.
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// AddFile stores a file record.
func (s *SQLiteStore) AddFile(f File) (int64, bool, error) {
	res, err := s.db.Exec(`
		INSERT OR IGNORE INTO files (content_id, path, size, format)
		VALUES (?, ?, ?, ?)
	`, f.ContentID.Hex(), f.Path, f.Size, f.Format)
	if err != nil {
		return 0, false, fmt.Errorf("inserting file: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("inserting file: %w", err)
	}

	var id int64
	err = s.db.QueryRow("SELECT id FROM files WHERE content_id = ?", f.ContentID.Hex()).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("looking up file: %w", err)
	}
	return id, n > 0, nil
}

// AddRecords stores the records of a file in one transaction.
func (s *SQLiteStore) AddRecords(fileID int64, records []Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertRecords(tx, fileID, records); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func insertRecords(tx *sql.Tx, fileID int64, records []Record) error {
	stmt, err := tx.Prepare(`
		INSERT INTO nodes (file_id, path, name, kind, type, offset_start, offset_end, has_span, value, depth)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(fileID, r.Path, r.Name, r.Kind, r.Type, r.Start, r.End, r.HasSpan, r.Value, r.Depth)
		if err != nil {
			return fmt.Errorf("inserting node %s: %w", r.Path, err)
		}
	}
	return nil
}

// Files retrieves all files.
func (s *SQLiteStore) Files() ([]File, error) {
	rows, err := s.db.Query("SELECT id, content_id, path, size, format FROM files ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var f File
		var contentHex string
		if err := rows.Scan(&f.ID, &contentHex, &f.Path, &f.Size, &f.Format); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}

		f.ContentID, err = types.ParseContentID(contentHex)
		if err != nil {
			return nil, fmt.Errorf("parsing content ID: %w", err)
		}
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating files: %w", err)
	}
	return files, nil
}

// Records retrieves the records of a file.
func (s *SQLiteStore) Records(fileID int64) ([]Record, error) {
	return s.queryRecords(`
		SELECT path, name, kind, type, offset_start, offset_end, has_span, value, depth
		FROM nodes
		WHERE file_id = ?
		ORDER BY id
	`, fileID)
}

// Covering retrieves the records of a file whose span contains offset.
func (s *SQLiteStore) Covering(fileID int64, offset int64) ([]Record, error) {
	return s.queryRecords(`
		SELECT path, name, kind, type, offset_start, offset_end, has_span, value, depth
		FROM nodes
		WHERE file_id = ? AND has_span = 1 AND offset_start <= ? AND ? < offset_end
		ORDER BY depth, id
	`, fileID, offset, offset)
}

func (s *SQLiteStore) queryRecords(query string, args ...any) ([]Record, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		err := rows.Scan(&r.Path, &r.Name, &r.Kind, &r.Type, &r.Start, &r.End, &r.HasSpan, &r.Value, &r.Depth)
		if err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nodes: %w", err)
	}
	return records, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
