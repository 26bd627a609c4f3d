package store

import (
	"fmt"
)

// MergeConfig configures the merge operation.
type MergeConfig struct {
	// SourcePaths are the database files to merge from.
	SourcePaths []string
	// DestPath is the destination database file.
	DestPath string
}

// MergeStats tracks merge operation statistics.
type MergeStats struct {
	FilesMerged      int
	FilesSkipped     int
	NodesMerged      int
	SourcesProcessed int
}

// Merge combines multiple index databases into one.
// Files already present in the destination (by content) are skipped.
func Merge(cfg MergeConfig) (*MergeStats, error) {
	if len(cfg.SourcePaths) == 0 {
		return nil, fmt.Errorf("no source databases specified")
	}
	if cfg.DestPath == "" {
		return nil, fmt.Errorf("destination path is required")
	}

	dest, err := NewSQLite(cfg.DestPath)
	if err != nil {
		return nil, fmt.Errorf("opening destination database: %w", err)
	}
	defer dest.Close()

	stats := &MergeStats{}

	for _, sourcePath := range cfg.SourcePaths {
		sourceStats, err := mergeFrom(dest, sourcePath)
		if err != nil {
			return stats, fmt.Errorf("merging from %s: %w", sourcePath, err)
		}
		stats.FilesMerged += sourceStats.FilesMerged
		stats.FilesSkipped += sourceStats.FilesSkipped
		stats.NodesMerged += sourceStats.NodesMerged
		stats.SourcesProcessed++
	}

	return stats, nil
}

// mergeFrom copies files and their nodes from a source database to dest.
func mergeFrom(dest Store, sourcePath string) (*MergeStats, error) {
	source, err := NewSQLite(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("opening source database: %w", err)
	}
	defer source.Close()

	files, err := source.Files()
	if err != nil {
		return nil, err
	}

	stats := &MergeStats{}
	for _, f := range files {
		id, added, err := dest.AddFile(f)
		if err != nil {
			return nil, err
		}
		if !added {
			stats.FilesSkipped++
			continue
		}

		records, err := source.Records(f.ID)
		if err != nil {
			return nil, err
		}
		if err := dest.AddRecords(id, records); err != nil {
			return nil, err
		}
		stats.FilesMerged++
		stats.NodesMerged += len(records)
	}

	return stats, nil
}
