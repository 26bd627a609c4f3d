package main

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/praetorian-inc/kstree"
	"github.com/praetorian-inc/kstree/pkg/datastore"
	"github.com/praetorian-inc/kstree/pkg/store"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	indexDepth      int
	indexJobs       int
	indexStoreBlobs bool
)

// defaultDatastore is used by index when --datastore is not given.
const defaultDatastore = "kstree.ds"

var indexCmd = &cobra.Command{
	Use:   "index <file> [file...]",
	Short: "Store the node trees of files in an index database",
	Long: `Parse files and store their flattened node trees in a datastore
directory (default kstree.ds) holding a SQLite index.

Files are identified by content: a file whose bytes are already indexed
is skipped. Files that cannot be parsed are reported and skipped.
With --store-blobs the file contents are kept too, so later commands can
open them by content ID.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().IntVarP(&indexDepth, "depth", "d", -1, "Maximum depth to index (-1 for all)")
	indexCmd.Flags().IntVarP(&indexJobs, "jobs", "j", runtime.NumCPU(), "Files parsed in parallel")
	indexCmd.Flags().BoolVar(&indexStoreBlobs, "store-blobs", false, "Store file contents in the datastore")
}

// indexStats tracks index operation statistics.
type indexStats struct {
	mu      sync.Mutex
	indexed int
	skipped int
	failed  int
	nodes   int
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := datastorePath
	if path == "" {
		path = defaultDatastore
	}
	ds, err := datastore.Open(path, datastore.Options{StoreBlobs: indexStoreBlobs})
	if err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer ds.Close()

	var blobs *datastore.BlobStore
	if indexStoreBlobs {
		blobs = ds.BlobStore
	}
	stats, err := indexFiles(cmd, ds.Store, blobs, args)
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "Index complete: %d files, %d nodes (%d already indexed, %d failed)\n",
			stats.indexed, stats.nodes, stats.skipped, stats.failed)
		fmt.Fprintf(cmd.ErrOrStderr(), "Results stored in: %s\n", path)
	}
	return nil
}

// indexFiles parses paths concurrently and writes each tree to s, and each
// file's content to blobs when it is not nil. A file that fails to parse is
// counted and skipped; a store failure stops the run.
func indexFiles(cmd *cobra.Command, s store.Store, blobs *datastore.BlobStore, paths []string) (*indexStats, error) {
	stats := &indexStats{}
	var writeMu sync.Mutex

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, indexJobs))

	for _, path := range paths {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			doc, _, err := openDocument(path)
			if err != nil {
				slog.Warn("skipping file", "path", path, "error", err)
				stats.add(func() { stats.failed++ })
				return nil
			}

			records, err := store.Flatten(doc.Root(), indexDepth)
			if err != nil {
				slog.Warn("some subtrees could not be built", "path", path, "error", err)
			}

			if blobs != nil {
				if _, err := blobs.Store(doc.Data); err != nil {
					return fmt.Errorf("storing content of %s: %w", path, err)
				}
			}

			writeMu.Lock()
			defer writeMu.Unlock()
			return writeDocument(s, doc, records, stats)
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}

func writeDocument(s store.Store, doc *kstree.Document, records []store.Record, stats *indexStats) error {
	id, added, err := s.AddFile(store.File{
		Path:      doc.Path,
		Size:      int64(len(doc.Data)),
		ContentID: doc.ContentID,
		Format:    doc.Format.Name,
	})
	if err != nil {
		return fmt.Errorf("storing %s: %w", doc.Path, err)
	}
	if !added {
		slog.Debug("already indexed", "path", doc.Path, "content_id", doc.ContentID.Hex())
		stats.add(func() { stats.skipped++ })
		return nil
	}

	if err := s.AddRecords(id, records); err != nil {
		return fmt.Errorf("storing nodes of %s: %w", doc.Path, err)
	}
	slog.Debug("indexed file", "path", doc.Path, "nodes", len(records))
	stats.add(func() {
		stats.indexed++
		stats.nodes += len(records)
	})
	return nil
}

func (s *indexStats) add(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}
