package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/praetorian-inc/kstree/pkg/datastore"
	"github.com/praetorian-inc/kstree/pkg/store"
	"github.com/praetorian-inc/kstree/pkg/tree"
	"github.com/praetorian-inc/kstree/pkg/types"
	"github.com/spf13/cobra"
)

var (
	locateOffset  string
	locateIndexed bool
)

var errNotIndexed = errors.New("file is not in the index")

var locateCmd = &cobra.Command{
	Use:   "locate <file>",
	Short: "Show the nodes covering a byte offset",
	Long: `Print the chain of nodes whose byte ranges contain an offset,
from the root down to the deepest one.

With --indexed the chain is read from the index built by "kstree index"
in --datastore instead of parsing the file.`,
	Args: cobra.ExactArgs(1),
	RunE: runLocate,
}

func init() {
	locateCmd.Flags().StringVar(&locateOffset, "offset", "", "Byte offset, decimal or 0x hex (required)")
	locateCmd.Flags().BoolVar(&locateIndexed, "indexed", false, "Read from the datastore index")
	locateCmd.MarkFlagRequired("offset")
}

// parseOffset accepts decimal, 0x hex, 0o octal and 0b binary offsets.
func parseOffset(s string) (int64, error) {
	offset, err := strconv.ParseInt(strings.ReplaceAll(s, "_", ""), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q: %w", s, err)
	}
	if offset < 0 {
		return 0, fmt.Errorf("invalid offset %q: must not be negative", s)
	}
	return offset, nil
}

func runLocate(cmd *cobra.Command, args []string) error {
	offset, err := parseOffset(locateOffset)
	if err != nil {
		return err
	}

	if locateIndexed {
		path := datastorePath
		if path == "" {
			path = defaultDatastore
		}
		return locateInIndex(cmd.OutOrStdout(), args[0], datastore.DBPath(path), offset)
	}

	doc, _, err := openDocument(args[0])
	if err != nil {
		return err
	}
	n, ok := tree.Locate(doc.Root(), offset)
	if !ok {
		return fmt.Errorf("no node covers offset %d", offset)
	}
	writeChain(cmd.OutOrStdout(), n)
	return nil
}

// writeChain prints the ancestors of n with spans, outermost first, then n.
func writeChain(w io.Writer, n tree.Node) {
	var chain []tree.Node
	for cur := n; cur != nil; cur = cur.Parent() {
		if _, ok := cur.Span(); ok {
			chain = append(chain, cur)
		}
	}
	for i := len(chain) - 1; i >= 0; i-- {
		depth := len(chain) - 1 - i
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), chain[i])
	}
	fmt.Fprintf(w, "path: %s\n", tree.PathString(n))
}

// locateInIndex prints the indexed records covering offset. input is a file
// path or a content ID.
func locateInIndex(w io.Writer, input, dbPath string, offset int64) error {
	id, err := types.ParseContentID(input)
	if err != nil {
		data, err := os.ReadFile(input)
		if err != nil {
			return fmt.Errorf("reading %s: %w", input, err)
		}
		id = types.ComputeContentID(data)
	}

	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("index not found: %s", dbPath)
	}
	s, err := store.New(store.Config{Path: dbPath})
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer s.Close()

	files, err := s.Files()
	if err != nil {
		return fmt.Errorf("listing indexed files: %w", err)
	}
	var fileID int64 = -1
	for _, f := range files {
		if f.ContentID == id {
			fileID = f.ID
			break
		}
	}
	if fileID < 0 {
		return fmt.Errorf("%w: %s", errNotIndexed, input)
	}

	records, err := s.Covering(fileID, offset)
	if err != nil {
		return fmt.Errorf("querying index: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no node covers offset %d", offset)
	}
	for i, r := range records {
		fmt.Fprintf(w, "%s%s [offset=%d; size=%d]", strings.Repeat("  ", i), r.Name, r.Start, r.End-r.Start)
		if r.Value != "" {
			fmt.Fprintf(w, " = %s", r.Value)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "path: %s\n", records[len(records)-1].Path)
	return nil
}
