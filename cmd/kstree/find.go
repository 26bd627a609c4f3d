package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/praetorian-inc/kstree/pkg/search"
	"github.com/praetorian-inc/kstree/pkg/tree"
	"github.com/praetorian-inc/kstree/pkg/types"
	"github.com/spf13/cobra"
)

var (
	findName  string
	findBytes []string
	findText  []string
)

var errNoQuery = errors.New("one of --name, --bytes or --text is required")

var findCmd = &cobra.Command{
	Use:   "find <file>",
	Short: "Find nodes by name or by the bytes they contain",
	Long: `Find nodes in a file's tree.

--name matches node names against a regular expression.
--bytes and --text search the raw file and report, for every occurrence,
the smallest node whose byte range holds it.`,
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

func init() {
	findCmd.Flags().StringVar(&findName, "name", "", "Regular expression matched against node names")
	findCmd.Flags().StringArrayVar(&findBytes, "bytes", nil, "Hex byte pattern, e.g. \"49 45 4E 44\" (repeatable)")
	findCmd.Flags().StringArrayVar(&findText, "text", nil, "Literal text pattern (repeatable)")
}

func runFind(cmd *cobra.Command, args []string) error {
	if findName == "" && len(findBytes) == 0 && len(findText) == 0 {
		return errNoQuery
	}

	var patterns []search.Pattern
	for _, h := range findBytes {
		p, err := search.Hex(h)
		if err != nil {
			return err
		}
		patterns = append(patterns, p)
	}
	for _, s := range findText {
		patterns = append(patterns, search.Text(s))
	}

	var nameRe *regexp2.Regexp
	if findName != "" {
		re, err := regexp2.Compile(findName, regexp2.RE2)
		if err != nil {
			return fmt.Errorf("invalid --name pattern: %w", err)
		}
		re.MatchTimeout = 5 * time.Second
		nameRe = re
	}

	doc, _, err := openDocument(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if nameRe != nil {
		if err := findByName(out, doc.Root(), nameRe); err != nil {
			return err
		}
	}
	if len(patterns) > 0 {
		if err := findByBytes(out, doc.Root(), doc.Data, patterns); err != nil {
			return err
		}
	}
	return nil
}

func findByName(w io.Writer, root tree.Node, re *regexp2.Regexp) error {
	var matchErr error
	found, err := tree.Find(root, func(n tree.Node) bool {
		ok, err := re.MatchString(n.Name())
		if err != nil && matchErr == nil {
			matchErr = err
		}
		return ok
	})
	if matchErr != nil {
		return fmt.Errorf("matching names: %w", matchErr)
	}
	if err != nil {
		slog.Warn("some subtrees could not be built", "error", err)
	}

	for _, n := range found {
		fmt.Fprintf(w, "%s\t%s\n", tree.PathString(n), n)
	}
	return nil
}

func findByBytes(w io.Writer, root tree.Node, data []byte, patterns []search.Pattern) error {
	s, err := search.New(patterns)
	if err != nil {
		return err
	}

	for _, hit := range s.Search(data) {
		n := holder(root, hit.Span)
		if n == nil {
			fmt.Fprintf(w, "0x%08x\t%s\t-\n", hit.Span.Start, hit.Pattern)
			continue
		}
		fmt.Fprintf(w, "0x%08x\t%s\t%s\t%s\n", hit.Span.Start, hit.Pattern, tree.PathString(n), n)
	}
	return nil
}

// holder returns the smallest node whose span holds all of span.
func holder(root tree.Node, span types.Span) tree.Node {
	n, ok := tree.Locate(root, span.Start)
	if !ok {
		return nil
	}
	for cur := n; cur != nil; cur = cur.Parent() {
		if s, ok := cur.Span(); ok && s.Start <= span.Start && span.End <= s.End {
			return cur
		}
	}
	return nil
}
