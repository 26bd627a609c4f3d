package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/praetorian-inc/kstree/pkg/config"
	"github.com/praetorian-inc/kstree/pkg/store"
	"github.com/praetorian-inc/kstree/pkg/tree"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	dumpOutput string
	dumpDepth  int
	dumpColor  string
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print the node tree of a file",
	Long: `Parse a file and print its node tree.

Each line shows a node's name, its byte range and, for values, the value
itself. Subtrees that fail to build are reported in place and do not stop
the dump.`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpOutput, "output", "o", "text", "Output format: text, json")
	dumpCmd.Flags().IntVarP(&dumpDepth, "depth", "d", -1, "Maximum depth to expand (-1 for all)")
	dumpCmd.Flags().StringVar(&dumpColor, "color", "", "Color output: auto, always, never (default from config)")
}

// styles holds color formatters per node kind
type styles struct {
	structure *color.Color
	list      *color.Color
	group     *color.Color
	value     *color.Color
	failure   *color.Color
}

// newStyles creates color formatters for dump output
func newStyles(enabled bool) *styles {
	s := &styles{
		structure: color.New(color.Bold, color.FgHiBlue),
		list:      color.New(color.FgCyan),
		group:     color.New(color.FgHiBlack),
		value:     color.New(color.FgYellow),
		failure:   color.New(color.FgRed),
	}

	if !enabled {
		s.structure.DisableColor()
		s.list.DisableColor()
		s.group.DisableColor()
		s.value.DisableColor()
		s.failure.DisableColor()
	}

	return s
}

func (s *styles) forKind(k tree.Kind) *color.Color {
	switch k {
	case tree.KindStruct:
		return s.structure
	case tree.KindList:
		return s.list
	case tree.KindGroup:
		return s.group
	default:
		return s.value
	}
}

// colorEnabled resolves a color mode against the terminal and NO_COLOR.
func colorEnabled(mode string) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""
	}
}

func runDump(cmd *cobra.Command, args []string) error {
	doc, cfg, err := openDocument(args[0])
	if err != nil {
		return err
	}

	mode := dumpColor
	if mode == "" {
		mode = cfg.Color
	}

	switch dumpOutput {
	case "text":
		return dumpText(cmd.OutOrStdout(), doc.Root(), dumpDepth, newStyles(colorEnabled(mode)))
	case "json":
		return dumpJSON(cmd.OutOrStdout(), doc.Root(), dumpDepth)
	default:
		return fmt.Errorf("unknown output format: %s", dumpOutput)
	}
}

// dumpText writes one indented line per node. Children that failed to build
// are written as error lines at their index.
func dumpText(w io.Writer, root tree.Node, maxDepth int, s *styles) error {
	var visit func(n tree.Node, depth int)
	visit = func(n tree.Node, depth int) {
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(w, "%s%s\n", indent, s.forKind(n.Kind()).Sprint(n.String()))

		if maxDepth >= 0 && depth >= maxDepth {
			return
		}
		for i := 0; i < n.ChildCount(); i++ {
			c, err := n.ChildAt(i)
			if err != nil {
				fmt.Fprintf(w, "%s  %s\n", indent, s.failure.Sprintf("! [%d] %v", i, err))
				continue
			}
			visit(c, depth+1)
		}
	}
	visit(root, 0)
	return nil
}

// jsonNode is the JSON form of a node and its expanded children.
type jsonNode struct {
	Name     string      `json:"name"`
	Kind     string      `json:"kind"`
	Type     string      `json:"type,omitempty"`
	Start    *int64      `json:"start,omitempty"`
	End      *int64      `json:"end,omitempty"`
	Value    string      `json:"value,omitempty"`
	Error    string      `json:"error,omitempty"`
	Children []*jsonNode `json:"children,omitempty"`
}

func toJSONNode(n tree.Node, depth, maxDepth int) *jsonNode {
	rec := store.NewRecord(n, depth)
	out := &jsonNode{
		Name:  rec.Name,
		Kind:  rec.Kind,
		Type:  rec.Type,
		Value: rec.Value,
	}
	if rec.HasSpan {
		out.Start = &rec.Start
		out.End = &rec.End
	}

	if maxDepth >= 0 && depth >= maxDepth {
		return out
	}
	for i := 0; i < n.ChildCount(); i++ {
		c, err := n.ChildAt(i)
		if err != nil {
			out.Children = append(out.Children, &jsonNode{Kind: "error", Error: err.Error()})
			continue
		}
		out.Children = append(out.Children, toJSONNode(c, depth+1, maxDepth))
	}
	return out
}

func dumpJSON(w io.Writer, root tree.Node, maxDepth int) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(toJSONNode(root, 0, maxDepth))
}
