package main

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/praetorian-inc/kstree/pkg/explore"
	"github.com/spf13/cobra"
)

var (
	exploreOffset string
)

var exploreCmd = &cobra.Command{
	Use:   "explore <file>",
	Short: "Interactively browse the node tree of a file",
	Long: `Launch an interactive TUI to browse the node tree of a file.

Features:
  - Tree pane with lazy expand and collapse
  - Hex pane highlighting the selected node's bytes
  - Failed subtrees shown in place
  - Vi-style navigation (hjkl, g/G)`,
	Args: cobra.ExactArgs(1),
	RunE: runExplore,
}

func init() {
	exploreCmd.Flags().StringVar(&exploreOffset, "offset", "", "Select the node covering this offset on start")
}

func runExplore(cmd *cobra.Command, args []string) error {
	doc, cfg, err := openDocument(args[0])
	if err != nil {
		return err
	}

	model := explore.New(doc.Root(), doc.Data, explore.Options{
		Title:       filepath.Base(doc.Path),
		HexWidth:    cfg.HexWidth,
		ExpandDepth: cfg.ExpandDepth,
	})

	if exploreOffset != "" {
		offset, err := parseOffset(exploreOffset)
		if err != nil {
			return err
		}
		if !model.JumpTo(offset) {
			return fmt.Errorf("no node covers offset %d", offset)
		}
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running explore TUI: %w", err)
	}

	return nil
}
