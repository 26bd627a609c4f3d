package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/praetorian-inc/kstree/pkg/formats"
	"github.com/spf13/cobra"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List built-in formats",
	RunE:  runFormats,
}

func runFormats(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEXTENSIONS\tDESCRIPTION")
	for _, f := range formats.All() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.Name, strings.Join(f.Extensions, ","), f.Description)
	}
	return w.Flush()
}
