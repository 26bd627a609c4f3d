package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/praetorian-inc/kstree/pkg/serve"
	"github.com/praetorian-inc/kstree/pkg/tree"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a streaming server for editor and viewer integration",
	Long: `Run kstree as a long-lived server that accepts requests via stdin and
writes responses via stdout using NDJSON format.

Clients open files, then expand nodes and locate offsets on demand.
The process runs until stdin closes or SIGTERM is received.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigChan
		cancel()
	}()

	srv := serve.NewServer(openTree, cmd.InOrStdin(), cmd.OutOrStdout())
	return srv.Run(ctx)
}

// openTree opens path for the server. The request's format wins over --format.
func openTree(path, format string) (*tree.Tree, error) {
	if format == "" {
		format = formatName
	}
	doc, _, err := openDocumentAs(path, format)
	if err != nil {
		return nil, err
	}
	return doc.Tree, nil
}
