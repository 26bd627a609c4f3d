package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/praetorian-inc/kstree"
	"github.com/praetorian-inc/kstree/pkg/config"
	"github.com/praetorian-inc/kstree/pkg/datastore"
	"github.com/praetorian-inc/kstree/pkg/types"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	quiet      bool
	configPath    string
	formatName    string
	datastorePath string
)

var rootCmd = &cobra.Command{
	Use:   "kstree",
	Short: "kstree - browse binary files as span-annotated trees",
	Long: `kstree parses binary files into trees of structures, lists and values.
Every node records the byte range it was read from, so any offset in the
file can be traced back to the field that produced it.

Children are built only when they are visited.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: user config dir)")
	rootCmd.PersistentFlags().StringVarP(&formatName, "format", "f", "", "Input format (default: detect)")
	rootCmd.PersistentFlags().StringVar(&datastorePath, "datastore", "", "Datastore directory; inputs may then be given by content ID")

	// Add subcommands
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}

// openDocument loads the configuration and parses path with it, using the
// --format flag when set.
func openDocument(path string) (*kstree.Document, *config.Config, error) {
	return openDocumentAs(path, formatName)
}

// openDocumentAs is openDocument with an explicit format. An empty format
// means detect.
func openDocumentAs(path, format string) (*kstree.Document, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	opts := []kstree.Option{
		kstree.WithLogger(slog.Default()),
		kstree.WithMaxValueBytes(cfg.MaxValueBytes),
		kstree.WithOverlay(&cfg.Overlay),
	}
	if format != "" {
		opts = append(opts, kstree.WithFormat(format))
	}

	data, err := readInput(path)
	if err != nil {
		return nil, nil, err
	}
	doc, err := kstree.OpenBytes(path, data, opts...)
	if err != nil {
		return nil, nil, err
	}
	return doc, cfg, nil
}

// readInput reads path. When path is not a file but a content ID and a
// datastore with blobs is set, the stored content is returned instead.
func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) || datastorePath == "" {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	id, idErr := types.ParseContentID(path)
	if idErr != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if _, statErr := os.Stat(datastorePath); statErr != nil {
		return nil, fmt.Errorf("datastore not found: %s", datastorePath)
	}
	ds, dsErr := datastore.Open(datastorePath, datastore.Options{})
	if dsErr != nil {
		return nil, dsErr
	}
	defer ds.Close()
	if ds.BlobStore == nil {
		return nil, fmt.Errorf("datastore %s does not store file contents", datastorePath)
	}
	return ds.BlobStore.Get(id)
}
