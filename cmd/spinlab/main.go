package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/spinlab/internal/storage"
	"github.com/san-kum/spinlab/internal/viz"
)

var (
	dataDir  string
	logLevel string
	logJSON  bool
)

// main registers every command and opens the interactive preset picker when
// no subcommand is given.
func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "spinlab",
		Short:         "monte carlo relaxation of 2d spin lattices",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".spinlab", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as json")

	rootCmd.AddCommand(
		newRunCmd(),
		newEnsembleCmd(),
		newLiveCmd(),
		newBenchCmd(),
		newListCmd(),
		newShowCmd(),
		newPlotCmd(),
		newAnalyzeCmd(),
		newExportCSVCmd(),
		newExportJSONCmd(),
		newSVGCmd(),
		newPresetsCmd(),
		newDeleteCmd(),
	)
	return rootCmd
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// newLogger builds the CLI logger on stderr from the global flags.
func newLogger() (*slog.Logger, error) {
	level, err := parseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if logJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func openIndex() (*storage.Index, error) {
	return storage.OpenIndex(filepath.Join(dataDir, "index.db"))
}
