package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"objcmeta/internal/config"
	"objcmeta/internal/slogutil"
	"objcmeta/internal/version"
)

var (
	rootDir   string
	verbosity int
	quiet     bool

	// Set by PersistentPreRunE for every command.
	cfg        *config.Config
	logger     = slogutil.NewDiscardLogger()
	logFactory *slogutil.LoggerFactory
)

var rootCmd = &cobra.Command{
	Use:   "objcmeta",
	Short: "objcmeta - C and Objective-C header metadata extractor",
	Long: `objcmeta reads C and Objective-C headers and produces a structured
description of their top-level declarations: variables and constants,
enums, structs, functions, Objective-C interfaces, categories and protocols.

Plain C headers are parsed directly. Objective-C headers are read from
AST snapshots recorded with a clang-backed tool (see dump-ast).`,
	Version:           version.Version,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFactory != nil {
			_ = logFactory.Close()
		}
	},
}

func init() {
	rootCmd.SetVersionTemplate(version.Full() + "\n")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Project root holding .objcmeta/ (default: current directory)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
}

// setup loads the project config and builds the process logger.
func setup(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}

	cfg, err = config.LoadConfig(root)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var cliLevel *slog.Level
	if quiet || verbosity > 0 {
		level := slogutil.LevelFromVerbosity(verbosity, quiet)
		cliLevel = &level
	}

	logFactory = slogutil.NewLoggerFactory(root, cfg.Logging, cliLevel)
	logger, err = logFactory.Logger(os.Stderr)
	if err != nil {
		logger.Warn("Failed to open log file", "path", logFactory.LogPath(), "error", err)
	}
	return nil
}

// projectRoot returns --root as an absolute path, or the working directory.
func projectRoot() (string, error) {
	if rootDir != "" {
		return filepath.Abs(rootDir)
	}
	return os.Getwd()
}
