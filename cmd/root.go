package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// dataDirEnv overrides the default data directory.
const dataDirEnv = "BLOCKSAD_DATA_DIR"

var (
	logLevel  string
	logFormat string
	dataDir   string
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "blocksad",
	Short: "SAD kernels for block motion estimation",
	Long: `blocksad computes the sum of absolute differences between 8-bit sample
blocks for the partition sizes of a video encoder's motion search, and ships
tooling to verify, benchmark and exercise the kernels.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger(logLevel, logFormat)

		if !cmd.Flags().Changed("data-dir") {
			if dir := os.Getenv(dataDirEnv); dir != "" {
				dataDir = dir
			}
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "Log format (json, text)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./data", "Base directory for reports and traces (env "+dataDirEnv+")")
}

func setupLogger(levelName, format string) {
	var level slog.Level
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// Logs go to stderr so command output on stdout stays parseable.
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	logger = slog.New(handler)
	slog.SetDefault(logger)
}
