package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"beespeak/internal/config"
)

var (
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "beespeak",
	Short: "Offline tools for the BeeSpeak voice inspection backend",
	Long: `beespeak exercises the voice engine without a microphone and manages the
record store: interpret typed utterances, dump the active vocabulary, export
records and run database migrations.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if cfg, err := config.Load(); err == nil {
			level = cfg.Log.SlogLevel()
		}
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
		slog.SetDefault(logger)
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}
