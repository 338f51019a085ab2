package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"beespeak/internal/bootstrap"
	"beespeak/internal/config"
	"beespeak/internal/export"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every apiary, hive and record as JSON or CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		store, closeStore, err := bootstrap.OpenStore(ctx, cfg.Storage, slog.Default())
		if err != nil {
			return err
		}
		defer closeStore()

		var data []byte
		switch strings.ToLower(exportFormat) {
		case "json":
			data, err = export.JSON(ctx, store, time.Now())
		case "csv":
			data, err = export.CSV(ctx, store, time.Now())
		default:
			return fmt.Errorf("unsupported export format %q (want json or csv)", exportFormat)
		}
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}

		if exportOutput == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
			return err
		}
		slog.Info("export written", "path", exportOutput, "format", exportFormat, "bytes", len(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Export format: json or csv")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to this file instead of stdout")
}
