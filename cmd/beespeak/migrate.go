package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"beespeak/internal/config"
	"beespeak/internal/storage"
)

var errNoDatabase = errors.New("DATABASE_URL is not set")

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the Postgres schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := databaseURL()
		if err != nil {
			return err
		}
		if err := storage.RunMigrations(url); err != nil {
			return err
		}
		slog.Info("migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every migration, dropping all records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := databaseURL()
		if err != nil {
			return err
		}
		if err := storage.MigrateDown(url); err != nil {
			return err
		}
		slog.Info("migrations rolled back")
		return nil
	},
}

func databaseURL() (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	if cfg.Storage.DatabaseURL == "" {
		return "", errNoDatabase
	}
	return cfg.Storage.DatabaseURL, nil
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}
