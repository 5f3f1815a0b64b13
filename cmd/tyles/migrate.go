package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tyleshq/tyles/internal/config"
	"github.com/tyleshq/tyles/internal/gateway"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run local database migrations",
		Long: `Initialize or update the local SQLite schema to the latest
version. Only applies to the sqlite gateway backend; the hosted
backend manages its own schema.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	dbPath := config.ExpandPath(viper.GetString("database.path"))
	if dbPath == "" {
		var err error
		dbPath, err = defaultDBPath()
		if err != nil {
			return err
		}
	}

	slog.Info("running database migrations", "database", dbPath)

	gw, err := gateway.NewSQLiteGateway(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = gw.Close() }()

	if err := gw.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed")
	return nil
}
