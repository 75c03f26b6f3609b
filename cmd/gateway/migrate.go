// cmd/gateway/migrate.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the submission ledger tables",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	zapLog := newLogger(cfg)
	defer zapLog.Sync()

	if !cfg.Database.Postgres.Enabled {
		return fmt.Errorf("database.postgres.enabled is false, nothing to migrate")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	pg, err := connectPostgres(ctx, cfg.Database.Postgres, zapLog)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := pg.Migrate(ctx); err != nil {
		return err
	}
	zapLog.Info("migrations applied")
	return nil
}
