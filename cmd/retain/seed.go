package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/retainhq/retain/internal/config"
	"github.com/retainhq/retain/internal/database"
	"github.com/retainhq/retain/internal/seed"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo users and customers into the database",
		Long: `Seed inserts demo data for local development: two users (password
"retain-demo") and a spread of customers across industries, health scores,
and renewal dates. Seeding is idempotent; existing data is left alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			db, err := database.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer func() { _ = db.Close() }()

			if err := database.Migrate(cmd.Context(), db); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			if err := seed.Seed(cmd.Context(), db); err != nil {
				return fmt.Errorf("seed data: %w", err)
			}

			slog.Info("seeded demo data", "db", cfg.DBPath)
			return nil
		},
	}
}
