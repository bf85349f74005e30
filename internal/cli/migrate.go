package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/quizhub-api/internal/config"
	"github.com/noah-isme/quizhub-api/internal/database"
)

func newMigrateCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFiles(*envFile)...)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			db, err := database.ConnectPostgres(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			if err := database.Migrate(cmd.Context(), db); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			logger := newLogger(cfg)
			logger.Info().Msg("database schema is up to date")
			return nil
		},
	}
}
