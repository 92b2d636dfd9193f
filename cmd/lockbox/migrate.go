package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lockbox-storage/lockbox/config"
	"github.com/lockbox-storage/lockbox/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or verify the metadata index schema",
	Long: `Create the files table and its indexes if they do not exist, then
check that the existing schema matches what lockbox expects.

Use --check to only validate, e.g. before a deploy against a database
whose schema is managed elsewhere.`,
	RunE: runMigrate,
}

var migrateCheckOnly bool

func init() {
	migrateCmd.Flags().BoolVar(&migrateCheckOnly, "check", false, "only validate the schema, do not create anything")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err = db.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if !migrateCheckOnly {
		if err = db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	if err = db.Validate(ctx); err != nil {
		return fmt.Errorf("validate database schema: %w", err)
	}

	slog.Info("schema ready", "type", cfg.Database.Type, "table", cfg.Database.Tables.Files, "check_only", migrateCheckOnly)
	return nil
}
