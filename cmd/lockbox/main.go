package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lockbox-storage/lockbox/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "lockbox",
	Short:   "Per-user file storage gateway",
	Long: `Lockbox stores files for authenticated users in a filesystem or S3
object store and keeps a searchable metadata index in SQLite or Postgres.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file paths, merged left to right (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (default: sqlite, env: LOCKBOX_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: lockbox.db, env: LOCKBOX_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-type", "", "object store: filesystem, s3 (default: filesystem, env: LOCKBOX_STORAGE_TYPE)")
	rootCmd.PersistentFlags().String("storage-path", "", "storage directory path (default: ./data, env: LOCKBOX_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: LOCKBOX_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
