package database

import (
	"context"
	"fmt"

	"github.com/lockbox-storage/lockbox"
	"github.com/lockbox-storage/lockbox/database/postgres"
	"github.com/lockbox-storage/lockbox/database/sqlite"
)

// Config holds the configuration for connecting to a metadata index backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" validate:"required"`
	// AutoMigrate creates missing tables when the server starts
	AutoMigrate bool `mapstructure:"auto_migrate"`
	// Tables holds the table names
	Tables lockbox.Tables `mapstructure:"tables"`
}

// Validate checks the backend type and the table names.
func (c Config) Validate() error {
	switch c.Type {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}

	if err := c.Tables.Validate(); err != nil {
		return fmt.Errorf("validate database config: %w", err)
	}

	return nil
}

// Database is a connected metadata index backend.
type Database interface {
	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
	// Migrate creates the tables and indexes if they do not exist.
	Migrate(ctx context.Context) error
	// Validate checks that the existing schema matches what the index expects.
	Validate(ctx context.Context) error
	// GetRepo returns the MetadataIndex backed by this database.
	GetRepo() lockbox.MetadataIndex
	// Close releases the connection.
	Close() error
}

// Connect opens the configured backend. It does not migrate or validate;
// callers decide which of the two to run.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		db, err := sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
		return db, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}
