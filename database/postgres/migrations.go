package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lockbox-storage/lockbox"
)

// Migrate creates the files table and its indexes if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables lockbox.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if err := createFilesTable(ctx, pool, tables.Files); err != nil {
		return fmt.Errorf("migrate up %s: %w", tables.Files, err)
	}

	return nil
}

func createFilesTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexUserList := pgx.Identifier{fmt.Sprintf("idx_%s_user_list", tableName)}.Sanitize()
	indexScan := pgx.Identifier{fmt.Sprintf("idx_%s_scan", tableName)}.Sanitize()
	indexStorageKey := pgx.Identifier{fmt.Sprintf("idx_%s_storage_key", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id TEXT NOT NULL,
			file_name TEXT NOT NULL,
			file_type TEXT NOT NULL,
			storage_key TEXT NOT NULL,
			storage_url TEXT NOT NULL,
			size_bytes BIGINT NOT NULL,
			uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (user_id, uploaded_at, id);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (uploaded_at, id);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (storage_key);
	`,
		quotedTable,
		indexUserList, quotedTable,
		indexScan, quotedTable,
		indexStorageKey, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create files table: %w", err)
	}
	return nil
}

// DropTables removes the files table. Used by tests and by operators resetting
// a development database.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables lockbox.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}

	quotedTable := pgx.Identifier{tables.Files}.Sanitize()
	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", quotedTable)); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}

	return nil
}
