// Package postgres implements the metadata index on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lockbox-storage/lockbox"
)

const recordColumns = `id, user_id, file_name, file_type, storage_key, storage_url, size_bytes, uploaded_at`

type Repo struct {
	pool  *pgxpool.Pool
	table string
}

func NewRepo(pool *pgxpool.Pool, tables lockbox.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return newRepo(pool, tables.Files), nil
}

func newRepo(pool *pgxpool.Pool, tableName string) *Repo {
	return &Repo{pool: pool, table: pgx.Identifier{tableName}.Sanitize()}
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repo) Save(ctx context.Context, rec lockbox.FileRecord) (lockbox.FileRecord, error) {
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, file_name, file_type, storage_key, storage_url, size_bytes, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s
	`, r.table, recordColumns)

	saved, err := scanRecord(r.pool.QueryRow(ctx, query,
		rec.UserID, rec.FileName, rec.FileType, rec.StorageKey, rec.StorageURL, rec.SizeBytes, rec.UploadedAt,
	))
	if err != nil {
		return lockbox.FileRecord{}, fmt.Errorf("save: %w", err)
	}

	return saved, nil
}

func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (lockbox.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, recordColumns, r.table)

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return lockbox.FileRecord{}, fmt.Errorf("find by id: %w", lockbox.ErrNotFound)
		}
		return lockbox.FileRecord{}, fmt.Errorf("find by id: %w", err)
	}

	return rec, nil
}

func (r *Repo) FindByUser(ctx context.Context, userID string) ([]lockbox.FileRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = $1
		ORDER BY uploaded_at, id
	`, recordColumns, r.table)

	return r.queryRecords(ctx, "find by user", query, userID)
}

func (r *Repo) FindByUserAndSubstring(ctx context.Context, userID, q string) ([]lockbox.FileRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = $1 AND file_name ILIKE '%%' || $2 || '%%'
		ORDER BY uploaded_at, id
	`, recordColumns, r.table)

	return r.queryRecords(ctx, "find by user and substring", query, userID, lockbox.EscapeLikePattern(q))
}

func (r *Repo) DeleteByID(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete by id: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete by id: %w", lockbox.ErrNotFound)
	}

	return nil
}

func (r *Repo) All(ctx context.Context, q lockbox.ListQuery) (lockbox.ListResult, error) {
	if q.Limit <= 0 {
		return lockbox.ListResult{}, fmt.Errorf("all: %w: limit must be positive", lockbox.ErrInvalidInput)
	}

	cursor, err := lockbox.DecodeCursor(q.Cursor)
	if err != nil {
		return lockbox.ListResult{}, fmt.Errorf("all: %w", err)
	}

	var query string
	var args []any

	if q.Cursor == "" {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			ORDER BY uploaded_at, id
			LIMIT $1
		`, recordColumns, r.table)
		args = []any{q.Limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE (uploaded_at, id) > ($1, $2)
			ORDER BY uploaded_at, id
			LIMIT $3
		`, recordColumns, r.table)
		args = []any{cursor.UploadedAt, cursor.ID, q.Limit + 1}
	}

	items, err := r.queryRecords(ctx, "all", query, args...)
	if err != nil {
		return lockbox.ListResult{}, err
	}

	var nextCursor string
	if len(items) > q.Limit {
		// Cursor points to the last item of the current page
		lastItem := items[q.Limit-1]
		nextCursor = lockbox.EncodeCursor(lastItem.UploadedAt, lastItem.ID)
		items = items[:q.Limit]
	}

	return lockbox.ListResult{Items: items, NextCursor: nextCursor}, nil
}

func (r *Repo) queryRecords(ctx context.Context, opName, query string, args ...any) ([]lockbox.FileRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opName, err)
	}
	defer rows.Close()

	records := []lockbox.FileRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", opName, err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", opName, err)
	}

	return records, nil
}

func scanRecord(row pgx.Row) (lockbox.FileRecord, error) {
	var rec lockbox.FileRecord
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.FileName, &rec.FileType,
		&rec.StorageKey, &rec.StorageURL, &rec.SizeBytes, &rec.UploadedAt,
	)
	if err != nil {
		return lockbox.FileRecord{}, err
	}
	rec.UploadedAt = rec.UploadedAt.UTC()
	return rec, nil
}
