// Package sqlite implements the metadata index on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lockbox-storage/lockbox"
	sqlitedriver "modernc.org/sqlite"
)

const recordColumns = `id, user_id, file_name, file_type, storage_key, storage_url, size_bytes, uploaded_at`

// timeLayout is fixed width so text comparison orders timestamps correctly.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// foldFunc lower-cases its argument with Unicode rules. SQLite's built-in
// lower() and LIKE only fold ASCII letters.
const foldFunc = "lockbox_fold"

func init() {
	sqlitedriver.MustRegisterDeterministicScalarFunction(foldFunc, 1, fold)
}

func fold(_ *sqlitedriver.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T", foldFunc, v)
	}
}

type Repo struct {
	db    *sql.DB
	table string
}

func NewRepo(db *sql.DB, tables lockbox.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return newRepo(db, tables.Files), nil
}

func newRepo(db *sql.DB, tableName string) *Repo {
	return &Repo{db: db, table: quoteIdentifier(tableName)}
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repo) Save(ctx context.Context, rec lockbox.FileRecord) (lockbox.FileRecord, error) {
	rec.ID = uuid.New()
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = time.Now()
	}
	rec.UploadedAt = rec.UploadedAt.UTC()

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, r.table, recordColumns)

	_, err := r.db.ExecContext(ctx, query,
		rec.ID.String(), rec.UserID, rec.FileName, rec.FileType,
		rec.StorageKey, rec.StorageURL, rec.SizeBytes, rec.UploadedAt.Format(timeLayout),
	)
	if err != nil {
		return lockbox.FileRecord{}, fmt.Errorf("save: %w", err)
	}

	return rec, nil
}

func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (lockbox.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, recordColumns, r.table) //nolint:gosec // table name is validated

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lockbox.FileRecord{}, fmt.Errorf("find by id: %w", lockbox.ErrNotFound)
		}
		return lockbox.FileRecord{}, fmt.Errorf("find by id: %w", err)
	}

	return rec, nil
}

func (r *Repo) FindByUser(ctx context.Context, userID string) ([]lockbox.FileRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s
		FROM %s
		WHERE user_id = ?
		ORDER BY uploaded_at, id`, recordColumns, r.table)

	return r.queryRecords(ctx, "find by user", query, userID)
}

func (r *Repo) FindByUserAndSubstring(ctx context.Context, userID, q string) ([]lockbox.FileRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s
		FROM %s
		WHERE user_id = ? AND %[3]s(file_name) LIKE '%%' || %[3]s(?) || '%%' ESCAPE '\'
		ORDER BY uploaded_at, id`, recordColumns, r.table, foldFunc)

	return r.queryRecords(ctx, "find by user and substring", query, userID, lockbox.EscapeLikePattern(q))
}

func (r *Repo) DeleteByID(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.table) //nolint:gosec // table name is validated

	result, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		return fmt.Errorf("delete by id: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete by id: rows affected: %w", err)
	}

	if rowsAffected == 0 {
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
		query = fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`SELECT %s
			FROM %s
			ORDER BY uploaded_at, id
			LIMIT ?`, recordColumns, r.table)
		args = []any{q.Limit + 1}
	} else {
		query = fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`SELECT %s
			FROM %s
			WHERE (uploaded_at, id) > (?, ?)
			ORDER BY uploaded_at, id
			LIMIT ?`, recordColumns, r.table)
		args = []any{cursor.UploadedAt.UTC().Format(timeLayout), cursor.ID.String(), q.Limit + 1}
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
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opName, err)
	}
	defer func() { _ = rows.Close() }()

	records := []lockbox.FileRecord{}
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%s: %w", opName, scanErr)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", opName, err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (lockbox.FileRecord, error) {
	var rec lockbox.FileRecord
	var idStr, uploadedAt string

	err := row.Scan(
		&idStr, &rec.UserID, &rec.FileName, &rec.FileType,
		&rec.StorageKey, &rec.StorageURL, &rec.SizeBytes, &uploadedAt,
	)
	if err != nil {
		return lockbox.FileRecord{}, err
	}

	rec.ID, err = uuid.Parse(idStr)
	if err != nil {
		return lockbox.FileRecord{}, fmt.Errorf("parse uuid: %w", err)
	}

	rec.UploadedAt, err = time.Parse(timeLayout, uploadedAt)
	if err != nil {
		return lockbox.FileRecord{}, fmt.Errorf("parse uploaded_at: %w", err)
	}

	return rec, nil
}
