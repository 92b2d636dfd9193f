package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lockbox-storage/lockbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func TestRepo_Save(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	rec := newRecord("u1", "cat.png", baseTime)
	saved, err := repo.Save(ctx, rec)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, saved.ID)
	assert.Equal(t, rec.UserID, saved.UserID)
	assert.Equal(t, rec.FileName, saved.FileName)
	assert.Equal(t, rec.FileType, saved.FileType)
	assert.Equal(t, rec.StorageKey, saved.StorageKey)
	assert.Equal(t, rec.StorageURL, saved.StorageURL)
	assert.Equal(t, rec.SizeBytes, saved.SizeBytes)
	assert.True(t, rec.UploadedAt.Equal(saved.UploadedAt))

	t.Run("same key twice creates two records", func(t *testing.T) {
		again, err := repo.Save(ctx, rec)
		require.NoError(t, err)
		assert.NotEqual(t, saved.ID, again.ID)

		records, err := repo.FindByUser(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("zero upload time defaults to now", func(t *testing.T) {
		before := time.Now().Add(-time.Second)
		got, err := repo.Save(ctx, newRecord("u9", "z.png", time.Time{}))
		require.NoError(t, err)
		assert.True(t, got.UploadedAt.After(before))
	})
}

func TestRepo_FindByID(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, newRecord("u1", "a.png", baseTime))
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		got, err := repo.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, saved, got)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, lockbox.ErrNotFound)
	})
}

func TestRepo_FindByUser(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.Save(ctx, newRecord("u1", "second.png", baseTime.Add(time.Minute)))
	require.NoError(t, err)
	_, err = repo.Save(ctx, newRecord("u1", "first.png", baseTime))
	require.NoError(t, err)
	_, err = repo.Save(ctx, newRecord("u2", "other.png", baseTime))
	require.NoError(t, err)

	t.Run("ordered by upload time", func(t *testing.T) {
		records, err := repo.FindByUser(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "first.png", records[0].FileName)
		assert.Equal(t, "second.png", records[1].FileName)
	})

	t.Run("unknown user returns empty slice", func(t *testing.T) {
		records, err := repo.FindByUser(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})
}

func TestRepo_FindByUserAndSubstring(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for i, name := range []string{"Report.PDF", "annual_report.pdf", "photo.png", "100%.png"} {
		_, err := repo.Save(ctx, newRecord("u1", name, baseTime.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}
	_, err := repo.Save(ctx, newRecord("u2", "report.pdf", baseTime))
	require.NoError(t, err)

	tests := []struct {
		name  string
		q     string
		names []string
	}{
		{"case insensitive", "report", []string{"Report.PDF", "annual_report.pdf"}},
		{"upper case keyword", "PHOTO", []string{"photo.png"}},
		{"empty keyword matches all", "", []string{"Report.PDF", "annual_report.pdf", "photo.png", "100%.png"}},
		{"percent is literal", "%", []string{"100%.png"}},
		{"underscore is literal", "_", []string{"annual_report.pdf"}},
		{"no match", "zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := repo.FindByUserAndSubstring(ctx, "u1", tt.q)
			require.NoError(t, err)

			names := make([]string, 0, len(records))
			for _, r := range records {
				assert.Equal(t, "u1", r.UserID)
				names = append(names, r.FileName)
			}
			assert.Equal(t, tt.names, names)
		})
	}
}

func TestRepo_DeleteByID(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, newRecord("u1", "a.png", baseTime))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByID(ctx, saved.ID))

	_, err = repo.FindByID(ctx, saved.ID)
	assert.ErrorIs(t, err, lockbox.ErrNotFound)

	err = repo.DeleteByID(ctx, saved.ID)
	assert.ErrorIs(t, err, lockbox.ErrNotFound)
}

func TestRepo_All(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		user := "u1"
		if i%2 == 1 {
			user = "u2"
		}
		saved, err := repo.Save(ctx, newRecord(user, "f.png", baseTime.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
		ids = append(ids, saved.ID)
	}

	t.Run("pages through every user", func(t *testing.T) {
		var got []uuid.UUID
		cursor := ""
		pages := 0
		for {
			res, err := repo.All(ctx, lockbox.ListQuery{Limit: 2, Cursor: cursor})
			require.NoError(t, err)
			pages++
			for _, r := range res.Items {
				got = append(got, r.ID)
			}
			if res.NextCursor == "" {
				break
			}
			cursor = res.NextCursor
		}
		assert.Equal(t, ids, got)
		assert.Equal(t, 3, pages)
	})

	t.Run("exact page has no cursor", func(t *testing.T) {
		res, err := repo.All(ctx, lockbox.ListQuery{Limit: 5})
		require.NoError(t, err)
		assert.Len(t, res.Items, 5)
		assert.Empty(t, res.NextCursor)
	})

	t.Run("invalid cursor", func(t *testing.T) {
		_, err := repo.All(ctx, lockbox.ListQuery{Limit: 2, Cursor: "!!!"})
		assert.ErrorIs(t, err, lockbox.ErrInvalidInput)
	})

	t.Run("invalid limit", func(t *testing.T) {
		_, err := repo.All(ctx, lockbox.ListQuery{})
		assert.ErrorIs(t, err, lockbox.ErrInvalidInput)
	})
}
