package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/lockbox-storage/lockbox"
	"github.com/lockbox-storage/lockbox/database/sqlite"
	"github.com/stretchr/testify/require"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestRepo creates a repo with a unique table name for test isolation
func setupTestRepo(t *testing.T) lockbox.MetadataIndex {
	t.Helper()

	ctx := context.Background()
	tables := lockbox.Tables{Files: fmt.Sprintf("files_%s", getRandomString(t))}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx), "failed to migrate")

	return db.GetRepo()
}

func newRecord(userID, fileName string, uploadedAt time.Time) lockbox.FileRecord {
	key := userID + "/" + fileName
	return lockbox.FileRecord{
		UserID:     userID,
		FileName:   fileName,
		FileType:   "image/png",
		StorageKey: key,
		StorageURL: "https://bkt.s3.amazonaws.com/" + key,
		SizeBytes:  42,
		UploadedAt: uploadedAt,
	}
}
