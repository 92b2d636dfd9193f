package filesystem_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/lockbox-storage/lockbox"
	"github.com/lockbox-storage/lockbox/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*filesystem.Store, string) {
	t.Helper()
	tempDir := t.TempDir()
	osDir, err := os.OpenRoot(tempDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = osDir.Close() })
	return filesystem.NewFileStorage(osDir), tempDir
}

func TestStore_Get_Success(t *testing.T) {
	store, tempDir := newStore(t)

	content := []byte("test content")
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "u1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "u1", "test.png"), content, 0o644))

	obj, err := store.Get(context.Background(), "u1/test.png")
	require.NoError(t, err)

	assert.Equal(t, int64(len(content)), obj.Size)
	assert.Empty(t, obj.ContentType, "filesystem keeps no content type")

	readContent, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, content, readContent)

	assert.NoError(t, obj.Body.Close())
}

func TestStore_Get_ContextCanceled(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	obj, err := store.Get(ctx, "u1/test.png")

	assert.Equal(t, context.Canceled, err)
	assert.Nil(t, obj.Body)
}

func TestStore_Get_NotFound(t *testing.T) {
	store, tempDir := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "u1"), 0o755))

	_, err := store.Get(context.Background(), "u1/nonexistent.png")
	assert.ErrorIs(t, err, lockbox.ErrNotFound)

	_, err = store.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, lockbox.ErrNotFound, "directories are not blobs")
}

func TestStore_Get_EscapeRoot(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.Get(context.Background(), "../outside.txt")
	assert.Error(t, err)
}

func TestStore_Put_Success(t *testing.T) {
	store, tempDir := newStore(t)

	result, err := store.Put(context.Background(), "u1/test.png", bytes.NewReader([]byte("test content")), "image/png")
	require.NoError(t, err)

	assert.Equal(t, int64(12), result.BytesWritten)
	assert.Len(t, result.ETag, 64) // SHA256 hex length

	written, err := os.ReadFile(filepath.Join(tempDir, "u1", "test.png"))
	require.NoError(t, err)
	assert.Equal(t, "test content", string(written))
}

func TestStore_Put_Overwrite(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "u1/a.png", strings.NewReader("first"), "image/png")
	require.NoError(t, err)
	_, err = store.Put(ctx, "u1/a.png", strings.NewReader("second"), "image/png")
	require.NoError(t, err)

	obj, err := store.Get(ctx, "u1/a.png")
	require.NoError(t, err)
	defer func() { _ = obj.Body.Close() }()

	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("read failed")
}

func TestStore_Put_ReadErrorLeavesNoFiles(t *testing.T) {
	store, tempDir := newStore(t)

	_, err := store.Put(context.Background(), "u1/a.png", failingReader{}, "image/png")
	assert.Error(t, err)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file should be removed")
}

func TestStore_Put_ContextCanceled(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Put(ctx, "u1/a.png", strings.NewReader("x"), "image/png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_Delete(t *testing.T) {
	store, tempDir := newStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "u1/a.png", strings.NewReader("a"), "image/png")
	require.NoError(t, err)
	_, err = store.Put(ctx, "u1/b.png", strings.NewReader("b"), "image/png")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "u1/a.png"))

	_, err = store.Get(ctx, "u1/a.png")
	assert.ErrorIs(t, err, lockbox.ErrNotFound)
	assert.DirExists(t, filepath.Join(tempDir, "u1"), "non-empty directory stays")

	require.NoError(t, store.Delete(ctx, "u1/b.png"))
	assert.NoDirExists(t, filepath.Join(tempDir, "u1"), "empty directory is removed")

	err = store.Delete(ctx, "u1/b.png")
	assert.ErrorIs(t, err, lockbox.ErrNotFound)
}

func TestStore_List(t *testing.T) {
	store, tempDir := newStore(t)
	ctx := context.Background()

	for _, key := range []string{"u1/a.png", "u1/3f1c/b.pdf", "u2/c.mp4"} {
		_, err := store.Put(ctx, key, strings.NewReader(key), "")
		require.NoError(t, err)
	}

	// a leftover temp file from an interrupted write
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, ".tleftover"), []byte("x"), 0o644))

	infos, err := store.List(ctx)
	require.NoError(t, err)

	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		keys = append(keys, info.Key)
		assert.Equal(t, int64(len(info.Key)), info.Size)
		assert.False(t, info.LastModified.IsZero())
	}
	sort.Strings(keys)

	assert.Equal(t, []string{"u1/3f1c/b.pdf", "u1/a.png", "u2/c.mp4"}, keys)
}

func TestStore_List_Empty(t *testing.T) {
	store, _ := newStore(t)

	infos, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestStore_ImplementsInterfaces(t *testing.T) {
	store, _ := newStore(t)

	var _ lockbox.ObjectStore = store
	var _ lockbox.ObjectLister = store
}
