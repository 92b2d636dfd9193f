// Package filesystem provides a local file system object store for lockbox.
// It supports atomic writes using temp files and SHA256-based etags. It keeps
// no content type with a blob, so downloads fall back to the key's extension.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/lockbox-storage/lockbox"
)

const tmpPrefix = ".t"

// Store provides file system storage operations.
type Store struct {
	root *os.Root
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root) *Store {
	return &Store{root: root}
}

// Get opens the blob at key. Returns lockbox.ErrNotFound if the file does not exist.
// ContentType is always empty.
func (s *Store) Get(ctx context.Context, key string) (lockbox.Object, error) {
	if err := ctx.Err(); err != nil {
		return lockbox.Object{}, err
	}

	f, err := s.root.Open(filepath.FromSlash(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return lockbox.Object{}, lockbox.ErrNotFound
		}
		return lockbox.Object{}, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return lockbox.Object{}, fmt.Errorf("failed to stat file: %w", err)
	}

	if info.IsDir() {
		_ = f.Close()
		return lockbox.Object{}, lockbox.ErrNotFound
	}

	return lockbox.Object{Body: f, Size: info.Size()}, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Put atomically writes content to key using a temp file and rename, replacing
// any existing blob. It creates intermediate directories as needed and returns
// the number of bytes written and a SHA256-based etag. contentType is not stored.
// The operation respects context cancellation.
func (s *Store) Put(ctx context.Context, key string, content io.Reader, _ string) (lockbox.PutResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return lockbox.PutResult{}, ctxErr
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return lockbox.PutResult{}, fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	w := io.MultiWriter(h, t)

	size, err := io.Copy(w, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return lockbox.PutResult{}, fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return lockbox.PutResult{}, fmt.Errorf("could not sync written file: %w", err)
	}

	dest := filepath.FromSlash(key)
	destDir := filepath.Dir(dest)
	if destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return lockbox.PutResult{}, fmt.Errorf("could not create intermediate directories: %w", err)
		}
	}

	if renameErr := s.root.Rename(tmpFile, dest); renameErr != nil {
		return lockbox.PutResult{}, fmt.Errorf("failed to rename file: %w", renameErr)
	}

	success = true

	return lockbox.PutResult{BytesWritten: size, ETag: hex.EncodeToString(h.Sum(nil))}, nil
}

// Delete removes the blob at key and any parent directories it leaves empty.
// Returns lockbox.ErrNotFound if the file does not exist.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.root.Remove(filepath.FromSlash(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return lockbox.ErrNotFound
		}
		return fmt.Errorf("could not delete file: %w", err)
	}

	// Remove fails on non-empty directories, which ends the walk.
	for dir := path.Dir(key); dir != "."; dir = path.Dir(dir) {
		if err := s.root.Remove(filepath.FromSlash(dir)); err != nil {
			break
		}
	}

	return nil
}

// List recursively walks the root directory and returns every blob with its
// key, size and modification time. Temp files of in-flight writes are skipped.
func (s *Store) List(ctx context.Context) ([]lockbox.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := []lockbox.ObjectInfo{}

	err := s.walkDir(ctx, ".", &entries)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return entries, nil
}

func (s *Store) walkDir(ctx context.Context, dir string, entries *[]lockbox.ObjectInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), dir)
	if err != nil {
		return err
	}

	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return err
		}

		entryPath := path.Join(dir, entry.Name())

		if entry.IsDir() {
			if err := s.walkDir(ctx, entryPath, entries); err != nil {
				return err
			}
			continue
		}

		if dir == "." && strings.HasPrefix(entry.Name(), tmpPrefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		*entries = append(*entries, lockbox.ObjectInfo{
			Key:          entryPath,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
	}

	return nil
}

func tmpFileName() string {
	return tmpPrefix + uuid.New().String()
}
