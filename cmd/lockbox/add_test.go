package main

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scans", "2024"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scans", "a.pdf"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scans", "2024", "b.png"), []byte("b"), 0o644))

	t.Run("single file", func(t *testing.T) {
		entries, err := collectFiles(filepath.Join(dir, "scans", "a.pdf"), false)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "a.pdf", entries[0].fileName)
	})

	t.Run("directory without recursion", func(t *testing.T) {
		_, err := collectFiles(filepath.Join(dir, "scans"), false)
		assert.Error(t, err)
	})

	t.Run("directory stores base names", func(t *testing.T) {
		entries, err := collectFiles(filepath.Join(dir, "scans"), true)
		require.NoError(t, err)

		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.fileName)
		}
		sort.Strings(names)
		assert.Equal(t, []string{"a.pdf", "b.png"}, names)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := collectFiles(filepath.Join(dir, "nope"), false)
		assert.Error(t, err)
	})
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "image/png", detectContentType("cat.png"))
	assert.Equal(t, "application/pdf", detectContentType("report.pdf"))
	assert.Equal(t, "application/octet-stream", detectContentType("README"))
	assert.Equal(t, "application/octet-stream", detectContentType("blob.unknownext"))
}
