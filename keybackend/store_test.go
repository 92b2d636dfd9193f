package keybackend_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lockbox-storage/lockbox"
	"github.com/lockbox-storage/lockbox/keybackend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTokensFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewTokenStore_InlineOnly(t *testing.T) {
	t.Parallel()

	cfg := keybackend.KeysConfig{
		Inline: []keybackend.TokenPair{
			{Token: "tok-alice", UserID: "alice"},
			{Token: "tok-bob", UserID: "bob"},
		},
	}

	store, err := keybackend.NewTokenStore(cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	user, err := store.Lookup("tok-alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user)

	user, err = store.Lookup("tok-bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", user)
}

func TestNewTokenStore_FileOnly(t *testing.T) {
	t.Parallel()

	path := writeTokensFile(t, `[
		{"token": "file-tok-1", "user_id": "u1"},
		{"token": "file-tok-2", "user_id": "u2"}
	]`)

	store, err := keybackend.NewTokenStore(keybackend.KeysConfig{File: path})
	require.NoError(t, err)

	user, err := store.Lookup("file-tok-2")
	require.NoError(t, err)
	assert.Equal(t, "u2", user)
}

func TestNewTokenStore_FileOverridesInline(t *testing.T) {
	t.Parallel()

	path := writeTokensFile(t, `[{"token": "shared", "user_id": "from-file"}]`)

	cfg := keybackend.KeysConfig{
		Inline: []keybackend.TokenPair{
			{Token: "shared", UserID: "from-inline"},
			{Token: "inline-only", UserID: "inline-user"},
		},
		File: path,
	}

	store, err := keybackend.NewTokenStore(cfg)
	require.NoError(t, err)

	user, err := store.Lookup("shared")
	require.NoError(t, err)
	assert.Equal(t, "from-file", user)

	user, err = store.Lookup("inline-only")
	require.NoError(t, err)
	assert.Equal(t, "inline-user", user)
}

func TestNewTokenStore_SkipsIncompletePairs(t *testing.T) {
	t.Parallel()

	cfg := keybackend.KeysConfig{
		Inline: []keybackend.TokenPair{
			{Token: "", UserID: "nobody"},
			{Token: "orphan", UserID: ""},
			{Token: "ok", UserID: "u1"},
		},
	}

	store, err := keybackend.NewTokenStore(cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestNewTokenStore_InvalidUserID(t *testing.T) {
	t.Parallel()

	cfg := keybackend.KeysConfig{
		Inline: []keybackend.TokenPair{{Token: "tok", UserID: "a/b"}},
	}

	_, err := keybackend.NewTokenStore(cfg)
	assert.Error(t, err)
}

func TestNewTokenStore_FileErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		_, err := keybackend.NewTokenStore(keybackend.KeysConfig{File: filepath.Join(t.TempDir(), "nope.json")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read tokens file")
	})

	t.Run("invalid json", func(t *testing.T) {
		path := writeTokensFile(t, `{not json`)
		_, err := keybackend.NewTokenStore(keybackend.KeysConfig{File: path})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse tokens file")
	})
}

func TestNewTokenStore_Empty(t *testing.T) {
	t.Parallel()

	store, err := keybackend.NewTokenStore(keybackend.KeysConfig{})
	require.NoError(t, err)
	assert.Zero(t, store.Len())

	_, err = store.Lookup("anything")
	assert.ErrorIs(t, err, lockbox.ErrUnauthorized)
}
