package clientcli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lockbox-storage/lockbox/clientcli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_WithDefaults(t *testing.T) {
	t.Run("keeps endpoint", func(t *testing.T) {
		cfg := &clientcli.Config{Endpoint: "http://files.internal:9000"}
		assert.Equal(t, "http://files.internal:9000", cfg.WithDefaults().Endpoint)
	})

	t.Run("empty endpoint gets default", func(t *testing.T) {
		cfg := &clientcli.Config{}
		withDefaults := cfg.WithDefaults()
		assert.Equal(t, clientcli.DefaultEndpoint, withDefaults.Endpoint)
		assert.Empty(t, cfg.Endpoint, "original is not mutated")
	})
}

func TestConfig_ValidateWithAuth(t *testing.T) {
	assert.NoError(t, (&clientcli.Config{Token: "tok"}).ValidateWithAuth())
	assert.ErrorIs(t, (&clientcli.Config{}).ValidateWithAuth(), clientcli.ErrTokenRequired)
}

func TestProfileFile(t *testing.T) {
	file := &clientcli.ProfileFile{}

	_, err := file.Lookup("")
	assert.ErrorIs(t, err, clientcli.ErrNoProfiles)
	assert.Empty(t, file.DefaultName())

	assert.False(t, file.Put(clientcli.Profile{Name: "local", Endpoint: "http://localhost:8080", Token: "a"}))
	assert.False(t, file.Put(clientcli.Profile{Name: "prod", Endpoint: "https://files.example.com", Token: "b"}))

	p, err := file.Lookup("")
	require.NoError(t, err)
	assert.Equal(t, "local", p.Name, "first profile is the default when none is set")

	require.NoError(t, file.SetDefault("prod"))
	assert.Equal(t, "prod", file.DefaultName())
	assert.ErrorIs(t, file.SetDefault("nope"), clientcli.ErrProfileNotFound)

	assert.True(t, file.Put(clientcli.Profile{Name: "prod", Endpoint: "https://new.example.com", Token: "c"}))
	p, err = file.Lookup("")
	require.NoError(t, err)
	assert.Equal(t, &clientcli.Config{Endpoint: "https://new.example.com", Token: "c"}, p.Config())
	assert.Len(t, file.Profiles, 2)

	_, err = file.Lookup("nope")
	assert.ErrorIs(t, err, clientcli.ErrProfileNotFound)

	require.NoError(t, file.Remove("prod"))
	assert.Empty(t, file.Default, "removing the default clears it")
	assert.Equal(t, "local", file.DefaultName())
	assert.ErrorIs(t, file.Remove("prod"), clientcli.ErrProfileNotFound)
}

func TestProfileFile_SaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	path := filepath.Join(dir, "config.yaml")

	file := &clientcli.ProfileFile{
		Default: "prod",
		Profiles: []clientcli.Profile{
			{Name: "local", Endpoint: "http://localhost:8080", Token: "local-token"},
			{Name: "prod", Endpoint: "https://files.example.com", Token: "secret-token"},
		},
	}
	require.NoError(t, file.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	loaded, err := clientcli.LoadProfileFile(path)
	require.NoError(t, err)
	assert.Equal(t, file, loaded)

	resolved, err := clientcli.LoadProfileConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, &clientcli.Config{Endpoint: "https://files.example.com", Token: "secret-token"}, resolved)

	_, err = clientcli.LoadProfileConfig(path, "missing")
	assert.ErrorIs(t, err, clientcli.ErrProfileNotFound)
}

func TestLoadProfileFile(t *testing.T) {
	t.Run("missing file is empty", func(t *testing.T) {
		file, err := clientcli.LoadProfileFile(filepath.Join(t.TempDir(), "config.yaml"))
		require.NoError(t, err)
		assert.Empty(t, file.Profiles)

		_, err = clientcli.LoadProfileConfig(filepath.Join(t.TempDir(), "config.yaml"), "")
		assert.ErrorIs(t, err, clientcli.ErrNoProfiles)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`profiles: [yaml: content`), 0o600))

		_, err := clientcli.LoadProfileFile(path)
		assert.Error(t, err)
	})
}

func TestMergeConfig(t *testing.T) {
	tests := []struct {
		name     string
		configs  []*clientcli.Config
		expected *clientcli.Config
	}{
		{
			name:     "empty configs",
			configs:  []*clientcli.Config{},
			expected: &clientcli.Config{},
		},
		{
			name: "later config overrides",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com", Token: "t1"},
				{Endpoint: "http://b.com"},
			},
			expected: &clientcli.Config{Endpoint: "http://b.com", Token: "t1"},
		},
		{
			name: "empty strings do not override",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com", Token: "t1"},
				{},
			},
			expected: &clientcli.Config{Endpoint: "http://a.com", Token: "t1"},
		},
		{
			name: "nil config is skipped",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com"},
				nil,
				{Token: "t2"},
			},
			expected: &clientcli.Config{Endpoint: "http://a.com", Token: "t2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, clientcli.MergeConfig(tt.configs...))
		})
	}
}

func TestReadEnv(t *testing.T) {
	t.Setenv("LOCKBOX_ENDPOINT", "http://test.example.com")
	t.Setenv("LOCKBOX_TOKEN", "env-token")
	t.Setenv("LOCKBOX_PROFILE", "staging")
	t.Setenv("LOCKBOX_CLIENT_CONFIG", "/etc/lockbox/client.yaml")

	env := clientcli.ReadEnv()
	assert.Equal(t, &clientcli.Config{Endpoint: "http://test.example.com", Token: "env-token"}, env.Config())
	assert.Equal(t, "staging", env.Profile)
	assert.Equal(t, "/etc/lockbox/client.yaml", env.ConfigPath)
}
