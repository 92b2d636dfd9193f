package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockbox-storage/lockbox"
	"github.com/lockbox-storage/lockbox/config"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	// Load with no config files should use defaults
	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.False(t, cfg.IsProd())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(0), cfg.Server.MaxUploadSize)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, lockbox.DefaultAllowedTypes, cfg.Service.AllowedTypes)
	assert.Equal(t, "literal", cfg.Service.KeyStrategy)
	assert.Equal(t, "key", cfg.Service.DownloadAccess)
	assert.Equal(t, 30*time.Second, cfg.Service.CallTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "lockbox.db", cfg.Database.DSN)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "lockbox_files", cfg.Database.Tables.Files)
	assert.Equal(t, "filesystem", cfg.Storage.Type)
	assert.Equal(t, "./data", cfg.Storage.Path)
	assert.Equal(t, "us-east-1", cfg.Storage.Region)
	assert.Equal(t, "static", cfg.Auth.Mode)
	assert.Equal(t, time.Hour, cfg.Auth.JWT.RefreshInterval)
	assert.Equal(t, 30*time.Second, cfg.Auth.JWT.Leeway)
	assert.False(t, cfg.CORS.Enabled)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
env: prod
server:
  port: 9000
  max_upload_size: 10485760
service:
  allowed_types: [image/png, text/plain]
  key_strategy: unique
  download_access: owner
  call_timeout: 5s
database:
  type: postgres
  dsn: postgres://localhost/test
  auto_migrate: false
  tables:
    files: custom_files
storage:
  type: s3
  bucket: uploads
  region: eu-west-1
  endpoint: http://localhost:9000
  use_path_style: true
  public_url_base: https://cdn.example.com
  access_key_id: AKIAEXAMPLE
  secret_access_key: secret
auth:
  mode: jwt
  jwt:
    jwks_url: https://idp.example.com/.well-known/jwks.json
    issuer: https://idp.example.com
    audience: lockbox-api
    refresh_interval: 10m
    leeway: 5s
log:
  level: debug
`)

	cfg, err := config.Load([]string{configPath}, nil)
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, int64(10485760), cfg.Server.MaxUploadSize)
	assert.Equal(t, []string{"image/png", "text/plain"}, cfg.Service.AllowedTypes)
	assert.Equal(t, "unique", cfg.Service.KeyStrategy)
	assert.Equal(t, "owner", cfg.Service.DownloadAccess)
	assert.Equal(t, 5*time.Second, cfg.Service.CallTimeout)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "postgres://localhost/test", cfg.Database.DSN)
	assert.False(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "custom_files", cfg.Database.Tables.Files)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "uploads", cfg.Storage.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Storage.Region)
	assert.Equal(t, "http://localhost:9000", cfg.Storage.Endpoint)
	assert.True(t, cfg.Storage.UsePathStyle)
	assert.Equal(t, "https://cdn.example.com", cfg.Storage.PublicURLBase)
	assert.Equal(t, "AKIAEXAMPLE", cfg.Storage.AccessKeyID)
	assert.Equal(t, "secret", cfg.Storage.SecretAccessKey)
	assert.Equal(t, "jwt", cfg.Auth.Mode)
	assert.Equal(t, "https://idp.example.com/.well-known/jwks.json", cfg.Auth.JWT.JWKSURL)
	assert.Equal(t, "https://idp.example.com", cfg.Auth.JWT.Issuer)
	assert.Equal(t, "lockbox-api", cfg.Auth.JWT.Audience)
	assert.Equal(t, 10*time.Minute, cfg.Auth.JWT.RefreshInterval)
	assert.Equal(t, 5*time.Second, cfg.Auth.JWT.Leeway)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ConfigFileMerge(t *testing.T) {
	basePath := writeConfig(t, "base.yaml", `
server:
  port: 8080
database:
  type: sqlite
  dsn: lockbox.db
storage:
  path: ./data
auth:
  mode: static
log:
  level: info
`)

	overridePath := writeConfig(t, "override.yaml", `
server:
  port: 9000
storage:
  path: /srv/lockbox
`)

	// Load with merge (later files override earlier)
	cfg, err := config.Load([]string{basePath, overridePath}, nil)
	require.NoError(t, err)

	// Overridden values
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/srv/lockbox", cfg.Storage.Path)

	// Preserved values from base
	assert.Equal(t, "static", cfg.Auth.Mode)
	assert.Equal(t, "sqlite", cfg.Database.Type)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid port", "server:\n  port: 99999\n"},
		{"invalid storage type", "storage:\n  type: ftp\n"},
		{"s3 without bucket", "storage:\n  type: s3\n"},
		{"filesystem without path", "storage:\n  type: filesystem\n  path: \"\"\n"},
		{"invalid auth mode", "auth:\n  mode: basic\n"},
		{"jwt without jwks url", "auth:\n  mode: jwt\n"},
		{"invalid key strategy", "service:\n  key_strategy: random\n"},
		{"invalid download access", "service:\n  download_access: public\n"},
		{"invalid database type", "database:\n  type: mysql\n"},
		{"invalid table name", "database:\n  tables:\n    files: Files-Table\n"},
		{"invalid log level", "log:\n  level: verbose\n"},
		{"invalid env", "env: staging\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, "config.yaml", tt.content)

			_, err := config.Load([]string{configPath}, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validate config")
		})
	}
}

func TestLoad_WithInlineKeys(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
auth:
  mode: static
  keys:
    file: /etc/lockbox/tokens.json
    inline:
      - token: lbx_alice
        user_id: alice
      - token: lbx_bob
        user_id: bob
`)

	cfg, err := config.Load([]string{configPath}, nil)
	require.NoError(t, err)

	require.Len(t, cfg.Auth.Keys.Inline, 2)
	assert.Equal(t, "lbx_alice", cfg.Auth.Keys.Inline[0].Token)
	assert.Equal(t, "alice", cfg.Auth.Keys.Inline[0].UserID)
	assert.Equal(t, "lbx_bob", cfg.Auth.Keys.Inline[1].Token)
	assert.Equal(t, "bob", cfg.Auth.Keys.Inline[1].UserID)
	assert.Equal(t, "/etc/lockbox/tokens.json", cfg.Auth.Keys.File)
}

func TestLoad_WithCORS(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
cors:
  enabled: true
  allowed_origins:
    - https://example.com
    - https://app.example.com
  allowed_methods:
    - GET
    - POST
  allowed_headers:
    - Authorization
  allow_credentials: true
  max_age: 600
`)

	cfg, err := config.Load([]string{configPath}, nil)
	require.NoError(t, err)

	assert.True(t, cfg.CORS.Enabled)
	assert.Equal(t, []string{"https://example.com", "https://app.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, []string{"GET", "POST"}, cfg.CORS.AllowedMethods)
	assert.Equal(t, []string{"Authorization"}, cfg.CORS.AllowedHeaders)
	assert.True(t, cfg.CORS.AllowCredentials)
	assert.Equal(t, 600, cfg.CORS.MaxAge)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("LOCKBOX_SERVER_PORT", "9090")
	t.Setenv("LOCKBOX_DATABASE_TYPE", "postgres")
	t.Setenv("LOCKBOX_STORAGE_TYPE", "s3")
	t.Setenv("LOCKBOX_STORAGE_BUCKET", "env-bucket")
	t.Setenv("LOCKBOX_SERVICE_CALL_TIMEOUT", "2s")

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "env-bucket", cfg.Storage.Bucket)
	assert.Equal(t, 2*time.Second, cfg.Service.CallTimeout)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("LOCKBOX_DATABASE_DSN", "from-env.db")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db-dsn", "", "")
	flags.Int("port", 0, "")
	flags.String("storage-path", "", "")
	require.NoError(t, flags.Parse([]string{"--db-dsn", "from-flag.db", "--port", "7000"}))

	cfg, err := config.Load(nil, flags)
	require.NoError(t, err)

	assert.Equal(t, "from-flag.db", cfg.Database.DSN)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "./data", cfg.Storage.Path, "unset flags do not override defaults")
}
