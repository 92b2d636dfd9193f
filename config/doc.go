// Package config provides configuration loading and validation for lockbox.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (LOCKBOX_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with LOCKBOX_ prefix:
//   - server.port → LOCKBOX_SERVER_PORT
//   - storage.type → LOCKBOX_STORAGE_TYPE
//   - auth.jwt.jwks_url → LOCKBOX_AUTH_JWT_JWKS_URL
//
// # Configuration Structure
//
// The Config struct contains:
//   - Env: dev (colored text logs) or prod (JSON logs)
//   - Server: port, max_upload_size, shutdown_timeout
//   - Service: upload allow-list, key strategy, download access, call timeout
//   - Database: type, DSN, auto_migrate, and table names
//   - Storage: filesystem path or S3 bucket settings
//   - Auth: jwt or static bearer tokens
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
package config
