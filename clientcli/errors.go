package clientcli

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
)

// Errors for configuration validation.
var (
	ErrTokenRequired  = errors.New("token is required")
	ErrConfigRequired = errors.New("config is required")
)

// Errors for input validation.
var (
	ErrNoIDs      = errors.New("no file ids provided")
	ErrEmptyPath  = errors.New("path is required")
	ErrEmptyKey   = errors.New("storage key is required")
	ErrNotFileDir = errors.New("path is a directory, use recursive upload")
)
