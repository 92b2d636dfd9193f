package keybackend

import (
	"fmt"

	"github.com/lockbox-storage/lockbox"
)

// KeysConfig holds configuration for loading static bearer tokens.
type KeysConfig struct {
	Inline []TokenPair `mapstructure:"inline"` // Inline token pairs from config
	File   string      `mapstructure:"file"`   // Path to JSON file containing token pairs
}

// NewTokenStore creates a MapTokenStore from the given configuration.
// It loads tokens from both inline config and file (if specified),
// merging them into a single store. File tokens take precedence over inline
// tokens if there are duplicates. Every user id must be a valid caller id.
func NewTokenStore(cfg KeysConfig) (*MapTokenStore, error) {
	tokens := make(map[string]string)

	for _, p := range cfg.Inline {
		if p.Token != "" && p.UserID != "" {
			tokens[p.Token] = p.UserID
		}
	}

	if cfg.File != "" {
		fileTokens, err := LoadTokensFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		for k, v := range fileTokens {
			tokens[k] = v
		}
	}

	for _, userID := range tokens {
		if !lockbox.IsValidCallerID(userID) {
			return nil, fmt.Errorf("new token store: invalid user id %q", userID)
		}
	}

	return NewMapTokenStore(tokens), nil
}
