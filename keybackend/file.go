package keybackend

import (
	"encoding/json"
	"fmt"
	"os"
)

// TokenPair binds a bearer token to the user id it authenticates as.
type TokenPair struct {
	Token  string `json:"token" mapstructure:"token"`
	UserID string `json:"user_id" mapstructure:"user_id"`
}

// LoadTokensFromFile loads tokens from a JSON file.
// The file should contain an array of token pairs:
//
//	[
//	  {"token": "lbx_2f9c...", "user_id": "alice"},
//	  {"token": "lbx_81ad...", "user_id": "bob"}
//	]
//
// Entries with an empty token or user id are skipped.
// Returns a map of token to user id.
func LoadTokensFromFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read tokens file: %w", err)
	}

	var pairs []TokenPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("parse tokens file: %w", err)
	}

	tokens := make(map[string]string, len(pairs))
	for _, p := range pairs {
		if p.Token != "" && p.UserID != "" {
			tokens[p.Token] = p.UserID
		}
	}

	return tokens, nil
}
