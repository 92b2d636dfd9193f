// Package keybackend provides static bearer token stores that map API tokens to
// the user id they act as.
package keybackend

import (
	"crypto/sha256"
	"fmt"

	"github.com/lockbox-storage/lockbox"
)

// MapTokenStore resolves tokens from an in-memory map.
// Tokens are held as SHA-256 digests so a lookup never compares raw secrets.
type MapTokenStore struct {
	users map[[sha256.Size]byte]string
}

// NewMapTokenStore creates a store from a token to user id mapping.
func NewMapTokenStore(tokens map[string]string) *MapTokenStore {
	users := make(map[[sha256.Size]byte]string, len(tokens))
	for token, userID := range tokens {
		users[sha256.Sum256([]byte(token))] = userID
	}
	return &MapTokenStore{users: users}
}

// Lookup returns the user id for token.
func (s *MapTokenStore) Lookup(token string) (string, error) {
	userID, found := s.users[sha256.Sum256([]byte(token))]
	if !found {
		return "", fmt.Errorf("lookup token: %w: %w", ErrTokenNotFound, lockbox.ErrUnauthorized)
	}
	return userID, nil
}

// Len reports the number of tokens in the store.
func (s *MapTokenStore) Len() int {
	return len(s.users)
}
