package keybackend

import "errors"

// ErrTokenNotFound is returned when the bearer token does not exist in the store.
var ErrTokenNotFound = errors.New("token not found")
