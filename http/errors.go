package http

import "errors"

// ErrUnauthenticated is returned when a request carries no valid bearer token.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrPayloadTooLarge is returned when an upload exceeds the configured size cap.
var ErrPayloadTooLarge = errors.New("payload too large")
