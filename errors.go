package lockbox

import "errors"

var (
	// ErrNotFound is returned when a record or blob does not exist
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when the caller does not own the record
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedMediaType is returned when the declared type is not allowed for upload
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrStorageWriteFailed is returned when writing a blob to the object store fails
	ErrStorageWriteFailed = errors.New("storage write failed")
	// ErrStorageUnavailable is returned when the object store cannot be reached
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrIndexUnavailable is returned when the metadata index cannot be reached
	ErrIndexUnavailable = errors.New("index unavailable")
)
