package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lockbox-storage/lockbox"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes appropriate error response based on error type.
//
// ErrNotFound and ErrUnauthorized share one response so a caller cannot
// probe for records owned by someone else.
func HandleError(w http.ResponseWriter, err error) {
	slog.Error("request error", "error", err)

	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.Is(err, ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", `Bearer realm="lockbox"`)
		WriteError(w, http.StatusUnauthorized, "unauthenticated", "Missing or invalid bearer token")
	case errors.Is(err, ErrPayloadTooLarge), errors.As(err, &maxBytesErr):
		WriteError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Upload exceeds the size limit")
	case errors.Is(err, lockbox.ErrNotFound), errors.Is(err, lockbox.ErrUnauthorized):
		writeNotFound(w)
	case errors.Is(err, lockbox.ErrUnsupportedMediaType):
		WriteError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "File type is not allowed")
	case errors.Is(err, lockbox.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid input")
	case errors.Is(err, lockbox.ErrStorageWriteFailed),
		errors.Is(err, lockbox.ErrStorageUnavailable),
		errors.Is(err, lockbox.ErrIndexUnavailable):
		WriteError(w, http.StatusServiceUnavailable, "unavailable", "Storage is temporarily unavailable")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}

func writeNotFound(w http.ResponseWriter) {
	WriteError(w, http.StatusNotFound, "not_found", "File not found")
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	writeNotFound(w)
}

func methodNotAllowedHandler(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
}
