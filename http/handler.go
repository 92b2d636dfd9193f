package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/lockbox-storage/lockbox"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// multipartMemory is the part of an upload kept in memory; the rest spills to
// a temp file.
const multipartMemory = 32 << 20

type Service interface {
	Upload(ctx context.Context, in lockbox.UploadInput) (lockbox.FileRecord, error)
	Download(ctx context.Context, callerID, key string) (lockbox.Download, error)
	List(ctx context.Context, callerID string) ([]lockbox.FileRecord, error)
	Search(ctx context.Context, callerID, keyword string) ([]lockbox.FileRecord, error)
	Delete(ctx context.Context, callerID string, fileID uuid.UUID) error
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	Authenticator Authenticator
	CORS          CORSConfig
	// MaxUploadSize caps the request body of an upload in bytes. 0 disables the cap.
	MaxUploadSize int64
	// HealthCheck is run by GET /healthz when set.
	HealthCheck func(ctx context.Context) error
}

// Handler provides HTTP handlers for file storage operations.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler with the API routes under /api, all of which
// require authentication, plus unauthenticated /healthz and /metrics.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(MetricsMiddleware)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(notFoundHandler)
	r.MethodNotAllowed(methodNotAllowedHandler)

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(h.config.Authenticator))
		r.Post("/upload", h.handleUpload)
		r.Get("/download", h.handleDownload)
		r.Get("/files", h.handleList)
		r.Get("/search", h.handleSearch)
		r.Delete("/delete/{id}", h.handleDelete)
		r.Delete("/files/{id}", h.handleDelete)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.config.HealthCheck != nil {
		if err := h.config.HealthCheck(r.Context()); err != nil {
			slog.Error("health check failed", "error", err)
			WriteError(w, http.StatusServiceUnavailable, "unavailable", "Service is not ready")
			return
		}
	}

	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if limit := h.config.MaxUploadSize; limit > 0 {
		if r.ContentLength > limit {
			HandleError(w, fmt.Errorf("upload: %d bytes: %w", r.ContentLength, ErrPayloadTooLarge))
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			HandleError(w, fmt.Errorf("upload: %w", ErrPayloadTooLarge))
			return
		}
		HandleError(w, fmt.Errorf("upload: read multipart file: %w: %w", lockbox.ErrInvalidInput, err))
		return
	}
	defer func() { _ = file.Close() }()
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	contentType := header.Header.Get("Content-Type")

	slog.Info("upload", "file_name", header.Filename, "content_type", contentType, "size", header.Size)

	record, err := h.service.Upload(r.Context(), lockbox.UploadInput{
		CallerID:    CallerFromContext(r.Context()),
		FileName:    header.Filename,
		ContentType: contentType,
		Content:     file,
	})
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Missing key")
		return
	}

	download, err := h.service.Download(r.Context(), CallerFromContext(r.Context()), key)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = download.Content.Close() }()

	w.Header().Set("Content-Type", download.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(
		string(download.Disposition),
		map[string]string{"filename": download.FileName},
	))
	if download.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(download.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, download.Content); err != nil {
		slog.Error("failed to stream download", "key", key, "error", err)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context(), CallerFromContext(r.Context()))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, lockbox.ListResult{Items: records})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.Search(r.Context(), CallerFromContext(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, lockbox.ListResult{Items: records})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, fmt.Errorf("delete: %w: %w", lockbox.ErrInvalidInput, err))
		return
	}

	if err := h.service.Delete(r.Context(), CallerFromContext(r.Context()), id); err != nil {
		HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
