package lockbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MetadataIndex defines the interface for FileRecord persistence.
// Implementations must be safe for concurrent use.
//
// All methods accept a context for cancellation and timeout control.
type MetadataIndex interface {
	// Save persists a new record and returns it with the ID assigned by the index.
	// The ID field of rec is ignored.
	Save(ctx context.Context, rec FileRecord) (FileRecord, error)

	// FindByID returns the record with the given ID, or ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (FileRecord, error)

	// FindByUser returns every record owned by userID in insertion order.
	// It returns an empty slice, not an error, when the user has no records.
	FindByUser(ctx context.Context, userID string) ([]FileRecord, error)

	// FindByUserAndSubstring returns the records owned by userID whose file name
	// contains q, compared case-insensitively. LIKE wildcards in q match
	// literally and an empty q matches every record of the user.
	FindByUserAndSubstring(ctx context.Context, userID, q string) ([]FileRecord, error)

	// DeleteByID removes the record with the given ID, or returns ErrNotFound.
	DeleteByID(ctx context.Context, id uuid.UUID) error

	// All pages through every record of every user ordered by upload time.
	// It backs maintenance sweeps and is never used on the request path.
	All(ctx context.Context, q ListQuery) (ListResult, error)
}

// ObjectStore defines the interface for blob storage.
// Implementations can use the local filesystem, S3 or any other backend.
type ObjectStore interface {
	// Put writes content under key, replacing any existing blob.
	// contentType is recorded with the blob when the backend supports it.
	Put(ctx context.Context, key string, content io.Reader, contentType string) (PutResult, error)

	// Get opens the blob at key, or returns ErrNotFound.
	// The caller must close Object.Body.
	Get(ctx context.Context, key string) (Object, error)

	// Delete removes the blob at key, or returns ErrNotFound.
	Delete(ctx context.Context, key string) error
}

// ObjectLister is implemented by object stores that can enumerate their blobs.
// Service.Reconcile requires it.
type ObjectLister interface {
	List(ctx context.Context) ([]ObjectInfo, error)
}

// Service is the storage orchestrator. It holds no mutable state and is safe
// for concurrent use.
type Service struct {
	index         MetadataIndex
	store         ObjectStore
	media         MediaPolicy
	keyFunc       KeyFunc
	access        DownloadAuthorizer
	bucket        string
	publicURLBase string
	callTimeout   time.Duration
	now           func() time.Time
}

// ServiceConfig holds configuration options for Service.
type ServiceConfig struct {
	// Bucket names the object store bucket in storage URLs.
	Bucket string
	// PublicURLBase, when set, replaces the S3 bucket URL in storage URLs.
	PublicURLBase string
	// AllowedTypes is the upload allow-list (default: DefaultAllowedTypes).
	AllowedTypes []string
	// KeyFunc derives storage keys (default: LiteralKey).
	KeyFunc KeyFunc
	// DownloadAccess authorizes downloads (default: KeyOnlyAccess).
	DownloadAccess DownloadAuthorizer
	// CallTimeout bounds each object store and index call; zero means no bound.
	CallTimeout time.Duration
	// Now is the clock used for UploadedAt (default: time.Now).
	Now func() time.Time
}

func NewService(index MetadataIndex, store ObjectStore, cfg ServiceConfig) (*Service, error) {
	if index == nil {
		return nil, errors.New("new service: metadata index is required")
	}
	if store == nil {
		return nil, errors.New("new service: object store is required")
	}
	if cfg.CallTimeout < 0 {
		return nil, fmt.Errorf("new service: invalid call timeout: %s", cfg.CallTimeout)
	}

	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = LiteralKey
	}
	access := cfg.DownloadAccess
	if access == nil {
		access = KeyOnlyAccess()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		index:         index,
		store:         store,
		media:         NewMediaPolicy(cfg.AllowedTypes),
		keyFunc:       keyFunc,
		access:        access,
		bucket:        cfg.Bucket,
		publicURLBase: strings.TrimSuffix(cfg.PublicURLBase, "/"),
		callTimeout:   cfg.CallTimeout,
		now:           now,
	}, nil
}

// Upload stores a caller's file and records it in the index.
//
// The method performs the following steps:
//  1. Validates caller ID and file name
//  2. Checks the declared content type against the allow-list
//  3. Writes the content to the object store under the derived key
//  4. Saves a FileRecord for the blob
//
// Nothing is written when steps 1 or 2 fail. A failed blob write creates no
// record. A failed record save leaves the blob orphaned: no compensating delete
// is attempted, the gap is logged and counted, and the error wraps
// ErrIndexUnavailable. Service.Reconcile finds such blobs later.
//
// Error types returned:
//   - ErrInvalidInput: bad caller ID, file name or missing content
//   - ErrUnsupportedMediaType: declared type is not on the allow-list
//   - ErrStorageWriteFailed: the blob write failed
//   - ErrIndexUnavailable: the record save failed
func (s *Service) Upload(ctx context.Context, in UploadInput) (FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return FileRecord{}, fmt.Errorf("upload: %w", err)
	}

	if !IsValidCallerID(in.CallerID) {
		return FileRecord{}, fmt.Errorf("upload: %w: invalid caller id", ErrInvalidInput)
	}

	if !IsValidFileName(in.FileName) {
		return FileRecord{}, fmt.Errorf("upload: %w: invalid file name %q", ErrInvalidInput, in.FileName)
	}

	if in.Content == nil {
		return FileRecord{}, fmt.Errorf("upload %s: %w: content cannot be nil", in.FileName, ErrInvalidInput)
	}

	if !s.media.Allows(in.ContentType) {
		return FileRecord{}, fmt.Errorf("upload %s: %w: %q", in.FileName, ErrUnsupportedMediaType, in.ContentType)
	}

	key := s.keyFunc(in.CallerID, in.FileName)

	putCtx, cancel := s.callContext(ctx)
	put, err := s.store.Put(putCtx, key, in.Content, in.ContentType)
	cancel()
	if err != nil {
		return FileRecord{}, fmt.Errorf("upload %s: %w: %w", key, ErrStorageWriteFailed, err)
	}

	rec := FileRecord{
		UserID:     in.CallerID,
		FileName:   in.FileName,
		FileType:   in.ContentType,
		StorageKey: key,
		StorageURL: s.storageURL(key),
		SizeBytes:  put.BytesWritten,
		UploadedAt: s.now().UTC(),
	}

	saveCtx, cancel := s.callContext(ctx)
	saved, err := s.index.Save(saveCtx, rec)
	cancel()
	if err != nil {
		consistencyGaps.WithLabelValues(gapOrphanBlob).Inc()
		slog.Warn("blob stored without record", "key", key, "user", in.CallerID, "err", err)
		return FileRecord{}, fmt.Errorf("upload %s: save record: %w: %w", key, ErrIndexUnavailable, err)
	}

	return saved, nil
}

// Download opens the blob at key and derives how it should be presented.
//
// Access is decided by the configured DownloadAuthorizer; the default lets any
// caller holding a valid key read it. The content type is the one stored with
// the blob, falling back to the key's extension and then to
// application/octet-stream. The caller must close Download.Content, which also
// releases the call timeout.
func (s *Service) Download(ctx context.Context, callerID, key string) (Download, error) {
	if err := ctx.Err(); err != nil {
		return Download{}, fmt.Errorf("download: %w", err)
	}

	if !IsValidKey(key) {
		return Download{}, fmt.Errorf("download: %w: invalid key %q", ErrInvalidInput, key)
	}

	if err := s.access.AuthorizeDownload(ctx, callerID, key); err != nil {
		return Download{}, fmt.Errorf("download %s: %w", key, err)
	}

	getCtx, cancel := s.callContext(ctx)
	obj, err := s.store.Get(getCtx, key)
	if err != nil {
		cancel()
		return Download{}, fmt.Errorf("download %s: %w", key, storeError(err))
	}

	contentType := ResolveContentType(obj.ContentType, key)

	return Download{
		Content:     &cancelOnClose{ReadCloser: obj.Body, cancel: cancel},
		Size:        obj.Size,
		ContentType: contentType,
		Disposition: DispositionFor(contentType),
		FileName:    FileNameFromKey(key),
	}, nil
}

// List returns every record owned by callerID in index order.
func (s *Service) List(ctx context.Context, callerID string) ([]FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	if !IsValidCallerID(callerID) {
		return nil, fmt.Errorf("list files: %w: invalid caller id", ErrInvalidInput)
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	records, err := s.index.FindByUser(callCtx, callerID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w: %w", ErrIndexUnavailable, err)
	}

	return records, nil
}

// Search returns the caller's records whose file name contains keyword,
// ignoring case. An empty keyword returns the same records as List.
func (s *Service) Search(ctx context.Context, callerID, keyword string) ([]FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search files: %w", err)
	}

	if !IsValidCallerID(callerID) {
		return nil, fmt.Errorf("search files: %w: invalid caller id", ErrInvalidInput)
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	records, err := s.index.FindByUserAndSubstring(callCtx, callerID, keyword)
	if err != nil {
		return nil, fmt.Errorf("search files: %w: %w", ErrIndexUnavailable, err)
	}

	return records, nil
}

// Delete removes a caller's file: the blob first, then its record.
//
// A missing record fails with ErrNotFound and a record owned by someone else
// fails with ErrUnauthorized; neither mutates anything. Both removals are
// always attempted once ownership is established. A blob that is already gone
// counts as removed. If the blob removal fails the record is still removed and
// the error wraps ErrStorageUnavailable, leaving an orphaned blob for
// Service.Reconcile.
func (s *Service) Delete(ctx context.Context, callerID string, fileID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	findCtx, cancel := s.callContext(ctx)
	rec, err := s.index.FindByID(findCtx, fileID)
	cancel()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("delete file %s: %w", fileID, ErrNotFound)
		}
		return fmt.Errorf("delete file %s: %w: %w", fileID, ErrIndexUnavailable, err)
	}

	if rec.UserID != callerID {
		return fmt.Errorf("delete file %s: %w", fileID, ErrUnauthorized)
	}

	blobCtx, cancel := s.callContext(ctx)
	blobErr := s.store.Delete(blobCtx, rec.StorageKey)
	cancel()
	if errors.Is(blobErr, ErrNotFound) {
		blobErr = nil
	}

	recCtx, cancel := s.callContext(ctx)
	recErr := s.index.DeleteByID(recCtx, fileID)
	cancel()
	if errors.Is(recErr, ErrNotFound) {
		recErr = nil
	}

	switch {
	case blobErr != nil && recErr != nil:
		return fmt.Errorf("delete file %s: %w", fileID, errors.Join(
			fmt.Errorf("delete blob %s: %w: %w", rec.StorageKey, ErrStorageUnavailable, blobErr),
			fmt.Errorf("delete record: %w: %w", ErrIndexUnavailable, recErr),
		))
	case blobErr != nil:
		consistencyGaps.WithLabelValues(gapOrphanBlob).Inc()
		slog.Warn("record deleted but blob remains", "key", rec.StorageKey, "id", fileID, "err", blobErr)
		return fmt.Errorf("delete file %s: delete blob %s: %w: %w", fileID, rec.StorageKey, ErrStorageUnavailable, blobErr)
	case recErr != nil:
		consistencyGaps.WithLabelValues(gapMissingBlob).Inc()
		slog.Warn("blob deleted but record remains", "key", rec.StorageKey, "id", fileID, "err", recErr)
		return fmt.Errorf("delete file %s: delete record: %w: %w", fileID, ErrIndexUnavailable, recErr)
	}

	return nil
}

// storageURL is informational only. Without a public base or a bucket the
// key itself is returned.
func (s *Service) storageURL(key string) string {
	switch {
	case s.publicURLBase != "":
		return s.publicURLBase + "/" + key
	case s.bucket != "":
		return "https://" + s.bucket + ".s3.amazonaws.com/" + key
	default:
		return key
	}
}

func (s *Service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.callTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.callTimeout)
}

// storeError keeps ErrNotFound as is and marks every other object store
// failure as ErrStorageUnavailable.
func storeError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}

// cancelOnClose keeps a call context alive until the body has been consumed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
	once   sync.Once
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.once.Do(c.cancel)
	return err
}
