package lockbox

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// FileRecord describes one stored blob. Records are created by Service.Upload
// and removed by Service.Delete; they are never updated in place.
type FileRecord struct {
	ID         uuid.UUID `json:"id"`
	UserID     string    `json:"user_id"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type"`
	StorageKey string    `json:"storage_key"`
	StorageURL string    `json:"storage_url"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type UploadInput struct {
	CallerID    string
	FileName    string
	ContentType string
	Content     io.Reader
}

type Disposition string

const (
	DispositionInline     Disposition = "inline"
	DispositionAttachment Disposition = "attachment"
)

// Download is the result of Service.Download. The caller must close Content.
type Download struct {
	Content     io.ReadCloser
	Size        int64
	ContentType string
	Disposition Disposition
	FileName    string
}

// Object is a blob as returned by an ObjectStore. ContentType is empty when the
// store keeps no content type for the blob. Size is -1 when unknown.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

type PutResult struct {
	BytesWritten int64
	ETag         string
}

type ListQuery struct {
	Limit  int
	Cursor string
}

type ListResult struct {
	Items      []FileRecord `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type ReconcileOptions struct {
	// Repair deletes records whose blob is missing and blobs no record refers to.
	Repair bool
	// PageSize bounds each index page read during the sweep (default 500).
	PageSize int
	// GracePeriod skips records and blobs younger than this, so in-flight
	// uploads are not reported (default 5m).
	GracePeriod time.Duration
}

type ReconcileReport struct {
	RecordsScanned int          `json:"records_scanned"`
	BlobsScanned   int          `json:"blobs_scanned"`
	MissingBlobs   []FileRecord `json:"missing_blobs"`
	OrphanBlobs    []string     `json:"orphan_blobs"`
	Repaired       int          `json:"repaired"`
}
