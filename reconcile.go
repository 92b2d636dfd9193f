package lockbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	defaultReconcilePageSize    = 500
	defaultReconcileGracePeriod = 5 * time.Minute
)

// ErrListingUnsupported is returned by Reconcile when the object store cannot
// enumerate its blobs.
var ErrListingUnsupported = errors.New("object store does not support listing")

// Reconcile compares the object store with the metadata index and reports
// records whose blob is missing and blobs no record refers to. These are the
// gaps left behind by partially failed uploads and deletes.
//
// Blobs are listed first and the index is paged afterwards. Records and blobs
// newer than the listing start minus GracePeriod are skipped so uploads in
// flight are not reported. With Repair set, records with a missing blob and
// orphaned blobs are deleted; individual repair failures are logged and the
// sweep continues.
func (s *Service) Reconcile(ctx context.Context, opts ReconcileOptions) (ReconcileReport, error) {
	if err := ctx.Err(); err != nil {
		return ReconcileReport{}, fmt.Errorf("reconcile: %w", err)
	}

	lister, ok := s.store.(ObjectLister)
	if !ok {
		return ReconcileReport{}, fmt.Errorf("reconcile: %w", ErrListingUnsupported)
	}

	if opts.PageSize <= 0 {
		opts.PageSize = defaultReconcilePageSize
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = defaultReconcileGracePeriod
	}

	cutoff := s.now().Add(-opts.GracePeriod)

	blobs, err := lister.List(ctx)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("reconcile: list blobs: %w: %w", ErrStorageUnavailable, err)
	}

	report := ReconcileReport{
		BlobsScanned: len(blobs),
		MissingBlobs: []FileRecord{},
		OrphanBlobs:  []string{},
	}

	blobKeys := make(map[string]struct{}, len(blobs))
	for _, b := range blobs {
		blobKeys[b.Key] = struct{}{}
	}

	referenced := make(map[string]struct{})
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("reconcile: %w", err)
		}

		page, err := s.index.All(ctx, ListQuery{Limit: opts.PageSize, Cursor: cursor})
		if err != nil {
			return report, fmt.Errorf("reconcile: list records: %w: %w", ErrIndexUnavailable, err)
		}

		for _, rec := range page.Items {
			report.RecordsScanned++
			referenced[rec.StorageKey] = struct{}{}

			if rec.UploadedAt.After(cutoff) {
				continue
			}
			if _, ok := blobKeys[rec.StorageKey]; !ok {
				report.MissingBlobs = append(report.MissingBlobs, rec)
			}
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	for _, b := range blobs {
		if b.LastModified.After(cutoff) {
			continue
		}
		if _, ok := referenced[b.Key]; !ok {
			report.OrphanBlobs = append(report.OrphanBlobs, b.Key)
		}
	}

	if !opts.Repair {
		return report, nil
	}

	for _, rec := range report.MissingBlobs {
		if err := s.index.DeleteByID(ctx, rec.ID); err != nil && !errors.Is(err, ErrNotFound) {
			slog.Warn("reconcile: delete record", "id", rec.ID, "key", rec.StorageKey, "err", err)
			continue
		}
		report.Repaired++
	}

	for _, key := range report.OrphanBlobs {
		if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
			slog.Warn("reconcile: delete blob", "key", key, "err", err)
			continue
		}
		report.Repaired++
	}

	return report, nil
}
