// Package lockbox provides a per-user file storage gateway core: it binds an
// object store to a metadata index under per-user ownership rules.
//
// Files are uploaded into the object store under a key derived from the owner
// and the original file name, then described by a FileRecord in the metadata
// index. Listing, keyword search and deletion are scoped to the caller that
// owns the records; downloads are resolved by storage key and presented inline
// or as an attachment depending on their content type.
//
// # Key Components
//
//   - Service: the storage orchestrator combining MetadataIndex and ObjectStore
//   - MetadataIndex: record persistence (PostgreSQL, SQLite)
//   - ObjectStore: blob persistence (local filesystem, S3)
//   - KeyFunc: storage key derivation (literal or uniquified)
//   - DownloadAuthorizer: the single hook deciding who may read a key
//
// # Consistency
//
// The object store and the index are independent systems and no transaction
// spans them. Upload writes the blob before saving the record and Delete removes
// the blob before the record. A failure between the two steps leaves an orphaned
// blob or a record without a blob; such gaps are logged, counted in the
// lockbox_consistency_gaps_total metric and returned to the caller as errors.
// Service.Reconcile finds and optionally repairs them.
//
// # Example Usage
//
//	service, err := lockbox.NewService(index, store, lockbox.ServiceConfig{Bucket: "uploads"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rec, err := service.Upload(ctx, lockbox.UploadInput{
//	    CallerID:    "u1",
//	    FileName:    "a.png",
//	    ContentType: "image/png",
//	    Content:     reader,
//	})
//
//	dl, err := service.Download(ctx, "u1", rec.StorageKey)
//	defer dl.Content.Close()
//
// See the http package for the REST API and the database package for index
// backends.
package lockbox
