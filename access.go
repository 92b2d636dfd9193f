package lockbox

import (
	"context"
	"fmt"
)

// DownloadAuthorizer decides whether a caller may read the blob at key.
// Service.Download consults it before touching the object store.
type DownloadAuthorizer interface {
	AuthorizeDownload(ctx context.Context, callerID, key string) error
}

// DownloadAuthorizerFunc adapts a function to DownloadAuthorizer.
type DownloadAuthorizerFunc func(ctx context.Context, callerID, key string) error

func (f DownloadAuthorizerFunc) AuthorizeDownload(ctx context.Context, callerID, key string) error {
	return f(ctx, callerID, key)
}

// KeyOnlyAccess lets any caller holding a valid key read its blob.
func KeyOnlyAccess() DownloadAuthorizer {
	return DownloadAuthorizerFunc(func(context.Context, string, string) error {
		return nil
	})
}

// OwnerOnlyAccess requires the caller to own at least one record whose storage
// key equals key.
func OwnerOnlyAccess(index MetadataIndex) DownloadAuthorizer {
	return DownloadAuthorizerFunc(func(ctx context.Context, callerID, key string) error {
		records, err := index.FindByUser(ctx, callerID)
		if err != nil {
			return fmt.Errorf("authorize download: %w: %w", ErrIndexUnavailable, err)
		}
		for _, rec := range records {
			if rec.StorageKey == key {
				return nil
			}
		}
		return fmt.Errorf("authorize download: %w", ErrUnauthorized)
	})
}

// ParseDownloadAccess maps a configuration value to a DownloadAuthorizer.
func ParseDownloadAccess(s string, index MetadataIndex) (DownloadAuthorizer, error) {
	switch s {
	case "", "key":
		return KeyOnlyAccess(), nil
	case "owner":
		return OwnerOnlyAccess(index), nil
	default:
		return nil, fmt.Errorf("invalid download access: %s (valid values: key, owner)", s)
	}
}
