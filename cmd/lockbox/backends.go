package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/lockbox-storage/lockbox"
	"github.com/lockbox-storage/lockbox/config"
	"github.com/lockbox-storage/lockbox/database"
	"github.com/lockbox-storage/lockbox/filesystem"
	"github.com/lockbox-storage/lockbox/s3store"
)

// backends holds the index, object store and service shared by the server
// commands. Close releases them in reverse order.
type backends struct {
	db      database.Database
	store   lockbox.ObjectStore
	service *lockbox.Service
	closers []func() error
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			slog.Warn("failed to close backend", "err", err)
		}
	}
}

// openBackends connects the metadata index and object store described by cfg.
// The schema is migrated when migrate is true and always validated.
func openBackends(ctx context.Context, cfg *config.Config, migrate bool) (*backends, error) {
	b := &backends{}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	b.db = db
	b.closers = append(b.closers, db.Close)

	if err = db.Ping(ctx); err != nil {
		b.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if migrate {
		if err = db.Migrate(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		slog.Info("database migration complete")
	}

	if err = db.Validate(ctx); err != nil {
		b.Close()
		return nil, fmt.Errorf("validate database schema: %w", err)
	}
	slog.Info("connected to database", "type", cfg.Database.Type)

	store, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.store = store
	if closeStore != nil {
		b.closers = append(b.closers, closeStore)
	}

	service, err := newService(cfg, db.GetRepo(), store)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.service = service

	return b, nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (lockbox.ObjectStore, func() error, error) {
	switch cfg.Type {
	case "s3":
		store, err := s3store.New(ctx, s3store.Config{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			UsePathStyle:    cfg.UsePathStyle,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open s3 store: %w", err)
		}
		slog.Info("using s3 object store", "bucket", cfg.Bucket, "region", cfg.Region)
		return store, nil, nil

	case "filesystem":
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, nil, fmt.Errorf("create storage directory: %w", err)
		}

		root, err := os.OpenRoot(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage root: %w", err)
		}
		slog.Info("using filesystem object store", "path", cfg.Path)
		return filesystem.NewFileStorage(root), root.Close, nil

	default:
		return nil, nil, errors.New("unsupported storage type: " + cfg.Type)
	}
}

func newService(cfg *config.Config, index lockbox.MetadataIndex, store lockbox.ObjectStore) (*lockbox.Service, error) {
	keyFunc, err := lockbox.ParseKeyStrategy(cfg.Service.KeyStrategy)
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	access, err := lockbox.ParseDownloadAccess(cfg.Service.DownloadAccess, index)
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	service, err := lockbox.NewService(index, store, lockbox.ServiceConfig{
		Bucket:         cfg.Storage.Bucket,
		PublicURLBase:  cfg.Storage.PublicURLBase,
		AllowedTypes:   cfg.Service.AllowedTypes,
		KeyFunc:        keyFunc,
		DownloadAccess: access,
		CallTimeout:    cfg.Service.CallTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	return service, nil
}
