package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/picstash/picstash"
	"github.com/picstash/picstash/config"
	"github.com/picstash/picstash/filesystem"
	"github.com/picstash/picstash/memory"
	"github.com/picstash/picstash/s3"
)

// buildStore constructs the configured store backend. The returned opener is
// nil for backends with native presign support (s3); for the others it backs
// the /media route. The returned cleanup must be called on shutdown.
func buildStore(ctx context.Context, cfg *config.Config) (picstash.BlobStore, picstash.BlobOpener, func(), error) {
	noop := func() {}

	switch cfg.Storage.Backend {
	case "s3":
		store, err := s3.NewStore(ctx, s3.Config{
			Bucket:          cfg.Storage.Bucket,
			Region:          cfg.Storage.Region,
			Endpoint:        cfg.Storage.Endpoint,
			CredentialsFile: cfg.Storage.CredentialsFile,
			AccessKey:       cfg.Storage.AccessKey,
			SecretKey:       cfg.Storage.SecretKey,
			UsePathStyle:    cfg.Storage.UsePathStyle,
		})
		if err != nil {
			return nil, nil, noop, err
		}
		return store, nil, noop, nil

	case "filesystem":
		signer, err := newSigner(cfg)
		if err != nil {
			return nil, nil, noop, err
		}

		dir := filepath.Join(cfg.Storage.Path, cfg.Storage.Bucket)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, noop, fmt.Errorf("create storage directory: %w", err)
		}

		root, err := os.OpenRoot(dir)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("open storage root: %w", err)
		}

		store := filesystem.NewStore(root, signer)
		return store, store, func() { _ = root.Close() }, nil

	case "memory":
		signer, err := newSigner(cfg)
		if err != nil {
			return nil, nil, noop, err
		}
		store := memory.NewStore(signer)
		return store, store, noop, nil

	default:
		return nil, nil, noop, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

func newSigner(cfg *config.Config) (*picstash.Signer, error) {
	return picstash.NewSigner(picstash.SignerConfig{
		AccessKey: cfg.Sign.AccessKey,
		SecretKey: cfg.Sign.SecretKey,
		Region:    cfg.Sign.Region,
		Service:   cfg.Sign.Service,
		BaseURL:   cfg.Sign.BaseURL,
	})
}

func newService(cfg *config.Config, store picstash.BlobStore) (*picstash.Service, error) {
	return picstash.NewService(store, picstash.ServiceConfig{
		SignedURLExpiry: time.Duration(cfg.Sign.ExpirySeconds) * time.Second,
	})
}
