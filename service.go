package picstash

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// signConcurrency bounds the per-blob signing fan-out during listings.
const signConcurrency = 8

// ServiceConfig holds configuration options for Service.
type ServiceConfig struct {
	// SignedURLExpiry is the validity window for issued URLs
	// (default: DefaultSignedURLExpiry).
	SignedURLExpiry time.Duration
	// Logger receives per-blob signing failures (default: slog.Default()).
	Logger *slog.Logger
}

// Service implements the gateway's operations on top of a BlobStore.
// It holds no mutable state of its own; the store is the single source
// of truth and its consistency model is inherited as-is.
type Service struct {
	store  BlobStore
	expiry time.Duration
	logger *slog.Logger
}

func NewService(store BlobStore, cfg ServiceConfig) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("new service: store cannot be nil")
	}

	expiry := cfg.SignedURLExpiry
	if expiry <= 0 {
		expiry = DefaultSignedURLExpiry
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{store: store, expiry: expiry, logger: logger}, nil
}

// Upload streams content into the blob named name, preserving contentType as
// blob metadata. The name is taken as-is from the client; an existing blob
// with the same name is overwritten.
//
// Error types returned:
//   - ErrInvalidInput: empty name
//   - Wrapped store errors: issues writing to the store
func (s *Service) Upload(ctx context.Context, name string, content io.Reader, contentType string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	if name == "" {
		return fmt.Errorf("upload: %w: filename cannot be empty", ErrInvalidInput)
	}

	if err := s.store.Upload(ctx, name, content, contentType); err != nil {
		return fmt.Errorf("upload '%s': %w", name, err)
	}

	s.logger.Info("blob uploaded", "name", name, "content_type", contentType)
	return nil
}

// ListURLs enumerates the bucket and returns one signed URL per blob, in the
// store's enumeration order. Blobs whose signing failed are logged and
// omitted; an enumeration failure fails the whole call.
func (s *Service) ListURLs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list urls: %w", err)
	}

	blobs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list urls: %w", err)
	}

	signed := s.signAll(ctx, blobs)

	urls := make([]string, 0, len(blobs))
	for _, u := range signed {
		if u != nil {
			urls = append(urls, *u)
		}
	}
	return urls, nil
}

// ListImages enumerates the bucket and returns one metadata record per blob,
// in the store's enumeration order. Unlike ListURLs, a blob whose signing
// failed is still emitted, with a nil URL, so callers always see exactly one
// record per enumerated blob.
func (s *Service) ListImages(ctx context.Context) ([]Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	blobs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	signed := s.signAll(ctx, blobs)

	images := make([]Image, len(blobs))
	for i, b := range blobs {
		var updated *string
		if !b.Updated.IsZero() {
			ts := b.Updated.UTC().Format(time.RFC3339)
			updated = &ts
		}
		images[i] = Image{
			Name:     b.Name,
			Filename: b.Name,
			URL:      signed[i],
			Size:     b.Size,
			Updated:  updated,
		}
	}
	return images, nil
}

// signAll issues signed URLs for every blob concurrently and returns them in
// enumeration order, with nil for blobs whose signing failed. Signing is
// side-effect-free, so the fan-out is purely a latency optimization.
func (s *Service) signAll(ctx context.Context, blobs []BlobInfo) []*string {
	signed := make([]*string, len(blobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(signConcurrency)

	for i, b := range blobs {
		g.Go(func() error {
			u, err := s.store.SignedURL(gctx, b.Name, s.expiry)
			if err != nil {
				s.logger.Error("could not sign URL for blob", "name", b.Name, "err", err)
				return nil
			}
			signed[i] = &u
			return nil
		})
	}

	// Goroutines report signing failures via the nil slot, never as errors.
	_ = g.Wait()

	return signed
}

// Delete removes the named blob. The existence check makes repeated deletion
// observable: deleting twice yields ErrNotFound on the second call rather
// than a false success.
//
// Error types returned:
//   - ErrInvalidInput: empty name
//   - ErrNotFound: blob does not exist
//   - Wrapped store errors: issues deleting from the store
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if name == "" {
		return fmt.Errorf("delete: %w: filename cannot be empty", ErrInvalidInput)
	}

	exists, err := s.store.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("delete '%s': %w", name, err)
	}
	if !exists {
		return fmt.Errorf("delete '%s': %w", name, ErrNotFound)
	}

	if err := s.store.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete '%s': %w", name, err)
	}

	s.logger.Info("blob deleted", "name", name)
	return nil
}
