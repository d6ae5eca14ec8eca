package picstash

import (
	"context"
	"io"
	"time"
)

// BlobStore is the capability interface to a single bucket of blobs.
// Implementations can use S3, the local filesystem, or memory; the gateway
// holds no local copy or cache, so every call is a fresh round-trip.
//
// All methods accept a context for cancellation and timeout control.
type BlobStore interface {
	// Exists reports whether a blob with the given name is present.
	Exists(ctx context.Context, name string) (bool, error)

	// Upload streams content into the blob with the given name, recording
	// contentType as blob metadata. An existing blob with the same name is
	// overwritten; last writer wins.
	Upload(ctx context.Context, name string, content io.Reader, contentType string) error

	// List enumerates every blob in the bucket. Implementations exhaust their
	// own pagination; the caller consumes the result as a single slice in the
	// store's enumeration order. Returns an empty slice (not nil) when the
	// bucket is empty.
	List(ctx context.Context) ([]BlobInfo, error)

	// Delete removes a blob. Returns ErrNotFound if the blob does not exist.
	Delete(ctx context.Context, name string) error

	// SignedURL issues a GET-only capability URL for the blob, valid for the
	// given duration from now. Failures carry ErrSigning in the error chain
	// when the active credentials lack delegated signing rights.
	SignedURL(ctx context.Context, name string, expiry time.Duration) (string, error)
}

// BlobOpener is optionally implemented by stores that can serve blob content
// directly. The gateway uses it to back the /media/* route for locally signed
// URLs; stores with native presign support (S3) do not need it.
type BlobOpener interface {
	// Open returns the blob's content and its metadata.
	// Returns ErrNotFound if the blob does not exist.
	// The caller is responsible for closing the returned reader.
	Open(ctx context.Context, name string) (io.ReadCloser, BlobInfo, error)
}
