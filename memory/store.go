// Package memory provides an in-memory blob store backend. It implements the
// same capability interface as the real backends and is used by tests and by
// the demo backend of the serve command.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/picstash/picstash"
)

type blob struct {
	data        []byte
	contentType string
	updated     time.Time
}

// Store holds blobs in a map guarded by a mutex. Enumeration order is
// lexicographic by name, mirroring S3.
type Store struct {
	mu     sync.RWMutex
	blobs  map[string]blob
	signer *picstash.Signer
	now    func() time.Time
}

// NewStore creates an empty Store. signer may be nil, in which case SignedURL
// fails with picstash.ErrSigning for every blob.
func NewStore(signer *picstash.Signer) *Store {
	return &Store{
		blobs:  make(map[string]blob),
		signer: signer,
		now:    time.Now,
	}
}

func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[name]
	return ok, nil
}

func (s *Store) Upload(ctx context.Context, name string, content io.Reader, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return fmt.Errorf("read content: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[name] = blob{data: data, contentType: contentType, updated: s.now()}
	return nil
}

func (s *Store) List(ctx context.Context) ([]picstash.BlobInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]picstash.BlobInfo, 0, len(s.blobs))
	for name, b := range s.blobs {
		infos = append(infos, picstash.BlobInfo{
			Name:        name,
			Size:        int64(len(b.data)),
			ContentType: b.contentType,
			Updated:     b.updated,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[name]; !ok {
		return picstash.ErrNotFound
	}
	delete(s.blobs, name)
	return nil
}

func (s *Store) SignedURL(ctx context.Context, name string, expiry time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if s.signer == nil {
		return "", fmt.Errorf("no signer configured: %w", picstash.ErrSigning)
	}
	return s.signer.SignedURL(name, expiry)
}

// Open returns the blob's content for direct serving via the media route.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, picstash.BlobInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, picstash.BlobInfo{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[name]
	if !ok {
		return nil, picstash.BlobInfo{}, picstash.ErrNotFound
	}

	info := picstash.BlobInfo{
		Name:        name,
		Size:        int64(len(b.data)),
		ContentType: b.contentType,
		Updated:     b.updated,
	}
	return io.NopCloser(bytes.NewReader(b.data)), info, nil
}
