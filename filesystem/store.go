// Package filesystem provides a local blob store backend. Writes are atomic
// using temp files, content types are detected from file extensions, and
// signed URLs are minted with the gateway's own signer and served back
// through the /media route.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/picstash/picstash"
)

// Store provides blob operations on a sandboxed directory root.
type Store struct {
	root   *os.Root
	signer *picstash.Signer
}

// NewStore creates a Store rooted at root. The root sandboxes all file
// operations, preventing path traversal. signer may be nil, in which case
// SignedURL fails with picstash.ErrSigning for every blob.
func NewStore(root *os.Root, signer *picstash.Signer) *Store {
	return &Store{root: root, signer: signer}
}

func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := s.root.Stat(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat '%s': %w", name, err)
	}
	return !info.IsDir(), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Upload atomically writes content to the given name using a temp file and
// rename, creating intermediate directories as needed. The declared content
// type is not persisted; List and Open re-derive it from the file extension.
func (s *Store) Upload(ctx context.Context, name string, content io.Reader, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(t.Name()); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	if _, err := io.Copy(t, &ctxReader{ctx: ctx, r: content}); err != nil {
		return fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return fmt.Errorf("could not sync written file: %w", err)
	}

	destDir := filepath.Dir(name)
	if destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return fmt.Errorf("could not create intermediate directories: %w", err)
		}
	}

	if renameErr := s.root.Rename(tmpFile, name); renameErr != nil {
		return fmt.Errorf("failed to rename file: %w", renameErr)
	}

	success = true
	return nil
}

// List walks the root directory and returns every blob with its size,
// extension-derived content type, and modification time. Temp files from
// in-flight uploads are skipped.
func (s *Store) List(ctx context.Context) ([]picstash.BlobInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos := make([]picstash.BlobInfo, 0)

	err := fs.WalkDir(s.root.FS(), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || isTmpFileName(d.Name()) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat '%s': %w", path, err)
		}

		infos = append(infos, picstash.BlobInfo{
			Name:        path,
			Size:        fi.Size(),
			ContentType: detectContentType(path),
			Updated:     fi.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return infos, nil
}

// Delete removes a blob. Returns picstash.ErrNotFound if it does not exist.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.root.Remove(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return picstash.ErrNotFound
		}
		return fmt.Errorf("could not delete file: %w", err)
	}
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

	f, err := s.root.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, picstash.BlobInfo{}, picstash.ErrNotFound
		}
		return nil, picstash.BlobInfo{}, fmt.Errorf("failed to open file: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, picstash.BlobInfo{}, fmt.Errorf("stat '%s': %w", name, err)
	}

	info := picstash.BlobInfo{
		Name:        name,
		Size:        fi.Size(),
		ContentType: detectContentType(name),
		Updated:     fi.ModTime(),
	}
	return f, info, nil
}

func detectContentType(name string) string {
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}

func isTmpFileName(name string) bool {
	return strings.HasPrefix(name, ".t") && len(name) == len(".t")+36
}
