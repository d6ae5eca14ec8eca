package filesystem_test

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picstash/picstash"
	"github.com/picstash/picstash/filesystem"
)

func newTestStore(t *testing.T) *filesystem.Store {
	t.Helper()

	root, err := os.OpenRoot(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	return filesystem.NewStore(root, nil)
}

func TestStore_UploadAndExists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "cat.png")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Upload(ctx, "cat.png", strings.NewReader("data"), "image/png"))

	exists, err = store.Exists(ctx, "cat.png")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_UploadCreatesIntermediateDirs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "holidays/2026/beach.jpg", strings.NewReader("jpeg"), "image/jpeg"))

	exists, err := store.Exists(ctx, "holidays/2026/beach.jpg")
	require.NoError(t, err)
	assert.True(t, exists)

	infos, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "holidays/2026/beach.jpg", infos[0].Name)
}

func TestStore_UploadOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "cat.png", strings.NewReader("first"), "image/png"))
	require.NoError(t, store.Upload(ctx, "cat.png", strings.NewReader("second!"), "image/png"))

	rc, info, err := store.Open(ctx, "cat.png")
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "second!", string(data))
	assert.Equal(t, int64(len("second!")), info.Size)
}

func TestStore_ListSkipsTempFilesAndDirs(t *testing.T) {
	dir := t.TempDir()
	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	store := filesystem.NewStore(root, nil)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "a.png", strings.NewReader("a"), "image/png"))
	require.NoError(t, store.Upload(ctx, "sub/b.jpg", strings.NewReader("bb"), "image/jpeg"))

	// An abandoned temp file from a crashed upload.
	tmp := ".t" + strings.Repeat("0", 36)
	require.NoError(t, os.WriteFile(dir+"/"+tmp, []byte("junk"), 0o644))

	infos, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	names := []string{infos[0].Name, infos[1].Name}
	assert.Contains(t, names, "a.png")
	assert.Contains(t, names, "sub/b.jpg")
}

func TestStore_ListContentTypeFromExtension(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "cat.png", strings.NewReader("data"), "application/octet-stream"))
	require.NoError(t, store.Upload(ctx, "notes", strings.NewReader("data"), "image/png"))

	infos, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	byName := map[string]picstash.BlobInfo{}
	for _, info := range infos {
		byName[info.Name] = info
	}
	assert.Equal(t, "image/png", byName["cat.png"].ContentType)
	assert.Equal(t, "application/octet-stream", byName["notes"].ContentType)
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "cat.png", strings.NewReader("data"), "image/png"))
	require.NoError(t, store.Delete(ctx, "cat.png"))

	err := store.Delete(ctx, "cat.png")
	assert.ErrorIs(t, err, picstash.ErrNotFound)
}

func TestStore_OpenNotFound(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.Open(context.Background(), "ghost.png")
	assert.ErrorIs(t, err, picstash.ErrNotFound)
}

func TestStore_EscapingPathRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Upload(ctx, "../escape.png", strings.NewReader("data"), "image/png")
	assert.Error(t, err)

	_, err = store.Exists(ctx, "../escape.png")
	assert.Error(t, err)
}

func TestStore_SignedURL_NoSigner(t *testing.T) {
	store := newTestStore(t)

	_, err := store.SignedURL(context.Background(), "cat.png", 15*time.Minute)
	assert.ErrorIs(t, err, picstash.ErrSigning)
}

func TestStore_SignedURL(t *testing.T) {
	signer, err := picstash.NewSigner(picstash.SignerConfig{
		AccessKey: "k",
		SecretKey: "s",
		Region:    "us-east-1",
		Service:   "s3",
		BaseURL:   "http://gallery.test/media",
	})
	require.NoError(t, err)

	root, rootErr := os.OpenRoot(t.TempDir())
	require.NoError(t, rootErr)
	t.Cleanup(func() { _ = root.Close() })

	store := filesystem.NewStore(root, signer)

	u, err := store.SignedURL(context.Background(), "cat.png", 15*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, u, "/media/cat.png")
	assert.Contains(t, u, "X-Amz-Signature=")
}
