package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picstash/picstash"
	picstashhttp "github.com/picstash/picstash/http"
	"github.com/picstash/picstash/memory"
)

// newGateway wires a memory store, a local signer, and the full router
// together, the way the serve command does.
func newGateway(t *testing.T, signerNow func() time.Time) (http.Handler, *memory.Store) {
	t.Helper()

	signer, err := picstash.NewSigner(picstash.SignerConfig{
		AccessKey: "picstash",
		SecretKey: "gateway-secret",
		Region:    "us-east-1",
		Service:   "s3",
		BaseURL:   "http://gallery.test/media",
		Now:       signerNow,
	})
	require.NoError(t, err)

	store := memory.NewStore(signer)

	svc, err := picstash.NewService(store, picstash.ServiceConfig{})
	require.NoError(t, err)

	config := &picstashhttp.HandlerConfig{
		MediaVerifier: picstash.NewVerifier(picstash.VerifierConfig{
			AccessKey: "picstash",
			SecretKey: "gateway-secret",
			Region:    "us-east-1",
			Service:   "s3",
		}),
	}

	return picstashhttp.NewHandler(config, svc, store).Router(), store
}

func do(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func uploadImage(t *testing.T, router http.Handler, filename, contentType, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, bodyType := multipartBody(t, "image", filename, contentType, content)
	req := httptest.NewRequest(http.MethodPost, "http://gallery.test/api/upload", body)
	req.Header.Set("Content-Type", bodyType)
	return do(router, req)
}

func listImages(t *testing.T, router http.Handler) []map[string]any {
	t.Helper()
	rec := do(router, httptest.NewRequest(http.MethodGet, "http://gallery.test/api/list-images", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var records []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&records))
	return records
}

func TestGateway_UploadThenList(t *testing.T) {
	router, _ := newGateway(t, nil)

	rec := uploadImage(t, router, "cat.png", "image/png", "pngdata-1024")
	require.Equal(t, http.StatusCreated, rec.Code)

	records := listImages(t, router)
	require.Len(t, records, 1)
	assert.Equal(t, "cat.png", records[0]["name"])
	assert.Equal(t, "cat.png", records[0]["filename"])
	assert.NotNil(t, records[0]["url"])
	assert.Equal(t, float64(len("pngdata-1024")), records[0]["size"])
	assert.NotNil(t, records[0]["updated"])
}

func TestGateway_OverwriteKeepsOneBlob(t *testing.T) {
	router, _ := newGateway(t, nil)

	require.Equal(t, http.StatusCreated, uploadImage(t, router, "cat.png", "image/png", "first").Code)
	require.Equal(t, http.StatusCreated, uploadImage(t, router, "cat.png", "image/jpeg", "second!").Code)

	records := listImages(t, router)
	require.Len(t, records, 1)
	assert.Equal(t, float64(len("second!")), records[0]["size"])
}

func TestGateway_InvalidUploadLeavesBucketUnchanged(t *testing.T) {
	router, _ := newGateway(t, nil)

	rec := uploadImage(t, router, "", "image/png", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, listImages(t, router))
}

func TestGateway_DeleteTwice(t *testing.T) {
	router, _ := newGateway(t, nil)

	require.Equal(t, http.StatusCreated, uploadImage(t, router, "cat.png", "image/png", "data").Code)

	rec := do(router, httptest.NewRequest(http.MethodDelete, "http://gallery.test/api/delete-image/cat.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, httptest.NewRequest(http.MethodDelete, "http://gallery.test/api/delete-image/cat.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGateway_SignedURLServesBlob(t *testing.T) {
	router, _ := newGateway(t, nil)

	require.Equal(t, http.StatusCreated, uploadImage(t, router, "cat.png", "image/png", "pngdata").Code)

	rec := do(router, httptest.NewRequest(http.MethodGet, "http://gallery.test/api/images", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var urls []string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&urls))
	require.Len(t, urls, 1)

	u, err := url.Parse(urls[0])
	require.NoError(t, err)
	assert.Equal(t, "/media/cat.png", u.Path)

	rec = do(router, httptest.NewRequest(http.MethodGet, urls[0], nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pngdata", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}

func TestGateway_SignedURLRejectedAfterExpiry(t *testing.T) {
	past := time.Now().Add(-16 * time.Minute)
	router, _ := newGateway(t, func() time.Time { return past })

	require.Equal(t, http.StatusCreated, uploadImage(t, router, "cat.png", "image/png", "pngdata").Code)

	rec := do(router, httptest.NewRequest(http.MethodGet, "http://gallery.test/api/images", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var urls []string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&urls))
	require.Len(t, urls, 1)

	rec = do(router, httptest.NewRequest(http.MethodGet, urls[0], nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGateway_UnsignedMediaRequestRejected(t *testing.T) {
	router, _ := newGateway(t, nil)

	require.Equal(t, http.StatusCreated, uploadImage(t, router, "cat.png", "image/png", "pngdata").Code)

	rec := do(router, httptest.NewRequest(http.MethodGet, "http://gallery.test/media/cat.png", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
