package picstash_test

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picstash/picstash"
)

func newTestSigner(t *testing.T, now func() time.Time) *picstash.Signer {
	t.Helper()
	signer, err := picstash.NewSigner(picstash.SignerConfig{
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
		Region:    "us-east-1",
		Service:   "s3",
		BaseURL:   "http://gallery.test:8080/media",
		Now:       now,
	})
	require.NoError(t, err)
	return signer
}

func newTestVerifier() *picstash.Verifier {
	return picstash.NewVerifier(picstash.VerifierConfig{
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
		Region:    "us-east-1",
		Service:   "s3",
	})
}

func verifyURL(t *testing.T, v *picstash.Verifier, method, rawURL string) error {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)

	headers := http.Header{}
	headers.Set("Host", u.Host)

	return v.Verify(method, u.Path, u.Query(), headers)
}

func TestSigner_RoundTrip(t *testing.T) {
	signer := newTestSigner(t, nil)
	verifier := newTestVerifier()

	signed, err := signer.SignedURL("cat.png", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "/media/cat.png", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))

	assert.NoError(t, verifyURL(t, verifier, http.MethodGet, signed))
}

func TestSigner_MultiSegmentName(t *testing.T) {
	signer := newTestSigner(t, nil)
	verifier := newTestVerifier()

	signed, err := signer.SignedURL("holidays/beach.jpg", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "/media/holidays/beach.jpg", u.Path)

	assert.NoError(t, verifyURL(t, verifier, http.MethodGet, signed))
}

func TestSigner_GetOnly(t *testing.T) {
	signer := newTestSigner(t, nil)
	verifier := newTestVerifier()

	signed, err := signer.SignedURL("cat.png", 15*time.Minute)
	require.NoError(t, err)

	for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodPost} {
		err := verifyURL(t, verifier, method, signed)
		assert.ErrorIs(t, err, picstash.ErrUnauthorized, method)
	}
}

func TestSigner_ExpiredGrantRejected(t *testing.T) {
	past := time.Now().Add(-20 * time.Minute)
	signer := newTestSigner(t, func() time.Time { return past })
	verifier := newTestVerifier()

	signed, err := signer.SignedURL("cat.png", 15*time.Minute)
	require.NoError(t, err)

	err = verifyURL(t, verifier, http.MethodGet, signed)
	assert.ErrorIs(t, err, picstash.ErrUnauthorized)
	assert.ErrorContains(t, err, "expired")
}

func TestSigner_TamperedPathRejected(t *testing.T) {
	signer := newTestSigner(t, nil)
	verifier := newTestVerifier()

	signed, err := signer.SignedURL("cat.png", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	u.Path = "/media/dog.png"

	assert.ErrorIs(t, verifyURL(t, verifier, http.MethodGet, u.String()), picstash.ErrUnauthorized)
}

func TestSigner_TamperedExpiryRejected(t *testing.T) {
	signer := newTestSigner(t, nil)
	verifier := newTestVerifier()

	signed, err := signer.SignedURL("cat.png", time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	q := u.Query()
	q.Set("X-Amz-Expires", "604800")
	u.RawQuery = q.Encode()

	assert.ErrorIs(t, verifyURL(t, verifier, http.MethodGet, u.String()), picstash.ErrUnauthorized)
}

func TestSigner_NoCredentials(t *testing.T) {
	signer, err := picstash.NewSigner(picstash.SignerConfig{
		Region:  "us-east-1",
		Service: "s3",
		BaseURL: "http://gallery.test/media",
	})
	require.NoError(t, err)

	_, err = signer.SignedURL("cat.png", 15*time.Minute)
	assert.ErrorIs(t, err, picstash.ErrSigning)
}

func TestSigner_InvalidExpiry(t *testing.T) {
	signer := newTestSigner(t, nil)

	_, err := signer.SignedURL("cat.png", 0)
	assert.ErrorIs(t, err, picstash.ErrSigning)

	_, err = signer.SignedURL("cat.png", 8*24*time.Hour)
	assert.ErrorIs(t, err, picstash.ErrSigning)
}

func TestNewSigner_RelativeBaseURL(t *testing.T) {
	_, err := picstash.NewSigner(picstash.SignerConfig{
		AccessKey: "k",
		SecretKey: "s",
		BaseURL:   "/media",
	})
	assert.Error(t, err)
}

func TestVerifier_UnknownAccessKey(t *testing.T) {
	signer, err := picstash.NewSigner(picstash.SignerConfig{
		AccessKey: "SOMEONEELSE",
		SecretKey: "secret",
		Region:    "us-east-1",
		Service:   "s3",
		BaseURL:   "http://gallery.test/media",
	})
	require.NoError(t, err)

	signed, err := signer.SignedURL("cat.png", 15*time.Minute)
	require.NoError(t, err)

	err = verifyURL(t, newTestVerifier(), http.MethodGet, signed)
	assert.ErrorIs(t, err, picstash.ErrUnauthorized)
	assert.ErrorContains(t, err, "access key")
}

func TestVerifier_MissingParams(t *testing.T) {
	verifier := newTestVerifier()

	err := verifier.Verify(http.MethodGet, "/media/cat.png", url.Values{}, http.Header{})
	assert.ErrorIs(t, err, picstash.ErrUnauthorized)
}
