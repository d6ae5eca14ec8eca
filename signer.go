package picstash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	SignatureAlgorithm = "AWS4-HMAC-SHA256"
	MaxExpirySeconds   = 604800 // 7 days
	DateTimeFormat     = "20060102T150405Z"
	DateFormat         = "20060102"
)

// SignerConfig configures a Signer.
type SignerConfig struct {
	// AccessKey and SecretKey are the delegated signing identity. An empty
	// SecretKey means the identity has no signing rights; SignedURL then fails
	// with ErrSigning for every blob.
	AccessKey string
	SecretKey string
	// Region and Service scope the credential, e.g. "us-east-1" and "s3".
	Region  string
	Service string
	// BaseURL is the public base under which signed paths are served,
	// e.g. "http://localhost:8080/media".
	BaseURL string
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Signer issues SigV4-style presigned GET URLs for blobs served by the
// gateway itself. It is the signing counterpart of Verifier and is used by
// store backends without native presign support.
type Signer struct {
	cfg  SignerConfig
	base *url.URL
	now  func() time.Time
}

// NewSigner creates a Signer. BaseURL must be an absolute URL.
func NewSigner(cfg SignerConfig) (*Signer, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("new signer: parse base url: %w", err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("new signer: base url must be absolute: %s", cfg.BaseURL)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Signer{cfg: cfg, base: base, now: now}, nil
}

// SignedURL issues a GET-only presigned URL for name, valid for expiry from
// now. The signature covers the method, so the URL is unusable for anything
// but GET, and unusable after the validity window elapses.
func (s *Signer) SignedURL(name string, expiry time.Duration) (string, error) {
	if s.cfg.AccessKey == "" || s.cfg.SecretKey == "" {
		return "", fmt.Errorf("sign '%s': no signing credentials: %w", name, ErrSigning)
	}

	expires := int(expiry / time.Second)
	if expires <= 0 || expires > MaxExpirySeconds {
		return "", fmt.Errorf("sign '%s': expiry must be between 1s and %ds: %w", name, MaxExpirySeconds, ErrSigning)
	}

	u := *s.base
	u.Path = path.Join(s.base.Path, name)
	u.RawPath = ""

	requestTime := s.now().UTC()
	dateStamp := requestTime.Format(DateFormat)

	query := url.Values{}
	query.Set("X-Amz-Algorithm", SignatureAlgorithm)
	query.Set("X-Amz-Credential", fmt.Sprintf("%s/%s/%s/%s/aws4_request",
		s.cfg.AccessKey, dateStamp, s.cfg.Region, s.cfg.Service))
	query.Set("X-Amz-Date", requestTime.Format(DateTimeFormat))
	query.Set("X-Amz-Expires", strconv.Itoa(expires))
	query.Set("X-Amz-SignedHeaders", "host")

	headers := http.Header{}
	headers.Set("Host", u.Host)

	signature := calculateSignature(
		s.cfg.SecretKey,
		http.MethodGet,
		u.Path,
		query,
		headers,
		requestTime,
		dateStamp,
		s.cfg.Region,
		s.cfg.Service,
		"host",
	)
	query.Set("X-Amz-Signature", signature)

	u.RawQuery = query.Encode()
	return u.String(), nil
}

// VerifierConfig configures a Verifier. The key pair, region, and service
// must match the Signer that issued the URLs.
type VerifierConfig struct {
	AccessKey string
	SecretKey string
	Region    string
	Service   string
}

// Verifier checks SigV4-style presigned URLs issued by a Signer. It validates
// the required query parameters, the expiry, the credential scope, and the
// HMAC-SHA256 signature.
type Verifier struct {
	cfg VerifierConfig
}

// NewVerifier creates a Verifier.
func NewVerifier(cfg VerifierConfig) *Verifier {
	return &Verifier{cfg: cfg}
}

// Verify checks a presigned URL request. Returns nil if the signature is
// valid and unexpired, or an error carrying ErrUnauthorized otherwise.
//
// Required query parameters: X-Amz-Algorithm, X-Amz-Credential, X-Amz-Date,
// X-Amz-Expires, X-Amz-SignedHeaders, X-Amz-Signature.
func (v *Verifier) Verify(method, urlPath string, query url.Values, headers http.Header) error {
	params, err := extractSignatureParams(query)
	if err != nil {
		return err
	}

	if err := v.validateParams(params); err != nil {
		return err
	}

	if params.accessKey != v.cfg.AccessKey {
		return fmt.Errorf("unknown access key: %w", ErrUnauthorized)
	}

	expected := calculateSignature(
		v.cfg.SecretKey,
		method,
		urlPath,
		query,
		headers,
		params.requestTime,
		params.dateStamp,
		params.region,
		params.service,
		params.signedHeaders,
	)

	if !hmac.Equal([]byte(expected), []byte(params.signature)) {
		return fmt.Errorf("signature mismatch: %w", ErrUnauthorized)
	}

	return nil
}

type signatureParams struct {
	algorithm     string
	accessKey     string
	dateStamp     string
	region        string
	service       string
	requestTime   time.Time
	expires       int
	signedHeaders string
	signature     string
}

func extractSignatureParams(query url.Values) (*signatureParams, error) {
	amzAlgorithm := query.Get("X-Amz-Algorithm")
	amzCredential := query.Get("X-Amz-Credential")
	amzDate := query.Get("X-Amz-Date")
	amzExpires := query.Get("X-Amz-Expires")
	amzSignedHeaders := query.Get("X-Amz-SignedHeaders")
	amzSignature := query.Get("X-Amz-Signature")

	if amzAlgorithm == "" || amzCredential == "" || amzDate == "" ||
		amzExpires == "" || amzSignedHeaders == "" || amzSignature == "" {
		return nil, fmt.Errorf("missing required signature parameters: %w", ErrUnauthorized)
	}

	requestTime, err := time.Parse(DateTimeFormat, amzDate)
	if err != nil {
		return nil, fmt.Errorf("invalid X-Amz-Date format: %w", ErrUnauthorized)
	}

	expires, err := strconv.Atoi(amzExpires)
	if err != nil || expires <= 0 || expires > MaxExpirySeconds {
		return nil, fmt.Errorf("invalid X-Amz-Expires: must be between 1 and %d: %w", MaxExpirySeconds, ErrUnauthorized)
	}

	credParts := strings.Split(amzCredential, "/")
	if len(credParts) != 5 {
		return nil, fmt.Errorf("invalid X-Amz-Credential format: %w", ErrUnauthorized)
	}

	if credParts[4] != "aws4_request" {
		return nil, fmt.Errorf("invalid credential terminator: expected aws4_request: %w", ErrUnauthorized)
	}

	return &signatureParams{
		algorithm:     amzAlgorithm,
		accessKey:     credParts[0],
		dateStamp:     credParts[1],
		region:        credParts[2],
		service:       credParts[3],
		requestTime:   requestTime,
		expires:       expires,
		signedHeaders: amzSignedHeaders,
		signature:     amzSignature,
	}, nil
}

func (v *Verifier) validateParams(params *signatureParams) error {
	if params.algorithm != SignatureAlgorithm {
		return fmt.Errorf("invalid algorithm: expected %s, got %s: %w", SignatureAlgorithm, params.algorithm, ErrUnauthorized)
	}

	if time.Now().After(params.requestTime.Add(time.Duration(params.expires) * time.Second)) {
		return fmt.Errorf("signature expired: %w", ErrUnauthorized)
	}

	expectedDate := params.requestTime.Format(DateFormat)
	if params.dateStamp != expectedDate {
		return fmt.Errorf("credential date mismatch: %w", ErrUnauthorized)
	}

	if params.region != v.cfg.Region {
		return fmt.Errorf("region mismatch: expected %s, got %s: %w", v.cfg.Region, params.region, ErrUnauthorized)
	}

	if params.service != v.cfg.Service {
		return fmt.Errorf("service mismatch: expected %s, got %s: %w", v.cfg.Service, params.service, ErrUnauthorized)
	}

	return nil
}

func calculateSignature(
	secretKey, method, urlPath string,
	query url.Values,
	headers http.Header,
	requestTime time.Time,
	dateStamp, region, service, signedHeaders string,
) string {
	canonicalRequest := buildCanonicalRequest(method, urlPath, query, headers, signedHeaders)

	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, region, service)
	stringToSign := buildStringToSign(requestTime, credentialScope, canonicalRequest)

	signingKey := deriveSigningKey(secretKey, dateStamp, region, service)

	return hex.EncodeToString(hmacSHA256(signingKey, []byte(stringToSign)))
}

func buildCanonicalRequest(method, urlPath string, query url.Values, headers http.Header, signedHeaders string) string {
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s\n%s",
		method,
		urlPath,
		buildCanonicalQueryString(query),
		buildCanonicalHeaders(headers, signedHeaders),
		signedHeaders,
		"UNSIGNED-PAYLOAD",
	)
}

// buildCanonicalHeaders builds the canonical headers string from the signed
// headers list. Headers are sorted alphabetically and formatted as "name:value\n".
func buildCanonicalHeaders(headers http.Header, signedHeaders string) string {
	headerNames := strings.Split(signedHeaders, ";")
	sort.Strings(headerNames)

	var result strings.Builder
	for _, name := range headerNames {
		value := strings.TrimSpace(headers.Get(name))
		result.WriteString(name)
		result.WriteString(":")
		result.WriteString(value)
		result.WriteString("\n")
	}
	return result.String()
}

func buildCanonicalQueryString(query url.Values) string {
	params := url.Values{}
	for k, v := range query {
		if k != "X-Amz-Signature" {
			params[k] = v
		}
	}
	return params.Encode()
}

func buildStringToSign(requestTime time.Time, credentialScope, canonicalRequest string) string {
	h := sha256.Sum256([]byte(canonicalRequest))
	return fmt.Sprintf("%s\n%s\n%s\n%s",
		SignatureAlgorithm,
		requestTime.Format(DateTimeFormat),
		credentialScope,
		hex.EncodeToString(h[:]),
	)
}

func deriveSigningKey(secretKey, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), []byte(dateStamp))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	return hmacSHA256(kService, []byte("aws4_request"))
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
