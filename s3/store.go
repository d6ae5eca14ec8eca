// Package s3 provides a blob store backend on S3-compatible object storage
// using the AWS SDK. Signed URLs are issued with the SDK's presign client,
// so the service identity needs only delegated presign rights, never the
// store's root credentials.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/picstash/picstash"
)

// Config holds connection settings for an S3 bucket.
type Config struct {
	Bucket string
	Region string
	// Endpoint overrides the SDK's endpoint resolution, for S3-compatible
	// stores (MinIO, Ceph RGW). Empty means AWS.
	Endpoint string
	// CredentialsFile is an explicit shared-credentials file path. Empty means
	// the ambient identity: environment, instance profile, or the default
	// credential chain.
	CredentialsFile string
	// AccessKey and SecretKey, when both set, take precedence over
	// CredentialsFile and the ambient chain.
	AccessKey string
	SecretKey string
	// UsePathStyle addresses the bucket in the URL path instead of the host.
	UsePathStyle bool
}

// Store provides blob operations on one S3 bucket.
type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// NewStore resolves credentials once and creates a Store. Credential
// resolution failures are returned here so the process can refuse to start
// rather than serve half-configured.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("new s3 store: %w: bucket cannot be empty", picstash.ErrInvalidInput)
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	switch {
	case cfg.AccessKey != "" && cfg.SecretKey != "":
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	case cfg.CredentialsFile != "":
		loadOpts = append(loadOpts, awsconfig.WithSharedCredentialsFiles([]string{cfg.CredentialsFile}))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("new s3 store: load aws config: %w", err)
	}

	// The SDK resolves shared-credentials files lazily; force resolution now
	// so a bad key file fails startup instead of the first request.
	if cfg.CredentialsFile != "" || (cfg.AccessKey != "" && cfg.SecretKey != "") {
		if _, err := awsCfg.Credentials.Retrieve(ctx); err != nil {
			return nil, fmt.Errorf("new s3 store: resolve credentials: %w", err)
		}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
	}, nil
}

func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("head '%s': %w", name, err)
	}
	return true, nil
}

func (s *Store) Upload(ctx context.Context, name string, content io.Reader, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
		Body:   content,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put '%s': %w", name, err)
	}
	return nil
}

// List exhausts the bucket via the SDK's ListObjectsV2 paginator and returns
// blobs in S3's enumeration order. S3 listings do not carry content types.
func (s *Store) List(ctx context.Context) ([]picstash.BlobInfo, error) {
	infos := make([]picstash.BlobInfo, 0)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list bucket '%s': %w", s.bucket, err)
		}
		for _, obj := range page.Contents {
			infos = append(infos, picstash.BlobInfo{
				Name:    aws.ToString(obj.Key),
				Size:    aws.ToInt64(obj.Size),
				Updated: aws.ToTime(obj.LastModified),
			})
		}
	}

	return infos, nil
}

// Delete removes a blob. S3's DeleteObject succeeds for absent keys, so the
// not-found distinction is made by the caller's existence check.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("delete '%s': %w", name, err)
	}
	return nil
}

func (s *Store) SignedURL(ctx context.Context, name string, expiry time.Duration) (string, error) {
	resp, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presign '%s': %v: %w", name, err, picstash.ErrSigning)
	}
	return resp.URL, nil
}
