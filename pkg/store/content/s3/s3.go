// Package s3 implements S3-based content storage for NestFS.
//
// This file contains the store type, constructor, client construction and
// lifecycle management.
package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/store/content"
)

// S3ContentStore implements content.Store on Amazon S3 or an S3-compatible
// service (MinIO, Localstack).
//
// Each blob is one object whose key is KeyPrefix + ContentID. No local
// caching: every read hits S3.
type S3ContentStore struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// S3ContentStoreConfig contains configuration for the S3 content store.
type S3ContentStoreConfig struct {
	// Client is the configured S3 client
	Client *s3.Client

	// Bucket is the S3 bucket name. It must already exist.
	Bucket string

	// KeyPrefix is an optional prefix for all object keys
	// Example: "nestfs/" results in keys like "nestfs/<uuid>"
	KeyPrefix string
}

// NewS3ContentStore creates a new S3-based content store and verifies that
// the bucket is accessible.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - cfg: S3 configuration
//
// Returns:
//   - *S3ContentStore: Initialized S3 content store
//   - error: Returns error if bucket access fails or context is cancelled
func NewS3ContentStore(ctx context.Context, cfg S3ContentStoreConfig) (*S3ContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	store := &S3ContentStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := store.Healthcheck(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// S3ClientOptions holds the settings used to build an S3 client.
type S3ClientOptions struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
	MaxRetries      int
}

// NewS3ClientFromConfig builds an S3 client.
//
// A custom endpoint enables S3-compatible services. Static credentials are
// used when both keys are set, otherwise the default AWS credential chain.
func NewS3ClientFromConfig(ctx context.Context, opts S3ClientOptions) (*s3.Client, error) {
	var configOptions []func(*awsConfig.LoadOptions) error

	configOptions = append(configOptions, awsConfig.WithRegion(opts.Region))

	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	cfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
		if opts.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	logger.Debug("S3 client created: region=%s endpoint=%s", opts.Region, opts.Endpoint)
	return client, nil
}

// getObjectKey returns the full S3 object key for a content ID.
func (s *S3ContentStore) getObjectKey(id string) string {
	return s.keyPrefix + id
}

// contentIDFromKey strips the key prefix from an object key.
func (s *S3ContentStore) contentIDFromKey(key string) string {
	if s.keyPrefix != "" && len(key) > len(s.keyPrefix) {
		return key[len(s.keyPrefix):]
	}
	return key
}

// Healthcheck verifies that the bucket is reachable.
func (s *S3ContentStore) Healthcheck(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to access bucket %q: %w: %w", s.bucket, content.ErrUnavailable, err)
	}
	return nil
}

// Close is a no-op: the S3 client holds no resources that need releasing.
func (s *S3ContentStore) Close() error {
	return nil
}

var _ content.Store = (*S3ContentStore)(nil)
