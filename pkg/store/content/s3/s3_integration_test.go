//go:build integration

package s3

import (
	"context"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/nestfs/pkg/store/content"
	contenttesting "github.com/marmos91/nestfs/pkg/store/content/testing"
)

// TestS3ContentStore_Integration runs the complete content store test suite
// against an S3-compatible service (Localstack).
//
// Prerequisites:
//   - Localstack running on localhost:4566
//   - Run with: go test -tags=integration ./pkg/store/content/s3/...
//
// To start Localstack:
//
//	docker run --rm -p 4566:4566 localstack/localstack
func TestS3ContentStore_Integration(t *testing.T) {
	ctx := context.Background()

	endpoint := os.Getenv("LOCALSTACK_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}

	client, err := NewS3ClientFromConfig(ctx, S3ClientOptions{
		Endpoint:        endpoint,
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		MaxRetries:      1,
	})
	require.NoError(t, err)

	bucket := "nestfs-test-" + uuid.NewString()[:8]
	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	require.NoError(t, err, "Failed to create test bucket")

	t.Cleanup(func() {
		list, _ := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: aws.String(bucket)})
		if list != nil {
			for _, obj := range list.Contents {
				_, _ = client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: obj.Key})
			}
		}
		_, _ = client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucket)})
	})

	// Each test gets its own key prefix so listings stay isolated within the
	// shared bucket.
	suite := &contenttesting.StoreTestSuite{
		NewStore: func() content.Store {
			store, err := NewS3ContentStore(ctx, S3ContentStoreConfig{
				Client:    client,
				Bucket:    bucket,
				KeyPrefix: uuid.NewString() + "/",
			})
			require.NoError(t, err)
			return store
		},
	}

	suite.Run(t)
}
