// Package service implements the NestFS operations on top of a metadata
// store and a content store.
//
// The metadata store is the source of truth. Blob writes happen before the
// metadata record is committed and blob deletes after, so a failure in
// between can leave an orphaned blob but never a record without content.
// Orphans are removed by pkg/gc.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/metrics"
	"github.com/marmos91/nestfs/pkg/store/content"
	"github.com/marmos91/nestfs/pkg/store/metadata"
	"github.com/marmos91/nestfs/pkg/tree"
)

// DefaultMaxUploadBytes is the upload limit used when Options leaves it unset.
const DefaultMaxUploadBytes int64 = 32 << 20

// DefaultMaxDepthLimit caps per-request tree depth when Options leaves it unset.
const DefaultMaxDepthLimit = 32

// ErrUploadTooLarge is returned when an upload exceeds MaxUploadBytes.
var ErrUploadTooLarge = errors.New("upload exceeds maximum size")

// Options configures a Service.
type Options struct {
	// DefaultMaxDepth is the tree depth used when a request does not ask
	// for one. Zero selects tree.DefaultMaxDepth.
	DefaultMaxDepth int

	// MaxDepthLimit caps requested tree depths.
	MaxDepthLimit int

	// MaxUploadBytes rejects larger uploads with ErrUploadTooLarge.
	MaxUploadBytes int64

	// Metrics records store operations. Nil disables collection.
	Metrics metrics.StoreMetrics
}

func (o *Options) applyDefaults() {
	if o.DefaultMaxDepth <= 0 {
		o.DefaultMaxDepth = tree.DefaultMaxDepth
	}
	if o.MaxDepthLimit <= 0 {
		o.MaxDepthLimit = DefaultMaxDepthLimit
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NewNoopStoreMetrics()
	}
}

// Service is safe for concurrent use; it keeps no mutable state of its own.
type Service struct {
	metadata metadata.Store
	content  content.Store
	opts     Options

	newContentID func() string
}

// New creates a Service over the given stores.
func New(metadataStore metadata.Store, contentStore content.Store, opts Options) *Service {
	opts.applyDefaults()

	return &Service{
		metadata:     metadataStore,
		content:      contentStore,
		opts:         opts,
		newContentID: uuid.NewString,
	}
}

// MaxUploadBytes returns the configured upload limit.
func (s *Service) MaxUploadBytes() int64 {
	return s.opts.MaxUploadBytes
}

// Healthcheck checks both stores.
func (s *Service) Healthcheck(ctx context.Context) error {
	if err := s.metadata.Healthcheck(ctx); err != nil {
		return fmt.Errorf("metadata store: %w", err)
	}
	if err := s.content.Healthcheck(ctx); err != nil {
		return fmt.Errorf("content store: %w", err)
	}
	return nil
}

// observe records a metadata operation. Use as:
//
//	defer s.observe("CreateDirectory", time.Now(), &err)
func (s *Service) observe(operation string, start time.Time, err *error) {
	s.opts.Metrics.RecordMetadataOperation(operation, time.Since(start), *err)
}

// deleteBlobs removes blobs after their records were deleted. Failures are
// logged and never returned: the metadata change has already committed and
// the garbage collector will pick up whatever is left behind.
func (s *Service) deleteBlobs(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}

	start := time.Now()
	failures, err := s.content.DeleteBatch(ctx, ids)
	s.opts.Metrics.RecordContentOperation("delete", time.Since(start), err)

	if err != nil {
		logger.Warn("Failed to delete %d blobs: %v", len(ids), err)
		return
	}
	for id, ferr := range failures {
		logger.Warn("Failed to delete blob %s: %v", id, ferr)
	}
}
