// Package gc removes orphaned blobs from a content store.
//
// A blob is orphaned when no file record references its ContentID. Orphans
// are left behind when a blob delete fails after its record was removed, or
// when the process dies between writing a blob and committing its record.
//
// Collection runs on demand (nestfs gc). It must not run concurrently with
// uploads: a blob written but not yet committed would look orphaned.
package gc

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/metrics"
	"github.com/marmos91/nestfs/pkg/store/content"
	"github.com/marmos91/nestfs/pkg/store/metadata"
)

// DefaultBatchSize matches the S3 DeleteObjects limit.
const DefaultBatchSize = 1000

// dryRunPreview is how many orphan IDs a dry run logs.
const dryRunPreview = 10

// Config contains configuration for the garbage collector.
type Config struct {
	// BatchSize is how many orphaned blobs to delete per DeleteBatch call
	// (default: 1000)
	BatchSize int

	// DryRun logs what would be deleted without deleting anything
	DryRun bool

	// Metrics receives the sweep result. Nil disables collection.
	Metrics metrics.StoreMetrics
}

// Collector compares the content IDs referenced by the metadata store with
// the blobs present in the content store and deletes the difference.
type Collector struct {
	metadataStore metadata.Store
	contentStore  content.Store
	config        Config
}

// NewCollector creates a collector over the given stores.
func NewCollector(metadataStore metadata.Store, contentStore content.Store, config Config) *Collector {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.Metrics == nil {
		config.Metrics = metrics.NewNoopStoreMetrics()
	}

	return &Collector{
		metadataStore: metadataStore,
		contentStore:  contentStore,
		config:        config,
	}
}

// RunNow performs a single collection and blocks until it finishes or ctx
// is cancelled.
//
// Returns:
//   - *Stats: collection statistics, also on error (partially filled)
//   - error: listing failures or context cancellation. Individual delete
//     failures are counted in Stats.FailedCount, not returned.
func (c *Collector) RunNow(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	defer func() { stats.EndTime = time.Now() }()

	logger.Info("GC: Phase 1 - Getting referenced content from metadata store...")

	referenced, err := c.metadataStore.GetAllContentIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to get referenced content: %w", err)
	}
	stats.ReferencedCount = uint64(len(referenced))

	referencedSet := make(map[string]struct{}, len(referenced))
	for _, id := range referenced {
		referencedSet[id] = struct{}{}
	}

	logger.Info("GC: Phase 2 - Listing content store...")

	existing, err := c.contentStore.ListAllContent(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list content: %w", err)
	}
	stats.ExistingCount = uint64(len(existing))

	orphaned := make([]string, 0)
	for _, id := range existing {
		if _, ok := referencedSet[id]; !ok {
			orphaned = append(orphaned, id)
		}
	}
	stats.OrphanedCount = uint64(len(orphaned))

	logger.Info("GC: %d referenced, %d stored, %d orphaned",
		stats.ReferencedCount, stats.ExistingCount, stats.OrphanedCount)

	if len(orphaned) == 0 {
		return stats, nil
	}

	if c.config.DryRun {
		logger.Info("GC: DRY RUN - would delete %d blobs:", len(orphaned))
		for _, id := range orphaned[:min(len(orphaned), dryRunPreview)] {
			logger.Info("  - %s", id)
		}
		if len(orphaned) > dryRunPreview {
			logger.Info("  ... and %d more", len(orphaned)-dryRunPreview)
		}
		return stats, nil
	}

	logger.Info("GC: Phase 3 - Deleting orphaned content in batches of %d...", c.config.BatchSize)

	for i := 0; i < len(orphaned); i += c.config.BatchSize {
		if err := ctx.Err(); err != nil {
			c.config.Metrics.RecordGarbageCollected(int(stats.DeletedCount), int(stats.FailedCount))
			return stats, err
		}

		end := min(i+c.config.BatchSize, len(orphaned))
		c.deleteBatch(ctx, orphaned[i:end], stats)
	}

	c.config.Metrics.RecordGarbageCollected(int(stats.DeletedCount), int(stats.FailedCount))
	logger.Info("GC: Completed - %s", stats.Summary())

	return stats, nil
}

func (c *Collector) deleteBatch(ctx context.Context, batch []string, stats *Stats) {
	start := time.Now()
	failures, err := c.contentStore.DeleteBatch(ctx, batch)
	c.config.Metrics.RecordContentOperation("delete", time.Since(start), err)

	if err != nil {
		logger.Warn("GC: Batch delete failed: %v", err)
		stats.FailedCount += uint64(len(batch))
		return
	}

	stats.DeletedCount += uint64(len(batch) - len(failures))
	stats.FailedCount += uint64(len(failures))

	for id, ferr := range failures {
		logger.Debug("GC: Failed to delete %s: %v", id, ferr)
	}
}

// Stats contains statistics from a garbage collection run.
type Stats struct {
	StartTime       time.Time // When collection started
	EndTime         time.Time // When collection ended
	ReferencedCount uint64    // ContentIDs referenced by file records
	ExistingCount   uint64    // Blobs in the content store
	OrphanedCount   uint64    // Blobs with no referencing record
	DeletedCount    uint64    // Orphans deleted
	FailedCount     uint64    // Orphans that failed to delete
}

// Duration returns the total collection duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable summary of the collection.
func (s *Stats) Summary() string {
	return fmt.Sprintf("referenced=%d existing=%d orphaned=%d deleted=%d failed=%d duration=%s",
		s.ReferencedCount, s.ExistingCount, s.OrphanedCount,
		s.DeletedCount, s.FailedCount, s.Duration())
}
