package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StoreMetrics provides observability for metadata and content store
// operations issued by the service layer.
//
// This interface is optional: a nil StoreMetrics passed to the service is
// replaced with the no-op implementation.
//
// Example usage:
//
//	m := metrics.NewStoreMetrics("badger", "filesystem")
//	svc := service.New(metaStore, contentStore, service.Options{Metrics: m})
type StoreMetrics interface {
	// RecordMetadataOperation records a completed metadata store operation.
	//
	// Parameters:
	//   - operation: Operation name (e.g., "CreateDirectory", "DeleteFile")
	//   - duration: Time taken to complete the operation
	//   - err: Error if operation failed, nil if successful
	RecordMetadataOperation(operation string, duration time.Duration, err error)

	// RecordContentOperation records a completed blob store operation
	// ("write", "read", "delete").
	RecordContentOperation(operation string, duration time.Duration, err error)

	// RecordContentBytes records blob bytes written ("write") or read ("read").
	RecordContentBytes(operation string, bytes int64)

	// RecordGarbageCollected records the outcome of a GC sweep.
	RecordGarbageCollected(removed, failed int)
}

type storeMetrics struct {
	metadataStore string
	contentStore  string

	metadataOpsTotal    *prometheus.CounterVec
	metadataOpsDuration *prometheus.HistogramVec
	contentOpsTotal     *prometheus.CounterVec
	contentOpsDuration  *prometheus.HistogramVec
	contentBytes        *prometheus.CounterVec
	gcRemoved           prometheus.Counter
	gcFailed            prometheus.Counter
}

// NewStoreMetrics creates a Prometheus-backed StoreMetrics instance.
//
// Parameters:
//   - metadataStore: Type of metadata store (e.g., "memory", "badger"),
//     used as the store_type label on metadata metrics
//   - contentStore: Type of content store (e.g., "filesystem", "s3")
//
// Returns a no-op implementation if metrics are not enabled.
func NewStoreMetrics(metadataStore, contentStore string) StoreMetrics {
	if !IsEnabled() {
		return NewNoopStoreMetrics()
	}

	reg := GetRegistry()

	return &storeMetrics{
		metadataStore: metadataStore,
		contentStore:  contentStore,
		metadataOpsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "metadata_operations_total",
				Help:      "Total number of metadata operations by store type, operation, and status",
			},
			[]string{"store_type", "operation", "status"},
		),
		metadataOpsDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "metadata_operation_duration_seconds",
				Help:      "Duration of metadata operations in seconds",
				Buckets: []float64{
					0.0001, // 100µs
					0.0005, // 500µs
					0.001,  // 1ms
					0.005,  // 5ms
					0.01,   // 10ms
					0.05,   // 50ms
					0.1,    // 100ms
					0.5,    // 500ms
					1.0,    // 1s
				},
			},
			[]string{"store_type", "operation"},
		),
		contentOpsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "content_operations_total",
				Help:      "Total number of content store operations by store type, operation, and status",
			},
			[]string{"store_type", "operation", "status"},
		),
		contentOpsDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "content_operation_duration_seconds",
				Help:      "Duration of content store operations in seconds",
				Buckets: []float64{
					0.001, // 1ms
					0.01,  // 10ms
					0.05,  // 50ms
					0.1,   // 100ms
					0.5,   // 500ms
					1.0,   // 1s
					5.0,   // 5s
					30.0,  // 30s
				},
			},
			[]string{"store_type", "operation"},
		),
		contentBytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "content_bytes_total",
				Help:      "Total bytes written to and read from the content store",
			},
			[]string{"store_type", "operation"},
		),
		gcRemoved: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gc_blobs_removed_total",
				Help:      "Total number of unreferenced blobs removed by garbage collection",
			},
		),
		gcFailed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gc_blobs_failed_total",
				Help:      "Total number of unreferenced blobs garbage collection failed to remove",
			},
		),
	}
}

func (m *storeMetrics) RecordMetadataOperation(operation string, duration time.Duration, err error) {
	m.metadataOpsTotal.WithLabelValues(m.metadataStore, operation, statusLabel(err)).Inc()
	m.metadataOpsDuration.WithLabelValues(m.metadataStore, operation).Observe(duration.Seconds())
}

func (m *storeMetrics) RecordContentOperation(operation string, duration time.Duration, err error) {
	m.contentOpsTotal.WithLabelValues(m.contentStore, operation, statusLabel(err)).Inc()
	m.contentOpsDuration.WithLabelValues(m.contentStore, operation).Observe(duration.Seconds())
}

func (m *storeMetrics) RecordContentBytes(operation string, bytes int64) {
	m.contentBytes.WithLabelValues(m.contentStore, operation).Add(float64(bytes))
}

func (m *storeMetrics) RecordGarbageCollected(removed, failed int) {
	m.gcRemoved.Add(float64(removed))
	m.gcFailed.Add(float64(failed))
}

// noopStoreMetrics is a no-op implementation of StoreMetrics with zero overhead.
type noopStoreMetrics struct{}

// NewNoopStoreMetrics returns a StoreMetrics that records nothing.
func NewNoopStoreMetrics() StoreMetrics {
	return noopStoreMetrics{}
}

func (noopStoreMetrics) RecordMetadataOperation(string, time.Duration, error) {}
func (noopStoreMetrics) RecordContentOperation(string, time.Duration, error)  {}
func (noopStoreMetrics) RecordContentBytes(string, int64)                     {}
func (noopStoreMetrics) RecordGarbageCollected(int, int)                      {}
