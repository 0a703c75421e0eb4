// Package metrics provides Prometheus metrics collection for NestFS.
//
// All metrics are optional. If the registry is not initialized, every
// constructor returns a no-op implementation, so components run the same
// with or without metrics enabled.
//
// Usage:
//
//	// Initialize global registry (typically in main.go)
//	metrics.InitRegistry()
//
//	apiMetrics := metrics.NewAPIMetrics()
//	metadataMetrics := metrics.NewMetadataMetrics("badger")
//
//	// Or pass nil for no-op behavior
//	router := api.NewRouter(svc, api.Options{})
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "nestfs"

var (
	// registry is written once by InitRegistry and read many times.
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry with the Go
// runtime and process collectors.
//
// This must be called before creating any metrics instances. It's safe to call
// multiple times: subsequent calls are ignored.
func InitRegistry() {
	registryOnce.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registry = reg
	})
}

// GetRegistry returns the global Prometheus registry, or nil when metrics
// are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled returns true if InitRegistry() has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
