package config

import (
	"github.com/marmos91/nestfs/pkg/metrics"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// APIMetrics instruments the REST API (never nil, uses noop if disabled)
	APIMetrics metrics.APIMetrics

	// StoreMetrics instruments metadata and content store calls (never nil)
	StoreMetrics metrics.StoreMetrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the metrics HTTP server
//   - Creates Prometheus-backed metrics instances for the API and the stores
//
// If metrics are disabled:
//   - Returns nil server
//   - Returns no-op metrics implementations
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Server.Metrics.Enabled {
		return &MetricsResult{
			APIMetrics:   metrics.NewNoopAPIMetrics(),
			StoreMetrics: metrics.NewNoopStoreMetrics(),
		}
	}

	metrics.InitRegistry()

	return &MetricsResult{
		Server: metrics.NewServer(metrics.ServerConfig{
			Address: cfg.Server.Metrics.Address,
		}),
		APIMetrics:   metrics.NewAPIMetrics(),
		StoreMetrics: metrics.NewStoreMetrics(cfg.Metadata.Type, cfg.Content.Type),
	}
}
