package config

import (
	"github.com/marmos91/nestfs/pkg/adapter"
	"github.com/marmos91/nestfs/pkg/api"
	"github.com/marmos91/nestfs/pkg/metrics"
	"github.com/marmos91/nestfs/pkg/service"
)

// ServiceOptions maps the tree and upload settings onto service.Options.
func ServiceOptions(cfg *Config, storeMetrics metrics.StoreMetrics) service.Options {
	return service.Options{
		DefaultMaxDepth: cfg.Tree.DefaultMaxDepth,
		MaxDepthLimit:   cfg.Tree.MaxDepthLimit,
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
		Metrics:         storeMetrics,
	}
}

// CreateAdapters creates the front ends to run for svc: the REST API and,
// when enabled, the metrics endpoint.
//
// Parameters:
//   - cfg: The complete NestFS configuration
//   - svc: The service backing the API
//   - metricsResult: Output of InitializeMetrics
//
// Returns:
//   - []adapter.Adapter: Adapters ready to be added to the server, API first
func CreateAdapters(cfg *Config, svc *service.Service, metricsResult *MetricsResult) []adapter.Adapter {
	apiServer := api.NewServer(svc, api.Config{
		Address:         cfg.Server.Address,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RateLimit: api.RateLimitConfig{
			Enabled:           cfg.Server.RateLimit.Enabled,
			RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
			Burst:             cfg.Server.RateLimit.Burst,
		},
	}, metricsResult.APIMetrics)

	adapters := []adapter.Adapter{apiServer}

	if metricsResult.Server != nil {
		adapters = append(adapters, metricsResult.Server)
	}

	return adapters
}
