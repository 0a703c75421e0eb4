package config

import (
	"strings"
	"time"

	"github.com/marmos91/nestfs/pkg/service"
	"github.com/marmos91/nestfs/pkg/tree"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Default Strategy:
//   - Zero values (0, "", nil) are replaced with defaults
//   - Explicit values are preserved
//   - Store option maps get defaults for every store type, so a generated
//     sample config documents all of them
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyTreeDefaults(&cfg.Tree)
	applyMetadataDefaults(&cfg.Metadata)
	applyContentDefaults(&cfg.Content)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Address == "" {
		cfg.Address = ":8000"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = service.DefaultMaxUploadBytes
	}

	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 50
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 2 * cfg.RateLimit.RequestsPerSecond
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}
}

func applyTreeDefaults(cfg *TreeConfig) {
	if cfg.DefaultMaxDepth == 0 {
		cfg.DefaultMaxDepth = tree.DefaultMaxDepth
	}
	if cfg.MaxDepthLimit == 0 {
		cfg.MaxDepthLimit = service.DefaultMaxDepthLimit
	}
}

func applyMetadataDefaults(cfg *MetadataConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}

	cfg.Memory = initMap(cfg.Memory)
	cfg.Badger = initMap(cfg.Badger)
	cfg.SQLite = initMap(cfg.SQLite)
	cfg.DuckDB = initMap(cfg.DuckDB)

	setDefault(cfg.Badger, "db_path", "/tmp/nestfs-metadata")
	setDefault(cfg.SQLite, "path", "/tmp/nestfs.db")
	setDefault(cfg.DuckDB, "path", "/tmp/nestfs.duckdb")
}

func applyContentDefaults(cfg *ContentConfig) {
	if cfg.Type == "" {
		cfg.Type = "filesystem"
	}

	cfg.Filesystem = initMap(cfg.Filesystem)
	cfg.Memory = initMap(cfg.Memory)
	cfg.S3 = initMap(cfg.S3)

	setDefault(cfg.Filesystem, "path", "/tmp/nestfs-content")
	setDefault(cfg.S3, "region", "us-east-1")
	setDefault(cfg.S3, "bucket", "")
	setDefault(cfg.S3, "key_prefix", "")
}

func initMap(m map[string]any) map[string]any {
	if m == nil {
		return make(map[string]any)
	}
	return m
}

func setDefault(m map[string]any, key string, value any) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
