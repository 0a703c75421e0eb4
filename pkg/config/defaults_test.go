package config

import (
	"testing"
	"time"

	"github.com/marmos91/nestfs/pkg/service"
	"github.com/marmos91/nestfs/pkg/tree"
)

func TestApplyDefaults_Empty(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.Server.MaxUploadBytes != service.DefaultMaxUploadBytes {
		t.Errorf("Expected max_upload_bytes %d, got %d", service.DefaultMaxUploadBytes, cfg.Server.MaxUploadBytes)
	}
	if cfg.Server.RateLimit.RequestsPerSecond != 50 {
		t.Errorf("Expected requests_per_second 50, got %d", cfg.Server.RateLimit.RequestsPerSecond)
	}
	if cfg.Server.RateLimit.Burst != 100 {
		t.Errorf("Expected burst 100, got %d", cfg.Server.RateLimit.Burst)
	}
	if cfg.Server.Metrics.Address != ":9090" {
		t.Errorf("Expected metrics address ':9090', got %q", cfg.Server.Metrics.Address)
	}
	if cfg.Tree.DefaultMaxDepth != tree.DefaultMaxDepth {
		t.Errorf("Expected default_max_depth %d, got %d", tree.DefaultMaxDepth, cfg.Tree.DefaultMaxDepth)
	}
	if cfg.Tree.MaxDepthLimit != service.DefaultMaxDepthLimit {
		t.Errorf("Expected max_depth_limit %d, got %d", service.DefaultMaxDepthLimit, cfg.Tree.MaxDepthLimit)
	}
	if cfg.Content.Filesystem["path"] != "/tmp/nestfs-content" {
		t.Errorf("Expected default filesystem path, got %v", cfg.Content.Filesystem["path"])
	}
	if cfg.Content.S3["region"] != "us-east-1" {
		t.Errorf("Expected default s3 region, got %v", cfg.Content.S3["region"])
	}
}

func TestApplyDefaults_PreservesExplicit(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "debug", Format: "json"},
		Server: ServerConfig{
			Address:         ":1234",
			ShutdownTimeout: 3 * time.Second,
			RateLimit:       RateLimitConfig{RequestsPerSecond: 10},
		},
		Metadata: MetadataConfig{
			Type:   "badger",
			Badger: map[string]any{"db_path": "/data/meta"},
		},
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Server.Address != ":1234" {
		t.Errorf("Expected address ':1234', got %q", cfg.Server.Address)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("Expected shutdown_timeout 3s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.RateLimit.Burst != 20 {
		t.Errorf("Expected burst derived from rate 20, got %d", cfg.Server.RateLimit.Burst)
	}
	if cfg.Metadata.Badger["db_path"] != "/data/meta" {
		t.Errorf("Expected explicit db_path kept, got %v", cfg.Metadata.Badger["db_path"])
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	if err := Validate(GetDefaultConfig()); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
}
