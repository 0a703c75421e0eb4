package config

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "invalid log level",
			mutate:  func(cfg *Config) { cfg.Logging.Level = "TRACE" },
			wantErr: "Level",
		},
		{
			name:    "invalid log format",
			mutate:  func(cfg *Config) { cfg.Logging.Format = "xml" },
			wantErr: "Format",
		},
		{
			name:    "unknown content type",
			mutate:  func(cfg *Config) { cfg.Content.Type = "gcs" },
			wantErr: "oneof",
		},
		{
			name:    "negative default depth",
			mutate:  func(cfg *Config) { cfg.Tree.DefaultMaxDepth = -1 },
			wantErr: "DefaultMaxDepth",
		},
		{
			name:    "zero default depth after defaults",
			mutate:  func(cfg *Config) { cfg.Tree.DefaultMaxDepth = 0 },
			wantErr: "DefaultMaxDepth",
		},
		{
			name: "default depth above limit",
			mutate: func(cfg *Config) {
				cfg.Tree.DefaultMaxDepth = 10
				cfg.Tree.MaxDepthLimit = 5
			},
			wantErr: "exceeds max_depth_limit",
		},
		{
			name: "rate limit without rate",
			mutate: func(cfg *Config) {
				cfg.Server.RateLimit.Enabled = true
				cfg.Server.RateLimit.RequestsPerSecond = 0
			},
			wantErr: "requests_per_second",
		},
		{
			name: "metrics on api address",
			mutate: func(cfg *Config) {
				cfg.Server.Metrics.Enabled = true
				cfg.Server.Metrics.Address = cfg.Server.Address
			},
			wantErr: "already used",
		},
		{
			name: "metrics without address",
			mutate: func(cfg *Config) {
				cfg.Server.Metrics.Enabled = true
				cfg.Server.Metrics.Address = ""
			},
			wantErr: "address is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}
