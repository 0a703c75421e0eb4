package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultConfig(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "info"

metadata:
  type: "sqlite"
  sqlite:
    path: "/var/lib/nestfs/meta.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected level normalized to 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Server.Address != ":8000" {
		t.Errorf("Expected default address ':8000', got %q", cfg.Server.Address)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Metadata.Type != "sqlite" {
		t.Errorf("Expected metadata type 'sqlite', got %q", cfg.Metadata.Type)
	}
	if cfg.Metadata.SQLite["path"] != "/var/lib/nestfs/meta.db" {
		t.Errorf("Expected explicit sqlite path to be kept, got %v", cfg.Metadata.SQLite["path"])
	}
	if cfg.Metadata.Badger["db_path"] != "/tmp/nestfs-metadata" {
		t.Errorf("Expected default badger db_path, got %v", cfg.Metadata.Badger["db_path"])
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// An explicit path keeps the user's own config out of the test.
	nonExistentPath := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error with missing config file, got: %v", err)
	}

	if cfg.Metadata.Type != "memory" {
		t.Errorf("Expected default metadata type 'memory', got %q", cfg.Metadata.Type)
	}
	if cfg.Content.Type != "filesystem" {
		t.Errorf("Expected default content type 'filesystem', got %q", cfg.Content.Type)
	}
}

func TestLoad_Durations(t *testing.T) {
	configPath := writeConfig(t, `
server:
  shutdown_timeout: 5s
  read_timeout: 1m
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected shutdown_timeout 5s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.ReadTimeout != time.Minute {
		t.Errorf("Expected read_timeout 1m, got %v", cfg.Server.ReadTimeout)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("NESTFS_SERVER_ADDRESS", ":8181")
	t.Setenv("NESTFS_TREE_DEFAULT_MAX_DEPTH", "5")
	t.Setenv("NESTFS_METADATA_TYPE", "badger")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Address != ":8181" {
		t.Errorf("Expected address from env ':8181', got %q", cfg.Server.Address)
	}
	if cfg.Tree.DefaultMaxDepth != 5 {
		t.Errorf("Expected default_max_depth from env 5, got %d", cfg.Tree.DefaultMaxDepth)
	}
	if cfg.Metadata.Type != "badger" {
		t.Errorf("Expected metadata type from env 'badger', got %q", cfg.Metadata.Type)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	configPath := writeConfig(t, `
server:
  address: ":7000"
`)
	t.Setenv("NESTFS_SERVER_ADDRESS", ":7001")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Address != ":7001" {
		t.Errorf("Expected env to win over file, got %q", cfg.Server.Address)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "logging:\n  level: [unterminated\n")

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
}

func TestLoad_InvalidStoreType(t *testing.T) {
	configPath := writeConfig(t, `
metadata:
  type: "postgres"
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for unknown metadata type")
	}
}

func TestGetDefaultConfigPath_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	want := filepath.Join(dir, "nestfs", "config.yaml")
	if got := GetDefaultConfigPath(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if ConfigExists() {
		t.Error("Expected ConfigExists to be false in an empty directory")
	}
}

func TestLoad_ZeroDefaultDepthSelectsDefault(t *testing.T) {
	configPath := writeConfig(t, `
tree:
  default_max_depth: 0
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Tree.DefaultMaxDepth != 3 {
		t.Errorf("Expected zero default_max_depth to select 3, got %d", cfg.Tree.DefaultMaxDepth)
	}
}
