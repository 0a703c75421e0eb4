package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if path != GetDefaultConfigPath() {
		t.Errorf("Expected %q, got %q", GetDefaultConfigPath(), path)
	}
	if !ConfigExists() {
		t.Error("Expected config to exist after InitConfig")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read generated config: %v", err)
	}
	if !strings.HasPrefix(string(data), "# NestFS Configuration File") {
		t.Error("Expected generated config to start with the header")
	}

	if _, err := InitConfig(false); err == nil {
		t.Error("Expected error when config already exists")
	}
	if _, err := InitConfig(true); err != nil {
		t.Errorf("Expected force to overwrite, got: %v", err)
	}
}

func TestInitConfigToPath_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	if err := InitConfigToPath(path, false); err != nil {
		t.Fatalf("InitConfigToPath failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Generated config should load: %v", err)
	}

	want := GetDefaultConfig()
	if cfg.Server.ShutdownTimeout != want.Server.ShutdownTimeout {
		t.Errorf("Expected shutdown_timeout %v, got %v", want.Server.ShutdownTimeout, cfg.Server.ShutdownTimeout)
	}
	if cfg.Tree != want.Tree {
		t.Errorf("Expected tree %+v, got %+v", want.Tree, cfg.Tree)
	}
	if cfg.Content.Filesystem["path"] != want.Content.Filesystem["path"] {
		t.Errorf("Expected filesystem path %v, got %v", want.Content.Filesystem["path"], cfg.Content.Filesystem["path"])
	}
}
