package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envPrefix is prepended to every environment override,
// e.g. NESTFS_SERVER_ADDRESS.
const envPrefix = "NESTFS"

// Config represents the complete NestFS configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (NESTFS_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values
//
// Store Configuration Pattern:
// Each store implementation defines its own configuration type and factory
// function. The Config struct carries one option map per store type (e.g.
// metadata.badger, content.s3); only the map matching the selected type is
// used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server contains the API listener and its limits
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Tree controls directory serialization depth
	Tree TreeConfig `mapstructure:"tree" yaml:"tree"`

	// Metadata selects and configures the metadata store
	Metadata MetadataConfig `mapstructure:"metadata" yaml:"metadata"`

	// Content selects and configures the content (blob) store
	Content ContentConfig `mapstructure:"content" yaml:"content"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ServerConfig contains the API server settings.
type ServerConfig struct {
	// Address is the API listen address (host:port)
	Address string `mapstructure:"address" yaml:"address" validate:"required"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`

	// ReadTimeout and WriteTimeout bound a single request. Zero disables
	// the timeout; large uploads and downloads may need it disabled.
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"gte=0"`

	// MaxUploadBytes rejects larger uploads with 413
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes" validate:"required,gt=0"`

	// RateLimit throttles clients by IP address
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`

	// Metrics exposes Prometheus metrics on a separate listener
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// RequestsPerSecond is the sustained rate per client
	RequestsPerSecond uint `mapstructure:"requests_per_second" yaml:"requests_per_second"`

	// Burst is the bucket capacity per client
	Burst uint `mapstructure:"burst" yaml:"burst"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Address of the metrics listener (host:port)
	Address string `mapstructure:"address" yaml:"address"`
}

// TreeConfig controls directory serialization.
type TreeConfig struct {
	// DefaultMaxDepth is used when a request has no max_depth. Zero means
	// unset and selects the built-in default of 3.
	DefaultMaxDepth int `mapstructure:"default_max_depth" yaml:"default_max_depth" validate:"gte=1"`

	// MaxDepthLimit caps any requested max_depth
	MaxDepthLimit int `mapstructure:"max_depth_limit" yaml:"max_depth_limit" validate:"gte=1"`
}

// MetadataConfig specifies metadata store configuration.
type MetadataConfig struct {
	// Type specifies which metadata store implementation to use
	// Valid values: memory, badger, sqlite, duckdb
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory badger sqlite duckdb"`

	// Memory has no options yet
	Memory map[string]any `mapstructure:"memory" yaml:"memory"`

	// Badger contains BadgerDB options (db_path)
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`

	// SQLite contains SQLite options (path)
	SQLite map[string]any `mapstructure:"sqlite" yaml:"sqlite"`

	// DuckDB contains DuckDB options (path)
	DuckDB map[string]any `mapstructure:"duckdb" yaml:"duckdb"`
}

// ContentConfig specifies content store configuration.
type ContentConfig struct {
	// Type specifies which content store implementation to use
	// Valid values: filesystem, memory, s3
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=filesystem memory s3"`

	// Filesystem contains filesystem options (path)
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem"`

	// Memory has no options yet
	Memory map[string]any `mapstructure:"memory" yaml:"memory"`

	// S3 contains S3 options (endpoint, region, bucket, credentials, key_prefix)
	S3 map[string]any `mapstructure:"s3" yaml:"s3"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: NESTFS_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v, "", reflect.TypeOf(Config{}))

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// $XDG_CONFIG_HOME/nestfs/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// bindEnvKeys registers every scalar key of the config struct so that
// environment overrides apply even when the config file omits the key.
// Store option maps are not walked.
func bindEnvKeys(v *viper.Viper, prefix string, t reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		switch {
		case field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Duration(0)):
			bindEnvKeys(v, key, field.Type)
		case field.Type.Kind() == reflect.Map:
			continue
		default:
			_ = v.BindEnv(key)
		}
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "nestfs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "nestfs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
