package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Log level normalization is handled in ApplyDefaults; validation accepts
// both upper and lower case levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs validation that spans several fields.
func validateCustomRules(cfg *Config) error {
	if cfg.Tree.DefaultMaxDepth > cfg.Tree.MaxDepthLimit {
		return fmt.Errorf("tree: default_max_depth (%d) exceeds max_depth_limit (%d)",
			cfg.Tree.DefaultMaxDepth, cfg.Tree.MaxDepthLimit)
	}

	if cfg.Server.RateLimit.Enabled && cfg.Server.RateLimit.RequestsPerSecond == 0 {
		return fmt.Errorf("server.rate_limit: requests_per_second must be positive when enabled")
	}

	if cfg.Server.Metrics.Enabled {
		if cfg.Server.Metrics.Address == "" {
			return fmt.Errorf("server.metrics: address is required when enabled")
		}
		if cfg.Server.Metrics.Address == cfg.Server.Address {
			return fmt.Errorf("server.metrics: address %s is already used by the API", cfg.Server.Address)
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
