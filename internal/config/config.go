// Package config holds the immutable run configuration for powermon:
// sampling cadence, output target and format, target-process selection
// and subsystem enable flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Load returns the default configuration, optionally overlaid with a YAML
// config file when path is non-empty.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := mergeConfigFile(&cfg, path); err != nil {
			return cfg, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	return cfg, nil
}

// mergeConfigFile reads a YAML file and merges it into the existing config
func mergeConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return err
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	mergeConfig(cfg, &overlay)

	return nil
}

// mergeConfig merges non-zero values from src into dst. The disable flags
// are plain bools whose zero value means "enabled", so overwriting them
// unconditionally preserves YAML intent.
func mergeConfig(dst, src *Config) {
	if src.IntervalSeconds != 0 {
		dst.IntervalSeconds = src.IntervalSeconds
	}
	if src.DurationSeconds != 0 {
		dst.DurationSeconds = src.DurationSeconds
	}
	if src.Output != "" {
		dst.Output = src.Output
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.PID != 0 {
		dst.PID = src.PID
	}
	dst.DisableCPU = src.DisableCPU
	dst.DisableGPU = src.DisableGPU

	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}
}

// Interval returns the sampling interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds * float64(time.Second))
}

// Duration returns the total monitoring duration; zero means unbounded.
func (c *Config) Duration() time.Duration {
	return time.Duration(c.DurationSeconds * float64(time.Second))
}

// LaunchMode reports whether an external command should be spawned and
// monitored for this run.
func (c *Config) LaunchMode() bool {
	return len(c.Command) > 0
}

// FormatValidationErrors formats validation errors for display
func FormatValidationErrors(errors []ValidationError) string {
	if len(errors) == 0 {
		return ""
	}
	if len(errors) == 1 {
		return errors[0].Error()
	}
	result := fmt.Sprintf("%d validation errors:\n", len(errors))
	for _, err := range errors {
		result += "  - " + err.Error() + "\n"
	}
	return result
}
