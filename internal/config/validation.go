package config

import (
	"fmt"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateSampling()...)
	errors = append(errors, c.validateOutput()...)
	errors = append(errors, c.validateTarget()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateSampling() []ValidationError {
	var errors []ValidationError

	if c.IntervalSeconds <= 0 {
		errors = append(errors, ValidationError{
			Path:    "interval_seconds",
			Message: fmt.Sprintf("must be greater than 0, got %g", c.IntervalSeconds),
		})
	}

	if c.DurationSeconds < 0 {
		errors = append(errors, ValidationError{
			Path:    "duration_seconds",
			Message: fmt.Sprintf("must be non-negative (0 = unbounded), got %g", c.DurationSeconds),
		})
	}

	return errors
}

func (c *Config) validateOutput() []ValidationError {
	validFormats := []string{FormatCSV, FormatJSONL}
	if contains(validFormats, c.Format) {
		return nil
	}

	return []ValidationError{{
		Path:    "format",
		Message: fmt.Sprintf("must be one of %v, got '%s'", validFormats, c.Format),
	}}
}

func (c *Config) validateTarget() []ValidationError {
	var errors []ValidationError

	if c.PID < 0 {
		errors = append(errors, ValidationError{
			Path:    "pid",
			Message: fmt.Sprintf("must be non-negative, got %d", c.PID),
		})
	}

	if c.PID > 0 && len(c.Command) > 0 {
		errors = append(errors, ValidationError{
			Path:    "pid",
			Message: "cannot attach to a pid and launch a command in the same run",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	validLevels := []string{"debug", "info", "warn", "error"}
	if contains(validLevels, c.Logging.Level) {
		return nil
	}

	return []ValidationError{{
		Path:    "logging.level",
		Message: fmt.Sprintf("must be one of %v, got '%s'", validLevels, c.Logging.Level),
	}}
}

// contains checks if a string is in a slice
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
