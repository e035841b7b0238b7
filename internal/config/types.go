package config

// Config represents the complete powermon run configuration. It is
// assembled once at startup (defaults < config file < flags) and treated
// as immutable afterwards.
type Config struct {
	IntervalSeconds float64       `yaml:"interval_seconds"`
	DurationSeconds float64       `yaml:"duration_seconds"`
	Output          string        `yaml:"output"`
	Format          string        `yaml:"format"`
	DisableCPU      bool          `yaml:"no_cpu"`
	DisableGPU      bool          `yaml:"no_gpu"`
	PID             int32         `yaml:"pid"`
	Command         []string      `yaml:"-"`
	Logging         LoggingConfig `yaml:"logging"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Output format identifiers.
const (
	// FormatCSV emits a comma-joined header once, then one row per tick.
	FormatCSV = "csv"
	// FormatJSONL emits one self-describing JSON object per tick.
	FormatJSONL = "jsonl"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Path + ": " + e.Message
}
