package config

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		IntervalSeconds: 1.0,
		DurationSeconds: 0, // unbounded
		Output:          "",
		Format:          FormatCSV,
		DisableCPU:      false,
		DisableGPU:      false,
		PID:             0,
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
