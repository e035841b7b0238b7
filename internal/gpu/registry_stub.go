//go:build !cuda

package gpu

import (
	"powermon/internal/logging"
)

// Registry is a no-op accelerator registry used when CUDA/NVML support is
// disabled at build time. It exposes the same surface as the real
// registry with zero devices.
type Registry struct {
	logger *logging.Logger
}

// NewRegistry creates a stub registry that records that NVML is unavailable.
func NewRegistry(logger *logging.Logger) *Registry {
	return &Registry{logger: logger}
}

// Init logs that GPU monitoring is disabled.
func (r *Registry) Init() {
	if r.logger != nil {
		r.logger.Info("gpu.disabled", "GPU monitoring disabled (built without cuda tag)", nil)
	}
}

// Shutdown is a no-op for the stub registry.
func (r *Registry) Shutdown() {}

// Devices always reports zero devices.
func (r *Registry) Devices() []DeviceInfo {
	return nil
}

// PowerW always fails soft for the stub registry.
func (r *Registry) PowerW(index int) (float64, bool) {
	return 0, false
}

// Utilization always fails soft for the stub registry.
func (r *Registry) Utilization(index int) (UtilizationReading, bool) {
	return UtilizationReading{}, false
}

// ClockMHz always fails soft for the stub registry.
func (r *Registry) ClockMHz(index int) (int, bool) {
	return 0, false
}

// ProcessMemoryMB always fails soft for the stub registry.
func (r *Registry) ProcessMemoryMB(index int, pid int32) (float64, bool) {
	return 0, false
}
