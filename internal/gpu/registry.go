//go:build cuda

package gpu

import (
	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"powermon/internal/logging"
)

// Registry owns the NVML subsystem handle and the enumerated device set
// for the lifetime of the run. GPU monitoring is always optional: Init
// fails soft and every per-device query reports false instead of
// propagating NVML errors.
type Registry struct {
	logger      *logging.Logger
	nvml        NVMLInterface
	devices     []DeviceInfo
	handles     []DeviceInterface
	initialized bool
}

// NewRegistry creates a registry backed by the real NVML library.
func NewRegistry(logger *logging.Logger) *Registry {
	return &Registry{
		logger: logger,
		nvml:   NewRealNVML(),
	}
}

// NewRegistryWithNVML creates a registry with custom NVML (for testing)
func NewRegistryWithNVML(nvmlInterface NVMLInterface, logger *logging.Logger) *Registry {
	return &Registry{
		logger: logger,
		nvml:   nvmlInterface,
	}
}

// Init initializes NVML and enumerates all devices. An unavailable
// subsystem or a failed enumeration leaves the registry empty; it never
// returns an error.
func (r *Registry) Init() {
	ret := r.nvml.Init()
	if ret != nvml.SUCCESS {
		r.logger.Warn("gpu.init.unavailable", "NVML unavailable, GPU monitoring disabled", map[string]interface{}{
			"error": nvml.ErrorString(ret),
		})
		return
	}
	r.initialized = true

	count, ret := r.nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		r.logger.Warn("gpu.enumerate.failed", "Failed to count GPU devices", map[string]interface{}{
			"error": nvml.ErrorString(ret),
		})
		return
	}

	for i := 0; i < count; i++ {
		handle, ret := r.nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			r.logger.Warn("gpu.handle.failed", "Failed to get device handle", map[string]interface{}{
				"index": i,
				"error": nvml.ErrorString(ret),
			})
			continue
		}

		name := "unknown"
		if n, ret := handle.GetName(); ret == nvml.SUCCESS {
			name = n
		}

		r.devices = append(r.devices, DeviceInfo{Index: i, Name: name})
		r.handles = append(r.handles, handle)
	}

	driver := "unknown"
	if v, ret := r.nvml.SystemGetDriverVersion(); ret == nvml.SUCCESS {
		driver = v
	}

	r.logger.Info("gpu.initialized", "NVML initialized", map[string]interface{}{
		"devices": len(r.devices),
		"driver":  driver,
	})
}

// Shutdown releases the NVML subsystem. Safe to call when Init failed and
// idempotent across repeated calls.
func (r *Registry) Shutdown() {
	if !r.initialized {
		return
	}
	if ret := r.nvml.Shutdown(); ret != nvml.SUCCESS {
		r.logger.Warn("gpu.shutdown.failed", "NVML shutdown reported an error", map[string]interface{}{
			"error": nvml.ErrorString(ret),
		})
	}
	r.initialized = false
	r.devices = nil
	r.handles = nil
	r.logger.Info("gpu.shutdown", "NVML released", nil)
}

// Devices returns the enumerated device set in index order.
func (r *Registry) Devices() []DeviceInfo {
	return r.devices
}

func (r *Registry) handle(index int) (DeviceInterface, bool) {
	for i, d := range r.devices {
		if d.Index == index {
			return r.handles[i], true
		}
	}
	return nil, false
}

// PowerW returns the device's instantaneous power draw in watts.
func (r *Registry) PowerW(index int) (float64, bool) {
	h, ok := r.handle(index)
	if !ok {
		return 0, false
	}
	milliwatts, ret := h.GetPowerUsage()
	if ret != nvml.SUCCESS {
		return 0, false
	}
	return float64(milliwatts) / 1000.0, true
}

// Utilization returns device and memory utilization percentages plus
// used/total memory in megabytes.
func (r *Registry) Utilization(index int) (UtilizationReading, bool) {
	h, ok := r.handle(index)
	if !ok {
		return UtilizationReading{}, false
	}

	util, ret := h.GetUtilizationRates()
	if ret != nvml.SUCCESS {
		return UtilizationReading{}, false
	}
	mem, ret := h.GetMemoryInfo()
	if ret != nvml.SUCCESS {
		return UtilizationReading{}, false
	}

	return UtilizationReading{
		GPUPercent: float64(util.Gpu),
		MemPercent: float64(util.Memory),
		MemUsedMB:  float64(mem.Used) / (1024 * 1024),
		MemTotalMB: float64(mem.Total) / (1024 * 1024),
	}, true
}

// ClockMHz returns the current graphics clock frequency.
func (r *Registry) ClockMHz(index int) (int, bool) {
	h, ok := r.handle(index)
	if !ok {
		return 0, false
	}
	clock, ret := h.GetClockInfo(nvml.CLOCK_GRAPHICS)
	if ret != nvml.SUCCESS {
		return 0, false
	}
	return int(clock), true
}

// ProcessMemoryMB returns the graphics memory attributed to pid on the
// device, false when the pid is not currently running there.
func (r *Registry) ProcessMemoryMB(index int, pid int32) (float64, bool) {
	h, ok := r.handle(index)
	if !ok {
		return 0, false
	}
	procs, ret := h.GetGraphicsRunningProcesses()
	if ret != nvml.SUCCESS {
		return 0, false
	}
	for _, p := range procs {
		if int32(p.Pid) == pid {
			return float64(p.UsedGpuMemory) / (1024 * 1024), true
		}
	}
	return 0, false
}
