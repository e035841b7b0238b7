// Package gpu wraps NVIDIA NVML telemetry behind narrow interfaces. The
// real implementation lives behind the cuda build tag; without it the
// registry reports zero devices and every query fails soft.
package gpu

// DeviceInfo identifies one accelerator for the lifetime of the process.
type DeviceInfo struct {
	Index int
	Name  string
}

// UtilizationReading is one device utilization snapshot with memory
// figures normalized to megabytes.
type UtilizationReading struct {
	GPUPercent float64
	MemPercent float64
	MemUsedMB  float64
	MemTotalMB float64
}
