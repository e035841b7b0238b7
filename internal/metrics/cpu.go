package metrics

import (
	"github.com/shirou/gopsutil/v3/cpu"

	"powermon/internal/logging"
)

// CPUSampler reads system-wide CPU utilization and frequency. Utilization
// is measured since the previous call, so the sampler primes a baseline
// at construction time.
type CPUSampler struct {
	logger *logging.Logger
}

// NewCPUSampler creates a system CPU sampler and primes the utilization
// baseline.
func NewCPUSampler(logger *logging.Logger) *CPUSampler {
	// Throwaway call: the next Percent(0) measures since this point.
	_, _ = cpu.Percent(0, false)
	return &CPUSampler{logger: logger}
}

// UsagePercent returns aggregate CPU utilization since the previous call.
func (s *CPUSampler) UsagePercent() (float64, bool) {
	percentages, err := cpu.Percent(0, false)
	if err != nil || len(percentages) == 0 {
		return 0, false
	}
	return percentages[0], true
}

// FrequencyMHz returns the mean current core frequency.
func (s *CPUSampler) FrequencyMHz() (float64, bool) {
	infos, err := cpu.Info()
	if err != nil || len(infos) == 0 {
		return 0, false
	}
	var total float64
	for _, info := range infos {
		total += info.Mhz
	}
	return total / float64(len(infos)), true
}
