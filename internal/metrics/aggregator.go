// Package metrics contains the sampling core: the per-tick record type,
// the aggregator that merges all sources into one record, and the sink
// that serializes records to CSV or JSONL.
package metrics

import (
	"fmt"
	"math"
	"time"

	"powermon/internal/gpu"
	"powermon/internal/logging"
	"powermon/internal/procmon"
	"powermon/internal/rapl"
)

const datetimeLayout = "2006-01-02 15:04:05.000"

// CPUSource provides system-wide CPU readings.
type CPUSource interface {
	UsagePercent() (float64, bool)
	FrequencyMHz() (float64, bool)
}

// AccelSource provides accelerator telemetry. Every query fails soft.
type AccelSource interface {
	Devices() []gpu.DeviceInfo
	PowerW(index int) (float64, bool)
	Utilization(index int) (gpu.UtilizationReading, bool)
	ClockMHz(index int) (int, bool)
	ProcessMemoryMB(index int, pid int32) (float64, bool)
}

// ProcTarget is the monitored process as seen by the aggregator.
type ProcTarget interface {
	PID() int32
	Ended() bool
	Sample() (procmon.Usage, bool)
}

// Aggregator produces one record per tick by pulling every registered
// source in a fixed merge order. Sub-readings that fail are omitted from
// the record, never written as null or zero.
type Aggregator struct {
	logger            *logging.Logger
	cpu               CPUSource
	counters          []*rapl.Counter
	accel             AccelSource
	target            ProcTarget
	procEndedReported bool
}

// NewAggregator creates an aggregator over the given sources. cpu, accel
// and target may be nil when the corresponding source is absent.
func NewAggregator(logger *logging.Logger, cpu CPUSource, counters []*rapl.Counter, accel AccelSource, target ProcTarget) *Aggregator {
	return &Aggregator{
		logger:   logger,
		cpu:      cpu,
		counters: counters,
		accel:    accel,
		target:   target,
	}
}

// Tick collects one sample from every source and merges them into a
// single record. Merge order: timestamp/datetime, system CPU, energy
// counters, accelerators, monitored process.
func (a *Aggregator) Tick(now time.Time) *Record {
	rec := NewRecord()
	rec.Set("timestamp", float64(now.UnixNano())/1e9)
	rec.Set("datetime", now.Format(datetimeLayout))

	if a.cpu != nil {
		if usage, ok := a.cpu.UsagePercent(); ok {
			rec.Set("cpu_usage_percent", round(usage, 1))
		}
		if freq, ok := a.cpu.FrequencyMHz(); ok {
			rec.Set("cpu_freq_mhz", int(math.Round(freq)))
		}
	}

	for _, c := range a.counters {
		if watts, ok := c.SamplePower(now); ok {
			rec.Set(fmt.Sprintf("cpu_%s_power_w", c.Name), round(watts, 3))
		}
	}

	if a.accel != nil {
		for _, d := range a.accel.Devices() {
			a.collectDevice(rec, d.Index)
		}
	}

	a.collectTarget(rec)

	return rec
}

func (a *Aggregator) collectDevice(rec *Record, index int) {
	prefix := fmt.Sprintf("gpu%d_", index)

	if watts, ok := a.accel.PowerW(index); ok {
		rec.Set(prefix+"power_w", round(watts, 1))
	}
	if util, ok := a.accel.Utilization(index); ok {
		rec.Set(prefix+"gpu_util_percent", round(util.GPUPercent, 1))
		rec.Set(prefix+"mem_util_percent", round(util.MemPercent, 1))
		rec.Set(prefix+"mem_used_mb", round(util.MemUsedMB, 1))
		rec.Set(prefix+"mem_total_mb", round(util.MemTotalMB, 1))
	}
	if clock, ok := a.accel.ClockMHz(index); ok {
		rec.Set(prefix+"freq_mhz", clock)
	}
	if a.target != nil && !a.target.Ended() {
		if mem, ok := a.accel.ProcessMemoryMB(index, a.target.PID()); ok {
			rec.Set(prefix+"proc_mem_used_mb", round(mem, 1))
		}
	}
}

// collectTarget appends the monitored process's own usage, or flags its
// termination exactly once on the tick it is first observed gone.
func (a *Aggregator) collectTarget(rec *Record) {
	if a.target == nil || a.procEndedReported {
		return
	}

	if usage, ok := a.target.Sample(); ok {
		rec.Set("proc_cpu_percent", round(usage.CPUPercent, 1))
		rec.Set("proc_mem_rss_mb", round(usage.MemRSSMB, 1))
		return
	}

	rec.Set("proc_ended", true)
	a.procEndedReported = true
}

// round rounds v to the given number of decimal places. The roundings
// are part of the output contract, not cosmetic.
func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
