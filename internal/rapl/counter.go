// Package rapl reads Intel RAPL energy domains from the powercap
// filesystem and derives average power from consecutive accumulator
// readings.
package rapl

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"powermon/internal/logging"
)

// Counter wraps one monotonically increasing energy accumulator
// (micro-joules). It is owned by a single Registry and not safe for
// shared use.
type Counter struct {
	Path string
	Name string

	logger      *logging.Logger
	lastEnergy  uint64
	lastTime    time.Time
	hasBaseline bool
	warnedWrap  bool
}

// NewCounter creates a counter for one powercap domain directory.
func NewCounter(path, name string, logger *logging.Logger) *Counter {
	return &Counter{
		Path:   path,
		Name:   name,
		logger: logger,
	}
}

// ReadEnergy reads the current accumulator value in micro-joules. A read
// or parse failure reports false; permission denial is an expected
// condition here, not an error.
func (c *Counter) ReadEnergy() (uint64, bool) {
	data, err := os.ReadFile(filepath.Join(c.Path, "energy_uj"))
	if err != nil {
		return 0, false
	}

	energy, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, false
	}

	return energy, true
}

// SamplePower returns the average power in watts over the interval since
// the previous successful reading. It reports false when no baseline
// exists yet, the raw read fails, no time has elapsed, or the accumulator
// wrapped. The baseline always advances on a successful read so the next
// call starts from the latest value.
func (c *Counter) SamplePower(now time.Time) (float64, bool) {
	energy, ok := c.ReadEnergy()
	if !ok {
		return 0, false
	}

	if !c.hasBaseline {
		c.lastEnergy = energy
		c.lastTime = now
		c.hasBaseline = true
		return 0, false
	}

	prevEnergy := c.lastEnergy
	prevTime := c.lastTime
	c.lastEnergy = energy
	c.lastTime = now

	if energy < prevEnergy {
		// Counter wrapped or reset; clamp to "no value" rather than
		// report a negative power.
		if !c.warnedWrap && c.logger != nil {
			c.logger.Warn("rapl.counter.wrapped", "Energy counter decreased, skipping sample", map[string]interface{}{
				"counter": c.Name,
			})
			c.warnedWrap = true
		}
		return 0, false
	}

	elapsed := now.Sub(prevTime)
	if elapsed <= 0 {
		return 0, false
	}

	return float64(energy-prevEnergy) / 1_000_000.0 / elapsed.Seconds(), true
}
