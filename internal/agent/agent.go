// Package agent drives the sampling loop: one record per interval, from
// start until the configured duration elapses, a launched child exits, or
// a stop signal arrives.
package agent

import (
	"time"

	"powermon/internal/logging"
	"powermon/internal/metrics"
	"powermon/internal/procmon"
	"powermon/internal/rapl"
)

// Agent owns the tick loop. Sampling and serialization are synchronous:
// each tick produces exactly one record before the next sleep.
type Agent struct {
	logger     *logging.Logger
	interval   time.Duration
	duration   time.Duration
	aggregator *metrics.Aggregator
	writer     *metrics.Writer
	raplReg    *rapl.Registry
	target     *procmon.Target
}

// NewAgent assembles the loop over already-initialized components.
// raplReg and target may be nil when the corresponding source is absent.
func NewAgent(logger *logging.Logger, interval, duration time.Duration, aggregator *metrics.Aggregator, writer *metrics.Writer, raplReg *rapl.Registry, target *procmon.Target) *Agent {
	return &Agent{
		logger:     logger,
		interval:   interval,
		duration:   duration,
		aggregator: aggregator,
		writer:     writer,
		raplReg:    raplReg,
		target:     target,
	}
}

// Run executes the sampling loop until a stop condition is met. The
// writer is closed on every exit path so the last record is never lost.
func (a *Agent) Run(stop <-chan struct{}) error {
	defer func() {
		if err := a.writer.Close(); err != nil {
			a.logger.Warn("monitor.sink.close_failed", "Failed to close record sink", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	a.logger.Info("monitor.started", "Monitoring started", map[string]interface{}{
		"interval_s": a.interval.Seconds(),
		"duration_s": a.duration.Seconds(),
	})

	start := time.Now()

	// Establish energy baselines so the very first record can carry
	// power values instead of a blank warm-up row.
	if a.raplReg != nil {
		a.raplReg.Prime(start)
	}

	for {
		select {
		case <-stop:
			a.logger.Info("monitor.stopped", "Stop signal received", nil)
			return nil
		default:
		}

		now := time.Now()

		if a.duration > 0 && now.Sub(start) >= a.duration {
			a.logger.Info("monitor.duration_elapsed", "Configured duration elapsed", map[string]interface{}{
				"elapsed_s": now.Sub(start).Seconds(),
			})
			return nil
		}

		if a.target != nil && a.target.Finished() {
			a.logger.Info("monitor.target_finished", "Launched command finished", map[string]interface{}{
				"pid": a.target.PID(),
			})
			return nil
		}

		rec := a.aggregator.Tick(now)
		if err := a.writer.Emit(rec); err != nil {
			a.logger.Error("monitor.emit_failed", "Failed to write record", map[string]interface{}{
				"error": err.Error(),
			})
			return err
		}

		select {
		case <-stop:
			a.logger.Info("monitor.stopped", "Stop signal received", nil)
			return nil
		case <-time.After(a.interval):
		}
	}
}
