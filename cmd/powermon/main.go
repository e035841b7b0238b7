package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"powermon/internal/agent"
	"powermon/internal/config"
	"powermon/internal/gpu"
	"powermon/internal/logging"
	"powermon/internal/metrics"
	"powermon/internal/procmon"
	"powermon/internal/rapl"
)

const version = "0.1.0"

func main() {
	flags := pflag.NewFlagSet("powermon", pflag.ContinueOnError)
	// Everything after the first positional argument belongs to the
	// launched command, not to powermon.
	flags.SetInterspersed(false)

	interval := flags.Float64P("interval", "i", 1.0, "sampling interval in seconds")
	duration := flags.Float64P("duration", "d", 0, "total monitoring duration in seconds (0 = until stopped)")
	output := flags.StringP("output", "o", "", "output file path (default: stdout)")
	format := flags.StringP("format", "f", config.FormatCSV, "output format: csv or jsonl")
	pid := flags.Int32P("pid", "p", 0, "PID of an existing process to monitor")
	noGPU := flags.Bool("no-gpu", false, "disable GPU telemetry")
	noCPU := flags.Bool("no-cpu", false, "disable CPU energy counters")
	logLevel := flags.String("log-level", "", "log level: debug, info, warn, error")
	configPath := flags.StringP("config", "c", "", "path to a YAML config file")
	showVersion := flags.Bool("version", false, "print version and exit")

	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: powermon [flags] [-- command [args...]]\n\n")
		fmt.Fprintf(os.Stderr, "Samples CPU energy, GPU telemetry and optionally one process at a\nfixed cadence, emitting one record per tick.\n\nFlags:\n")
		fmt.Fprintln(os.Stderr, flags.FlagUsages())
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Printf("powermon version %s\n", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Explicit flags win over config file values.
	if flags.Changed("interval") {
		cfg.IntervalSeconds = *interval
	}
	if flags.Changed("duration") {
		cfg.DurationSeconds = *duration
	}
	if flags.Changed("output") {
		cfg.Output = *output
	}
	if flags.Changed("format") {
		cfg.Format = *format
	}
	if flags.Changed("pid") {
		cfg.PID = *pid
	}
	if flags.Changed("no-gpu") {
		cfg.DisableGPU = *noGPU
	}
	if flags.Changed("no-cpu") {
		cfg.DisableCPU = *noCPU
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = *logLevel
	}
	cfg.Command = flags.Args()

	if errs := cfg.Validate(); len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %s\n", config.FormatValidationErrors(errs))
		os.Exit(1)
	}

	os.Exit(run(cfg))
}

// run wires the sources, sinks and loop together and blocks until the
// run ends. Returns the process exit code.
func run(cfg config.Config) int {
	logger := logging.NewLogger(logging.ParseLevel(cfg.Logging.Level))

	// System CPU utilization is always sampled; --no-cpu only gates the
	// energy counters.
	cpuSource := metrics.NewCPUSampler(logger)

	var raplReg *rapl.Registry
	var counters []*rapl.Counter
	if !cfg.DisableCPU {
		raplReg = rapl.Discover(rapl.DefaultRoot, logger)
		raplReg.FilterAccessible()
		counters = raplReg.Counters()
	}

	var accel metrics.AccelSource
	var gpuReg *gpu.Registry
	if !cfg.DisableGPU {
		gpuReg = gpu.NewRegistry(logger)
		gpuReg.Init()
		defer gpuReg.Shutdown()
		accel = gpuReg
	}

	target, err := buildTarget(cfg, logger)
	if err != nil {
		logger.Error("monitor.target.failed", "Failed to set up monitored process", map[string]interface{}{
			"error": err.Error(),
		})
		return 1
	}

	writer, err := metrics.NewWriter(cfg.Output, cfg.Format, logger)
	if err != nil {
		logger.Error("monitor.sink.failed", "Failed to open output", map[string]interface{}{
			"error": err.Error(),
		})
		return 1
	}

	var procTarget metrics.ProcTarget
	if target != nil {
		procTarget = target
	}
	aggregator := metrics.NewAggregator(logger, cpuSource, counters, accel, procTarget)
	a := agent.NewAgent(logger, cfg.Interval(), cfg.Duration(), aggregator, writer, raplReg, target)

	stop := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("monitor.signal", "Received signal", map[string]interface{}{
			"signal": sig.String(),
		})
		close(stop)
	}()

	if err := a.Run(stop); err != nil {
		return 1
	}
	return 0
}

// buildTarget resolves the monitored process: a spawned command in launch
// mode, an attached PID when --pid is given, nil otherwise. Failure to
// reach the target is a startup error, not a soft condition.
func buildTarget(cfg config.Config, logger *logging.Logger) (*procmon.Target, error) {
	switch {
	case cfg.LaunchMode():
		return procmon.Launch(cfg.Command, logger)
	case cfg.PID > 0:
		return procmon.Attach(cfg.PID, logger)
	default:
		return nil, nil
	}
}
