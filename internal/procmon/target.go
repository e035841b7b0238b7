// Package procmon tracks the optional target process of a monitoring
// session: either a child launched for the run or an existing pid
// attached to. Resource queries fail soft; the first failure marks the
// target Ended and no further queries are attempted.
package procmon

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/shirou/gopsutil/v3/process"

	"powermon/internal/logging"
)

// Usage is one resource snapshot of the target process.
type Usage struct {
	CPUPercent float64
	MemRSSMB   float64
}

// Target is a monitored process handle. Lifecycle: Active until any
// query against the process fails, then Ended for the rest of the run.
type Target struct {
	pid      int32
	proc     *process.Process
	logger   *logging.Logger
	launched bool
	exitCh   chan struct{}
	ended    bool
}

// Attach attaches to an existing pid. An unreachable pid is a hard
// startup error; the caller must not start the sampling loop.
func Attach(pid int32, logger *logging.Logger) (*Target, error) {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return nil, fmt.Errorf("cannot access pid %d: %w", pid, err)
	}

	t := &Target{
		pid:    pid,
		proc:   proc,
		logger: logger,
	}
	// Throwaway call so the first real sample measures usage since
	// attach, not since process start.
	_, _ = proc.Percent(0)

	logger.Info("proc.attached", "Attached to process", map[string]interface{}{
		"pid": pid,
	})
	return t, nil
}

// Launch spawns the external command, inheriting stdout/stderr, and
// attaches to the child. The child's exit status is collected in the
// background so the loop can observe it without blocking.
func Launch(argv []string, logger *logging.Logger) (*Target, error) {
	if len(argv) == 0 {
		return nil, errors.New("no command given to launch")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to launch %q: %w", argv[0], err)
	}

	t, err := Attach(int32(cmd.Process.Pid), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to attach to launched command: %w", err)
	}
	t.launched = true
	t.exitCh = make(chan struct{})

	go func() {
		_ = cmd.Wait()
		close(t.exitCh)
	}()

	logger.Info("proc.launched", "Launched external command", map[string]interface{}{
		"command": argv[0],
		"pid":     t.pid,
	})
	return t, nil
}

// PID returns the target's process id.
func (t *Target) PID() int32 {
	return t.pid
}

// Launched reports whether the target is a child spawned for this run.
func (t *Target) Launched() bool {
	return t.launched
}

// Ended reports whether the target has been marked terminated.
func (t *Target) Ended() bool {
	return t.ended
}

// Sample returns the target's current CPU percentage (since the previous
// call) and resident memory. Any query failure means the process
// vanished: the target transitions to Ended and false is returned.
func (t *Target) Sample() (Usage, bool) {
	if t.ended {
		return Usage{}, false
	}

	cpuPercent, err := t.proc.Percent(0)
	if err != nil {
		t.markEnded()
		return Usage{}, false
	}

	memInfo, err := t.proc.MemoryInfo()
	if err != nil || memInfo == nil {
		t.markEnded()
		return Usage{}, false
	}

	return Usage{
		CPUPercent: cpuPercent,
		MemRSSMB:   float64(memInfo.RSS) / (1024 * 1024),
	}, true
}

func (t *Target) markEnded() {
	t.ended = true
	t.logger.Info("proc.ended", "Monitored process terminated", map[string]interface{}{
		"pid": t.pid,
	})
}

// childExited reports whether a launched child's exit status is available.
func (t *Target) childExited() bool {
	if t.exitCh == nil {
		return false
	}
	select {
	case <-t.exitCh:
		return true
	default:
		return false
	}
}

// Finished is the stop condition for launched-command mode: the child's
// exit status has been collected and the handle has observed termination.
func (t *Target) Finished() bool {
	return t.launched && t.childExited() && t.ended
}
