package procmon

import (
	"os"
	"testing"
	"time"

	"powermon/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.LevelError)
}

func TestAttach_Self(t *testing.T) {
	target, err := Attach(int32(os.Getpid()), testLogger())
	if err != nil {
		t.Fatalf("Failed to attach to own pid: %v", err)
	}

	if target.PID() != int32(os.Getpid()) {
		t.Errorf("Expected pid %d, got %d", os.Getpid(), target.PID())
	}
	if target.Launched() {
		t.Error("Attached target must not report launched")
	}
	if target.Ended() {
		t.Error("Fresh target must not report ended")
	}

	usage, ok := target.Sample()
	if !ok {
		t.Fatal("Expected a sample from a live process")
	}
	if usage.MemRSSMB <= 0 {
		t.Errorf("Expected positive RSS, got %g", usage.MemRSSMB)
	}
}

func TestAttach_UnreachablePID(t *testing.T) {
	// Pick a pid far above any default pid_max allocation.
	if _, err := Attach(1<<22+12345, testLogger()); err == nil {
		t.Error("Expected error for unreachable pid")
	}
}

func TestLaunch_EmptyCommand(t *testing.T) {
	if _, err := Launch(nil, testLogger()); err == nil {
		t.Error("Expected error for empty command")
	}
}

func TestLaunch_BadBinary(t *testing.T) {
	if _, err := Launch([]string{"/no/such/binary"}, testLogger()); err == nil {
		t.Error("Expected error for unlaunchable command")
	}
}

func TestLaunch_ChildExit(t *testing.T) {
	target, err := Launch([]string{"true"}, testLogger())
	if err != nil {
		t.Fatalf("Failed to launch command: %v", err)
	}
	if !target.Launched() {
		t.Error("Expected launched target")
	}

	// The child exits immediately; sampling must observe termination and
	// the stop condition must become true.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		target.Sample()
		if target.Finished() {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !target.Finished() {
		t.Fatal("Expected launched child to be observed as finished")
	}
	if !target.Ended() {
		t.Error("Expected target marked ended after child exit")
	}

	// Once ended, sampling stays off.
	if _, ok := target.Sample(); ok {
		t.Error("Expected no sample from an ended target")
	}
}

func TestFinished_NotLaunched(t *testing.T) {
	target, err := Attach(int32(os.Getpid()), testLogger())
	if err != nil {
		t.Fatalf("Failed to attach: %v", err)
	}
	if target.Finished() {
		t.Error("Attached (non-launched) target must never report Finished")
	}
}
