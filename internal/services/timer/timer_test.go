package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRepeatedTimerRunsUntilStopped(t *testing.T) {
	var runs atomic.Int32
	rt := NewRepeatedTimer(5*time.Millisecond, func() { runs.Add(1) })

	rt.Start()
	rt.Start()
	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	rt.Stop()
	if runs.Load() < 3 {
		t.Fatalf("expected at least 3 runs, got %d", runs.Load())
	}

	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	if runs.Load() != after {
		t.Errorf("timer kept running after Stop")
	}
	if rt.Running() {
		t.Errorf("Running() = true after Stop")
	}
}

func TestStopWithoutStart(t *testing.T) {
	rt := NewRepeatedTimer(time.Second, func() {})
	rt.Stop()
	if rt.Running() {
		t.Errorf("Running() = true for a timer never started")
	}
}

func TestRestart(t *testing.T) {
	var runs atomic.Int32
	rt := NewRepeatedTimer(5*time.Millisecond, func() { runs.Add(1) })
	rt.Start()
	rt.Stop()
	rt.Start()
	defer rt.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if runs.Load() == 0 {
		t.Errorf("restarted timer never fired")
	}
}
