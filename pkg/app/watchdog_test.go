package app

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/yavik-kapadia/HTML2NDI/pkg/logger"
)

var testLog = logger.New(false)

func TestWatchdogStaysQuietWithHeartbeats(t *testing.T) {
	var fired atomic.Bool
	w := NewWatchdog(1500*time.Millisecond, func() { fired.Store(true) }, testLog)
	w.Start()
	defer w.Stop()

	for i := 0; i < 20; i++ {
		w.Heartbeat()
		time.Sleep(100 * time.Millisecond)
	}
	if fired.Load() {
		t.Errorf("watchdog fired despite regular heartbeats")
	}
}

func TestWatchdogFiresOnStall(t *testing.T) {
	var fired atomic.Bool
	w := NewWatchdog(100*time.Millisecond, func() { fired.Store(true) }, testLog)
	w.Start()

	deadline := time.Now().Add(3 * time.Second)
	for !fired.Load() {
		if time.Now().After(deadline) {
			t.Fatalf("watchdog never fired on a stalled loop")
		}
		time.Sleep(50 * time.Millisecond)
	}
	if w.IsRunning() {
		t.Errorf("watchdog still running after firing")
	}
}

func TestWatchdogStartStopIdempotent(t *testing.T) {
	w := NewWatchdog(time.Minute, nil, testLog)
	w.Stop()
	w.Start()
	w.Start()
	if !w.IsRunning() {
		t.Fatalf("watchdog not running after start")
	}
	w.Stop()
	w.Stop()
	if w.IsRunning() {
		t.Fatalf("watchdog still running after stop")
	}
}

func TestWatchdogSinceHeartbeat(t *testing.T) {
	w := NewWatchdog(time.Minute, nil, testLog)
	w.Heartbeat()
	time.Sleep(50 * time.Millisecond)
	if got := w.SinceHeartbeat(); got < 40*time.Millisecond || got > time.Second {
		t.Errorf("since heartbeat = %v", got)
	}
}
