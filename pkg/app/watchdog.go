package app

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/yavik-kapadia/HTML2NDI/pkg/logger"
)

const watchdogPollInterval = time.Second

// Watchdog detects a hung frame loop. The loop calls Heartbeat on
// every pass; when no heartbeat arrives within the timeout the
// watchdog fires its callback once and stops.
type Watchdog struct {
	timeout   time.Duration
	onTimeout func()
	log       *logger.Logger

	lastBeat atomic.Int64 // unix nanos
	running  atomic.Bool
	done     chan struct{}
	wg       sync.WaitGroup
}

func NewWatchdog(timeout time.Duration, onTimeout func(), log *logger.Logger) *Watchdog {
	return &Watchdog{timeout: timeout, onTimeout: onTimeout, log: log}
}

func (w *Watchdog) Start() {
	if !w.running.CompareAndSwap(false, true) {
		return
	}
	w.log.Info().Msgf("starting watchdog, timeout %v", w.timeout)
	w.Heartbeat()
	w.done = make(chan struct{})
	w.wg.Add(1)
	go w.loop()
}

func (w *Watchdog) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}
	close(w.done)
	w.wg.Wait()
}

func (w *Watchdog) IsRunning() bool { return w.running.Load() }

// Heartbeat marks the watched loop alive.
func (w *Watchdog) Heartbeat() { w.lastBeat.Store(time.Now().UnixNano()) }

// SinceHeartbeat returns the time since the loop last checked in.
func (w *Watchdog) SinceHeartbeat() time.Duration {
	return time.Duration(time.Now().UnixNano() - w.lastBeat.Load())
}

func (w *Watchdog) loop() {
	defer w.wg.Done()
	ticker := time.NewTicker(watchdogPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			if elapsed := w.SinceHeartbeat(); elapsed > w.timeout {
				w.log.Error().Msgf("watchdog timeout, no heartbeat for %v (limit %v)", elapsed, w.timeout)
				w.running.Store(false)
				if w.onTimeout != nil {
					w.onTimeout()
				}
				return
			}
		}
	}
}
