// Package pump paces frame delivery from an uncontrolled producer to
// the video bus at a stable target rate. A stalled producer results in
// held (repeated) frames rather than gaps: broadcast equipment copes
// with repeats far better than with dropouts.
package pump

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yavik-kapadia/HTML2NDI/pkg/clock"
	"github.com/yavik-kapadia/HTML2NDI/pkg/logger"
	"github.com/yavik-kapadia/HTML2NDI/pkg/ndi"
)

// Stats is a snapshot of the pump counters. Torn reads across fields
// are acceptable; every field is individually consistent.
type Stats struct {
	FramesSent    uint64  `json:"frames_sent"`
	FramesDropped uint64  `json:"frames_dropped"`
	FramesHeld    uint64  `json:"frames_held"`
	DropRate      float64 `json:"drop_rate"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	MeasuredFPS   float64 `json:"measured_fps"`
	BandwidthBps  float64 `json:"bandwidth_bytes_per_sec"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
}

// Pump owns the pacing goroutine. Frames are submitted from the
// renderer's goroutine via Submit and delivered to the Sender on
// boundaries of the attached reference clock.
type Pump struct {
	slot   *Slot
	sender ndi.Sender
	clk    clock.Clock
	log    *logger.Logger

	progressive bool

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	targetFPS     atomic.Int32
	framesSent    atomic.Uint64
	framesDropped atomic.Uint64
	framesHeld    atomic.Uint64
	measuredBits  atomic.Uint64 // float64 fps gauge
	bandwidthBits atomic.Uint64 // float64 bytes/sec gauge
	width         atomic.Int64
	height        atomic.Int64
	startedAt     atomic.Int64 // unix nanos, uptime origin

	// pacing goroutine scratch, reused across ticks
	sendBuf []byte
}

// New creates a frame pump delivering to sender on boundaries of clk.
// A nil clk falls back to the local system clock.
func New(sender ndi.Sender, clk clock.Clock, targetFPS int, progressive bool, log *logger.Logger) *Pump {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	p := &Pump{
		slot:        NewSlot(),
		sender:      sender,
		clk:         clk,
		log:         log,
		progressive: progressive,
	}
	p.targetFPS.Store(int32(targetFPS))
	return p
}

// Start spawns the pacing goroutine, resetting all counters and the
// uptime origin. Idempotent.
func (p *Pump) Start() {
	if !p.running.CompareAndSwap(false, true) {
		return
	}
	p.log.Debug().Msgf("starting frame pump at %d fps", p.targetFPS.Load())

	p.framesSent.Store(0)
	p.framesDropped.Store(0)
	p.framesHeld.Store(0)
	p.measuredBits.Store(0)
	p.bandwidthBits.Store(0)
	p.startedAt.Store(time.Now().UnixNano())

	p.done = make(chan struct{})
	p.wg.Add(1)
	go p.loop()
}

// Stop signals shutdown, wakes any blocked wait and joins the pacing
// goroutine before returning. Idempotent.
func (p *Pump) Stop() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	p.log.Debug().Msg("stopping frame pump")
	close(p.done)
	p.wg.Wait()
	p.log.Debug().Msgf("frame pump stopped, sent=%d dropped=%d held=%d",
		p.framesSent.Load(), p.framesDropped.Load(), p.framesHeld.Load())
}

func (p *Pump) IsRunning() bool { return p.running.Load() }

// Submit hands a rendered frame over from the producer's goroutine.
func (p *Pump) Submit(pixels []byte, width, height int) {
	p.width.Store(int64(width))
	p.height.Store(int64(height))
	p.slot.Submit(pixels, width, height)
}

// Peek returns a snapshot of the latest frame for thumbnails.
func (p *Pump) Peek() ([]byte, int, int, bool) { return p.slot.Peek() }

// SetTargetFPS changes the pacing rate. Takes effect on the next tick
// without restarting the goroutine.
func (p *Pump) SetTargetFPS(fps int) {
	if fps < 1 {
		return
	}
	p.targetFPS.Store(int32(fps))
}

func (p *Pump) TargetFPS() int { return int(p.targetFPS.Load()) }

func (p *Pump) Stats() Stats {
	sent := p.framesSent.Load()
	dropped := p.framesDropped.Load()
	var dropRate float64
	if total := sent + dropped; total > 0 {
		dropRate = float64(dropped) / float64(total)
	}
	var uptime float64
	if at := p.startedAt.Load(); at > 0 {
		uptime = time.Since(time.Unix(0, at)).Seconds()
	}
	return Stats{
		FramesSent:    sent,
		FramesDropped: dropped,
		FramesHeld:    p.framesHeld.Load(),
		DropRate:      dropRate,
		UptimeSeconds: uptime,
		MeasuredFPS:   math.Float64frombits(p.measuredBits.Load()),
		BandwidthBps:  math.Float64frombits(p.bandwidthBits.Load()),
		Width:         int(p.width.Load()),
		Height:        int(p.height.Load()),
	}
}

func (p *Pump) loop() {
	defer p.wg.Done()
	p.log.Debug().Msg("frame pump loop started")

	windowStart := time.Now()
	var windowFrames, windowBytes uint64

	timer := time.NewTimer(0)
	<-timer.C
	defer timer.Stop()

	for {
		// fps is hot-reloadable, read fresh each tick
		fps := int(p.targetFPS.Load())
		frameDuration := time.Second / time.Duration(fps)

		// the boundary is fixed for the whole wait: submissions wake
		// the loop but never postpone the tick
		next := p.clk.NextFrameBoundary(p.clk.Now(), frameDuration)
	wait:
		for {
			timer.Reset(next.Sub(p.clk.Now()))
			select {
			case <-p.done:
				p.log.Debug().Msg("frame pump loop exited")
				return
			case <-p.slot.Wake():
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			case <-timer.C:
				break wait
			}
		}

		pixels, w, h, state := p.slot.Consume(p.sendBuf)
		p.sendBuf = pixels
		switch state {
		case StateEmpty:
			// nothing was ever submitted; the only dropped case
			p.framesDropped.Add(1)
			continue
		case StateHeld:
			p.framesHeld.Add(1)
		}

		timecode := clock.TimecodeSynthesize
		if p.clk.Synchronized() {
			timecode = p.clk.Timecode()
		}
		p.sender.SendVideo(&ndi.VideoFrame{
			Pixels:      pixels[:w*h*bytesPerPixel],
			Width:       w,
			Height:      h,
			FrameRateN:  fps,
			FrameRateD:  1,
			Progressive: p.progressive,
			Timecode:    timecode,
		})
		p.framesSent.Add(1)
		windowFrames++
		windowBytes += uint64(w * h * bytesPerPixel)

		if elapsed := time.Since(windowStart); elapsed >= time.Second {
			secs := elapsed.Seconds()
			p.measuredBits.Store(math.Float64bits(float64(windowFrames) / secs))
			p.bandwidthBits.Store(math.Float64bits(float64(windowBytes) / secs))
			windowStart = time.Now()
			windowFrames = 0
			windowBytes = 0
		}
	}
}
