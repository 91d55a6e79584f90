// Package render produces the video frames fed into the frame pump.
// The built-in producer synthesizes a color bar test pattern; a real
// page renderer plugs in through the same frame callback.
package render

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/yavik-kapadia/HTML2NDI/pkg/logger"
)

// FrameFunc receives every produced frame. The pixel slice is reused
// between calls, so implementations must copy what they keep.
type FrameFunc func(pixels []byte, width, height int)

// Producer generates test pattern frames at its own rate, decoupled
// from the pump's output pacing. A producer slower than the pump shows
// up as held frames downstream, never as corruption.
type Producer struct {
	onFrame FrameFunc
	log     *logger.Logger

	mu     sync.Mutex
	width  int
	height int
	fps    int
	source string

	frame   atomic.Int64
	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewProducer(onFrame FrameFunc, width, height, fps int, log *logger.Logger) *Producer {
	return &Producer{
		onFrame: onFrame,
		log:     log,
		width:   width,
		height:  height,
		fps:     fps,
	}
}

func (p *Producer) Start() {
	if !p.running.CompareAndSwap(false, true) {
		return
	}
	p.done = make(chan struct{})
	p.wg.Add(1)
	go p.loop()
	w, h, fps := p.Size()
	p.log.Info().Msgf("producer started, %dx%d @ %d fps", w, h, fps)
}

func (p *Producer) Stop() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
	p.log.Info().Msg("producer stopped")
}

func (p *Producer) IsRunning() bool { return p.running.Load() }

// Size returns the current output dimensions and rate.
func (p *Producer) Size() (width, height, fps int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height, p.fps
}

// SetSize changes the output dimensions. Takes effect on the next frame.
func (p *Producer) SetSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	p.mu.Lock()
	p.width, p.height = width, height
	p.mu.Unlock()
}

// SetFPS changes the production rate. Takes effect on the next frame.
func (p *Producer) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	p.mu.Lock()
	p.fps = fps
	p.mu.Unlock()
}

// SetSource records what the producer stands in for, e.g. the page URL
// a browser backend would be rendering. Purely informational.
func (p *Producer) SetSource(source string) {
	p.mu.Lock()
	p.source = source
	p.mu.Unlock()
}

func (p *Producer) Source() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.source
}

// FrameCount returns the number of frames produced since creation.
func (p *Producer) FrameCount() int64 { return p.frame.Load() }

func (p *Producer) loop() {
	defer p.wg.Done()

	var buf []byte
	for {
		w, h, fps := p.Size()
		period := time.Second / time.Duration(fps)

		need := w * h * 4
		if cap(buf) < need {
			buf = make([]byte, need)
		}
		buf = buf[:need]

		n := p.frame.Add(1)
		drawBars(buf, w, h, n)
		p.onFrame(buf, w, h)

		select {
		case <-p.done:
			return
		case <-time.After(period):
		}
	}
}
