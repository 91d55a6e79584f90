package render

import (
	"sync"
	"testing"
	"time"

	"github.com/yavik-kapadia/HTML2NDI/pkg/logger"
)

var log = logger.New(false)

func TestProducerDeliversFrames(t *testing.T) {
	var mu sync.Mutex
	var got int
	var lastW, lastH int
	p := NewProducer(func(px []byte, w, h int) {
		mu.Lock()
		got++
		lastW, lastH = w, h
		if len(px) != w*h*4 {
			t.Errorf("pixel slice %d bytes for %dx%d", len(px), w, h)
		}
		mu.Unlock()
	}, 64, 36, 100, log)

	p.Start()
	time.Sleep(200 * time.Millisecond)
	p.Stop()

	mu.Lock()
	defer mu.Unlock()
	if got < 5 {
		t.Errorf("got %d frames over 200ms at 100fps", got)
	}
	if lastW != 64 || lastH != 36 {
		t.Errorf("frame size %dx%d, want 64x36", lastW, lastH)
	}
	if int64(got) != p.FrameCount() {
		t.Errorf("callback count %d != frame counter %d", got, p.FrameCount())
	}
}

func TestProducerResize(t *testing.T) {
	sizes := make(chan [2]int, 256)
	p := NewProducer(func(px []byte, w, h int) {
		select {
		case sizes <- [2]int{w, h}:
		default:
		}
	}, 32, 32, 200, log)

	p.Start()
	time.Sleep(50 * time.Millisecond)
	p.SetSize(16, 8)
	time.Sleep(100 * time.Millisecond)
	p.Stop()

	close(sizes)
	var sawNew bool
	for s := range sizes {
		if s == [2]int{16, 8} {
			sawNew = true
		}
	}
	if !sawNew {
		t.Errorf("resize never reached the frame callback")
	}
}

func TestProducerStartStopIdempotent(t *testing.T) {
	p := NewProducer(func([]byte, int, int) {}, 8, 8, 60, log)
	p.Stop()
	p.Start()
	p.Start()
	if !p.IsRunning() {
		t.Fatalf("producer not running after start")
	}
	p.Stop()
	p.Stop()
	if p.IsRunning() {
		t.Fatalf("producer still running after stop")
	}
}

func TestProducerRejectsInvalidSettings(t *testing.T) {
	p := NewProducer(func([]byte, int, int) {}, 8, 8, 60, log)
	p.SetSize(0, 10)
	p.SetFPS(-1)
	w, h, fps := p.Size()
	if w != 8 || h != 8 || fps != 60 {
		t.Errorf("invalid settings were applied: %dx%d @ %d", w, h, fps)
	}
}

func TestDrawBarsMotion(t *testing.T) {
	w, h := 70, 40
	a := make([]byte, w*h*4)
	b := make([]byte, w*h*4)
	drawBars(a, w, h, 1)
	drawBars(b, w, h, 5)

	// the bar region is static
	stripTop := h * 3 / 4
	for i := 0; i < stripTop*w*4; i++ {
		if a[i] != b[i] {
			t.Fatalf("bar region changed between frames at byte %d", i)
		}
	}
	// the bottom strip moves
	var moved bool
	for i := stripTop * w * 4; i < len(a); i++ {
		if a[i] != b[i] {
			moved = true
			break
		}
	}
	if !moved {
		t.Errorf("motion strip identical across frames")
	}
}
