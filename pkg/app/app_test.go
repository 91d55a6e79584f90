package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/yavik-kapadia/HTML2NDI/pkg/config"
	"github.com/yavik-kapadia/HTML2NDI/pkg/ndi"
)

func testConf(t *testing.T) config.AppConfig {
	t.Helper()
	return config.AppConfig{
		App: config.App{Tag: "test", LockFile: filepath.Join(t.TempDir(), "test.lock")},
		Render: config.Render{
			URL: "https://example.com", Width: 128, Height: 72, FPS: 30, Progressive: true,
		},
		NDI:     config.NDI{Name: "Test"},
		Genlock: config.Genlock{Mode: "disabled", Port: 5960},
	}
}

func TestAppLifecycle(t *testing.T) {
	a, err := New(testConf(t), ndi.Discard{}, testLog)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := a.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	if !a.pump.IsRunning() || !a.producer.IsRunning() {
		t.Errorf("pump/producer not running")
	}
	if st := a.pump.Stats(); st.FramesSent == 0 {
		t.Errorf("no frames flowed through the pipeline")
	}
	if err := a.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if a.pump.IsRunning() || a.producer.IsRunning() {
		t.Errorf("pump/producer still running after stop")
	}
}

func TestAppLockFileExcludesSecondInstance(t *testing.T) {
	conf := testConf(t)
	a, err := New(conf, ndi.Discard{}, testLog)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := a.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	defer a.Stop()

	b, err := New(conf, ndi.Discard{}, testLog)
	if err != nil {
		t.Fatalf("new second: %v", err)
	}
	if err := b.Run(); err != ErrAlreadyRunning {
		t.Errorf("second instance: got %v, want ErrAlreadyRunning", err)
		b.Stop()
	}
}

func TestAppRejectsBadGenlockMode(t *testing.T) {
	conf := testConf(t)
	conf.Genlock.Mode = "sideways"
	if _, err := New(conf, ndi.Discard{}, testLog); err == nil {
		t.Errorf("invalid genlock mode accepted")
	}
}

func TestAppShutdownSignal(t *testing.T) {
	a, err := New(testConf(t), ndi.Discard{}, testLog)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	select {
	case <-a.Done():
		t.Fatalf("done closed before shutdown")
	default:
	}
	a.Shutdown()
	a.Shutdown() // second request is a no-op
	select {
	case <-a.Done():
	case <-time.After(time.Second):
		t.Fatalf("done not closed after shutdown")
	}
}

func TestAppApplyConfig(t *testing.T) {
	a, err := New(testConf(t), ndi.Discard{}, testLog)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	conf := testConf(t)
	conf.Render.FPS = 50
	conf.Render.Width, conf.Render.Height = 256, 144
	a.applyConfig(conf)

	if a.pump.TargetFPS() != 50 {
		t.Errorf("pump fps = %d", a.pump.TargetFPS())
	}
	w, h, fps := a.producer.Size()
	if w != 256 || h != 144 || fps != 50 {
		t.Errorf("producer settings %dx%d @ %d", w, h, fps)
	}
}
