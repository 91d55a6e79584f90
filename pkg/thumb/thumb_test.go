package thumb

import (
	"bytes"
	"image/jpeg"
	"testing"
)

func solidBGRA(b, g, r byte, w, h int) []byte {
	px := make([]byte, w*h*4)
	for i := 0; i < len(px); i += 4 {
		px[i] = b
		px[i+1] = g
		px[i+2] = r
		px[i+3] = 255
	}
	return px
}

func TestEncodeJPEGDownscales(t *testing.T) {
	data, err := EncodeJPEG(solidBGRA(0, 0, 200, 1920, 1080), 1920, 1080, 480, 70)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 480 || b.Dy() != 270 {
		t.Errorf("thumbnail %dx%d, want 480x270", b.Dx(), b.Dy())
	}
}

func TestEncodeJPEGKeepsSmallFrames(t *testing.T) {
	data, err := EncodeJPEG(solidBGRA(0, 100, 0, 320, 180), 320, 180, 480, 70)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 180 {
		t.Errorf("small frame rescaled to %dx%d", b.Dx(), b.Dy())
	}
}

func TestEncodeJPEGChannelOrder(t *testing.T) {
	// pure red in BGRA is {0,0,255,255}
	data, err := EncodeJPEG(solidBGRA(0, 0, 255, 64, 64), 64, 64, 480, 90)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, g, b, _ := img.At(32, 32).RGBA()
	if r>>8 < 200 || g>>8 > 80 || b>>8 > 80 {
		t.Errorf("red frame decoded as r=%d g=%d b=%d, channel swap broken", r>>8, g>>8, b>>8)
	}
}

func TestEncodeJPEGRejectsBadInput(t *testing.T) {
	if _, err := EncodeJPEG(nil, 100, 100, 480, 70); err != ErrBadFrame {
		t.Errorf("nil pixels: got %v, want ErrBadFrame", err)
	}
	if _, err := EncodeJPEG(make([]byte, 16), 0, 0, 480, 70); err != ErrBadFrame {
		t.Errorf("zero size: got %v, want ErrBadFrame", err)
	}
}

func TestEncodeJPEGDefaults(t *testing.T) {
	data, err := EncodeJPEG(solidBGRA(50, 50, 50, 640, 360), 640, 360, 0, 0)
	if err != nil {
		t.Fatalf("encode with defaults: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.Width != DefaultMaxWidth {
		t.Errorf("default max width not applied: got %d", cfg.Width)
	}
}
