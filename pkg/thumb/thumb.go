// Package thumb turns raw video frames into JPEG thumbnails for the
// control panel preview.
package thumb

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

const (
	DefaultMaxWidth = 480
	DefaultQuality  = 70
)

var ErrBadFrame = errors.New("thumb: pixel data does not match dimensions")

// EncodeJPEG converts a BGRA frame into a JPEG no wider than maxWidth,
// preserving aspect ratio. Frames already small enough are encoded
// as-is.
func EncodeJPEG(pixels []byte, width, height, maxWidth, quality int) ([]byte, error) {
	if width <= 0 || height <= 0 || len(pixels) < width*height*4 {
		return nil, ErrBadFrame
	}
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	src := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height*4; i += 4 {
		// BGRA in, RGBA out
		src.Pix[i] = pixels[i+2]
		src.Pix[i+1] = pixels[i+1]
		src.Pix[i+2] = pixels[i]
		src.Pix[i+3] = pixels[i+3]
	}

	out := src
	if width > maxWidth {
		thumbH := height * maxWidth / width
		if thumbH < 1 {
			thumbH = 1
		}
		out = image.NewRGBA(image.Rect(0, 0, maxWidth, thumbH))
		draw.ApproxBiLinear.Scale(out, out.Bounds(), src, src.Bounds(), draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
