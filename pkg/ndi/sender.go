// Package ndi defines the outbound video-bus contract the frame pump
// delivers into. The real NDI runtime binding lives behind the Sender
// interface so the pacing core stays testable without it.
package ndi

import (
	"github.com/gofrs/uuid"
)

// VideoFrame is one finished frame handed to the bus. Pixels are
// 4 bytes per pixel in whatever channel order the renderer produced;
// the bus treats them opaquely.
type VideoFrame struct {
	Pixels     []byte
	Width      int
	Height     int
	FrameRateN int
	FrameRateD int
	// Progressive selects the scan mode; false means interlaced.
	Progressive bool
	// Timecode in 100ns ticks since the shared reference epoch, or
	// clock.TimecodeSynthesize to let the bus stamp its own.
	Timecode int64
}

// AudioFrame is pass-through audio. The pump does not touch audio
// timing; it forwards whatever the producer hands over.
type AudioFrame struct {
	Samples     []float32
	SampleRate  int
	Channels    int
	SampleCount int
}

// Sender accepts finished frames, fire-and-forget. Implementations own
// their retry and error policy; the pump never consults a result.
type Sender interface {
	SendVideo(f *VideoFrame)
	SendAudio(f *AudioFrame)
}

// Meta identifies a source on the bus.
type Meta struct {
	Name       string
	Groups     string
	InstanceID string
}

func NewMeta(name, groups string) Meta {
	id, _ := uuid.NewV4()
	return Meta{Name: name, Groups: groups, InstanceID: id.String()}
}

// Discard drops every frame. Useful for benchmarks and for running the
// pipeline without an attached bus.
type Discard struct{}

func (Discard) SendVideo(*VideoFrame) {}
func (Discard) SendAudio(*AudioFrame) {}
