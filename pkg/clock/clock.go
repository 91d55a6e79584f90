// Package clock abstracts frame scheduling time sources. The frame
// pump paces itself against a Clock and never touches time.Now
// directly, so a genlocked reference clock can be swapped in without
// the pump knowing.
package clock

import (
	"math"
	"time"
)

// TimecodeSynthesize tells the sender to synthesize its own timecode
// instead of using an explicit one.
const TimecodeSynthesize int64 = math.MaxInt64

// Clock is the scheduling time source of a frame pump.
type Clock interface {
	// Now returns the current time on this clock's timeline.
	Now() time.Time
	// NextFrameBoundary returns the instant the next frame should be
	// emitted at, given the current time and the frame period.
	NextFrameBoundary(now time.Time, frameDuration time.Duration) time.Time
	// Timecode returns the current timecode in 100ns ticks since the
	// clock's reference epoch, or TimecodeSynthesize when the clock
	// has no shared epoch to count from.
	Timecode() int64
	// Synchronized reports whether the clock is locked to a shared
	// reference timeline.
	Synchronized() bool
}

// SystemClock paces frames relative to the local monotonic clock.
// Boundaries are offsets from "now", so two instances started at
// different moments drift apart freely.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) NextFrameBoundary(now time.Time, frameDuration time.Duration) time.Time {
	return now.Add(frameDuration)
}

func (SystemClock) Timecode() int64 { return TimecodeSynthesize }

func (SystemClock) Synchronized() bool { return false }
