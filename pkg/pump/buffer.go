package pump

import "sync"

const bytesPerPixel = 4

// State classifies what a pacing tick found in the read-role buffer.
type State int

const (
	// StateEmpty means no frame has ever been submitted.
	StateEmpty State = iota
	// StateHeld means the buffer holds the previously delivered frame
	// and no new submission arrived since the last send.
	StateHeld
	// StateFresh means a new frame arrived since the last send.
	StateFresh
)

type frameBuffer struct {
	data   []byte
	width  int
	height int
	ready  bool
}

// Slot is the producer/pump hand-off: two ping-pong buffers plus a
// role indicator under one mutex. At any instant exactly one buffer
// holds the write role and one the read role; the producer mutates
// only the write-role buffer, the pump reads only the read-role one,
// and the role swap is the sole mutation needing synchronization.
type Slot struct {
	mu       sync.Mutex
	bufs     [2]frameBuffer
	writeIdx int
	wake     chan struct{}
}

func NewSlot() *Slot {
	return &Slot{wake: make(chan struct{}, 1)}
}

// Submit copies pixels into the current write-role buffer, marks it
// ready and swaps the roles. Called from the producer's goroutine at
// an uncontrolled rate; it holds the lock only for the copy and the
// flag updates.
func (s *Slot) Submit(pixels []byte, width, height int) {
	size := width * height * bytesPerPixel
	if size <= 0 || len(pixels) < size {
		return
	}

	s.mu.Lock()
	wb := &s.bufs[s.writeIdx]
	if len(wb.data) != size {
		wb.data = make([]byte, size)
	}
	copy(wb.data, pixels[:size])
	wb.width = width
	wb.height = height
	wb.ready = true
	s.writeIdx = 1 - s.writeIdx
	s.mu.Unlock()

	// non-blocking wake of the pump loop
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Wake signals that a new frame was submitted.
func (s *Slot) Wake() <-chan struct{} { return s.wake }

// Consume inspects the read-role buffer and, when it holds data,
// copies it into dst (grown as needed). The returned slice aliases
// dst's storage so the pump can reuse one scratch buffer across ticks
// and release the lock before the send.
func (s *Slot) Consume(dst []byte) (pixels []byte, width, height int, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rb := &s.bufs[1-s.writeIdx]
	if rb.width == 0 || rb.height == 0 || len(rb.data) == 0 {
		return dst, 0, 0, StateEmpty
	}

	state = StateFresh
	if !rb.ready {
		state = StateHeld
	}
	rb.ready = false

	pixels = append(dst[:0], rb.data...)
	return pixels, rb.width, rb.height, state
}

// Peek returns a read-only snapshot of the most recent frame for
// diagnostics and thumbnails. It reports false if no frame has ever
// been submitted.
func (s *Slot) Peek() (pixels []byte, width, height int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rb := &s.bufs[1-s.writeIdx]
	if rb.width == 0 || rb.height == 0 || len(rb.data) == 0 {
		return nil, 0, 0, false
	}
	out := make([]byte, len(rb.data))
	copy(out, rb.data)
	return out, rb.width, rb.height, true
}
