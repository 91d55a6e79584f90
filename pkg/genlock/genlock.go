// Package genlock synchronizes the frame clocks of independent
// processes over UDP. One master broadcasts its timeline once per
// frame interval; slaves smooth the observed offset and expose an
// adjusted clock the frame pump schedules against.
package genlock

import (
	"errors"
	"fmt"
	"math"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yavik-kapadia/HTML2NDI/pkg/clock"
	"github.com/yavik-kapadia/HTML2NDI/pkg/logger"
	"github.com/yavik-kapadia/HTML2NDI/pkg/network/socket"
)

type Mode int

const (
	ModeDisabled Mode = iota
	ModeMaster
	ModeSlave
)

func (m Mode) String() string {
	switch m {
	case ModeMaster:
		return "master"
	case ModeSlave:
		return "slave"
	}
	return "disabled"
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "disabled", "":
		return ModeDisabled, nil
	case "master":
		return ModeMaster, nil
	case "slave":
		return ModeSlave, nil
	}
	return ModeDisabled, fmt.Errorf("unknown genlock mode %q", s)
}

// ema smoothing factor for the slave offset estimate. Damps delivery
// jitter of individual packets while still tracking genuine drift.
const offsetAlpha = 0.1

// offsetHistorySize bounds the sample window used for the jitter metric.
const offsetHistorySize = 100

// receiveTimeout bounds the slave's blocking read so shutdown requests
// are observed promptly.
const receiveTimeout = 100 * time.Millisecond

type Stats struct {
	PacketsSent     uint64  `json:"packets_sent"`
	PacketsReceived uint64  `json:"packets_received"`
	SyncFailures    uint64  `json:"sync_failures"`
	AvgOffsetUs     int64   `json:"avg_offset_us"`
	MaxOffsetUs     int64   `json:"max_offset_us"`
	JitterUs        float64 `json:"jitter_us"`
}

// Genlock is a reference clock distributed over UDP. It implements
// clock.Clock; in disabled mode it degrades to plain relative pacing.
type Genlock struct {
	mu         sync.Mutex   // guards mode transitions and init state
	mode       atomic.Int32 // Mode, atomic: read by the pump goroutine
	masterAddr string
	port       int
	fps        int
	log        *logger.Logger

	epochMu        sync.RWMutex
	referenceEpoch time.Time
	initialized    atomic.Bool
	synchronized   atomic.Bool

	conn *net.UDPConn
	done chan struct{}
	wg   sync.WaitGroup

	offsetUs    atomic.Int64 // ema-smoothed slave offset
	maxOffsetUs atomic.Int64
	jitterBits  atomic.Uint64 // float64 stddev of the offset window

	packetsSent     atomic.Uint64
	packetsReceived atomic.Uint64
	syncFailures    atomic.Uint64

	histMu  sync.Mutex
	history []int64
}

// New creates a genlock clock. The masterAddr param is the destination
// for master mode packets (broadcast addresses are allowed) and is
// informational in slave mode, where the listen port matters instead.
func New(mode Mode, masterAddr string, port, fps int, log *logger.Logger) *Genlock {
	if port == 0 {
		port = DefaultPort
	}
	g := &Genlock{
		masterAddr:     masterAddr,
		port:           port,
		fps:            fps,
		log:            log,
		referenceEpoch: time.Now(),
	}
	g.mode.Store(int32(mode))
	return g
}

var _ clock.Clock = (*Genlock)(nil)

// Init binds the socket and starts the sync goroutine for the current
// mode. A bind failure is fatal to genlock only; callers may fall back
// to disabled mode.
func (g *Genlock) Init() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.initLocked()
}

func (g *Genlock) initLocked() error {
	if g.initialized.Load() {
		return nil
	}
	if g.fps < 1 {
		return errors.New("genlock: fps must be positive")
	}

	if g.curMode() == ModeDisabled {
		g.log.Debug().Msg("genlock disabled")
		g.initialized.Store(true)
		return nil
	}

	g.log.Info().Msgf("initializing genlock in %s mode", strings.ToUpper(g.curMode().String()))

	g.done = make(chan struct{})
	switch g.curMode() {
	case ModeMaster:
		conn, dst, err := socket.NewUDPSender(g.masterAddr)
		if err != nil {
			return fmt.Errorf("genlock: master socket: %w", err)
		}
		g.conn = conn
		g.setEpoch(time.Now())
		// the master is the reference
		g.synchronized.Store(true)
		g.wg.Add(1)
		go g.masterLoop(dst)
	case ModeSlave:
		conn, err := socket.NewUDPListener(g.port)
		if err != nil {
			return fmt.Errorf("genlock: slave socket: %w", err)
		}
		g.conn = conn
		g.setEpoch(time.Now())
		g.wg.Add(1)
		go g.slaveLoop()
	}

	g.initialized.Store(true)
	g.log.Info().Msg("genlock initialized")
	return nil
}

// Shutdown stops the sync goroutine and closes the socket. The socket
// is closed only after the goroutine has been joined.
func (g *Genlock) Shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.shutdownLocked()
}

func (g *Genlock) shutdownLocked() {
	if !g.initialized.Load() {
		return
	}
	g.log.Debug().Msg("shutting down genlock")
	if g.done != nil {
		close(g.done)
	}
	g.wg.Wait()
	if g.conn != nil {
		_ = g.conn.Close()
		g.conn = nil
	}
	g.done = nil
	g.initialized.Store(false)
	g.log.Debug().Msg("genlock shutdown complete")
}

// SetMode switches the genlock role at runtime, tearing down the
// current network goroutine and socket synchronously first.
func (g *Genlock) SetMode(mode Mode) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if mode == g.curMode() {
		return nil
	}
	wasInitialized := g.initialized.Load()
	if wasInitialized {
		g.shutdownLocked()
	}
	g.mode.Store(int32(mode))
	g.synchronized.Store(false)
	if wasInitialized {
		return g.initLocked()
	}
	return nil
}

// SetMasterAddress re-targets the sync stream. Only meaningful before
// init or for a running master/slave, which is restarted in place.
func (g *Genlock) SetMasterAddress(address string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if address == g.masterAddr {
		return nil
	}
	wasInitialized := g.initialized.Load() && g.curMode() != ModeDisabled
	if wasInitialized {
		g.shutdownLocked()
	}
	g.masterAddr = address
	if wasInitialized {
		return g.initLocked()
	}
	return nil
}

func (g *Genlock) Mode() Mode { return g.curMode() }

func (g *Genlock) epoch() time.Time {
	g.epochMu.RLock()
	defer g.epochMu.RUnlock()
	return g.referenceEpoch
}

func (g *Genlock) setEpoch(t time.Time) {
	g.epochMu.Lock()
	g.referenceEpoch = t
	g.epochMu.Unlock()
}

func (g *Genlock) curMode() Mode { return Mode(g.mode.Load()) }

// Now returns the current time on the shared timeline. Slaves subtract
// the smoothed offset so their timestamps align with the master's.
func (g *Genlock) Now() time.Time {
	if g.curMode() != ModeSlave || !g.initialized.Load() {
		return time.Now()
	}
	return time.Now().Add(-time.Duration(g.offsetUs.Load()) * time.Microsecond)
}

// NextFrameBoundary returns the next absolute multiple of the frame
// period since the reference epoch. Multiple independently started
// pumps land on the same boundaries this way. Disabled mode falls back
// to plain relative pacing.
func (g *Genlock) NextFrameBoundary(now time.Time, frameDuration time.Duration) time.Time {
	if g.curMode() == ModeDisabled || !g.initialized.Load() {
		return now.Add(frameDuration)
	}
	epoch := g.epoch()
	currentFrame := now.Sub(epoch) / frameDuration
	return epoch.Add((currentFrame + 1) * frameDuration)
}

// Timecode returns 100ns ticks since the reference epoch, or the
// synthesize sentinel while not synchronized.
func (g *Genlock) Timecode() int64 {
	if g.curMode() == ModeDisabled || !g.initialized.Load() || !g.synchronized.Load() {
		return clock.TimecodeSynthesize
	}
	return g.Now().Sub(g.epoch()).Nanoseconds() / 100
}

func (g *Genlock) Synchronized() bool { return g.synchronized.Load() }

// OffsetUs returns the smoothed slave clock offset in microseconds.
func (g *Genlock) OffsetUs() int64 { return g.offsetUs.Load() }

func (g *Genlock) Stats() Stats {
	return Stats{
		PacketsSent:     g.packetsSent.Load(),
		PacketsReceived: g.packetsReceived.Load(),
		SyncFailures:    g.syncFailures.Load(),
		AvgOffsetUs:     g.offsetUs.Load(),
		MaxOffsetUs:     g.maxOffsetUs.Load(),
		JitterUs:        math.Float64frombits(g.jitterBits.Load()),
	}
}

// masterLoop emits one sync packet per frame interval on a fixed-period
// schedule independent of actual frame delivery.
func (g *Genlock) masterLoop(dst *net.UDPAddr) {
	defer g.wg.Done()
	g.log.Debug().Msg("genlock master loop started")

	conn := g.conn
	frameDuration := time.Second / time.Duration(g.fps)
	nextSend := time.Now()
	var frameNumber int64

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		timer.Reset(time.Until(nextSend))
		select {
		case <-g.done:
			g.log.Debug().Msg("genlock master loop exited")
			return
		case <-timer.C:
		}

		p := Packet{
			Magic:       Magic,
			Version:     Version,
			TimestampNS: time.Since(g.epoch()).Nanoseconds(),
			FrameNumber: frameNumber,
			FPS:         uint32(g.fps),
		}
		p.Checksum = p.CalculateChecksum()

		if _, err := conn.WriteToUDP(p.Marshal(), dst); err != nil {
			g.log.Debug().Err(err).Msg("failed to send sync packet")
		} else {
			g.packetsSent.Add(1)
		}

		frameNumber++
		nextSend = nextSend.Add(frameDuration)
	}
}

// slaveLoop receives sync packets with a short read timeout so the
// done channel is observed within receiveTimeout.
func (g *Genlock) slaveLoop() {
	defer g.wg.Done()
	g.log.Debug().Msg("genlock slave loop started")

	conn := g.conn
	buf := make([]byte, PacketSize)
	for {
		select {
		case <-g.done:
			g.log.Debug().Msg("genlock slave loop exited")
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(receiveTimeout))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			select {
			case <-g.done:
				g.log.Debug().Msg("genlock slave loop exited")
				return
			default:
			}
			g.log.Debug().Err(err).Msg("failed to receive sync packet")
			g.syncFailures.Add(1)
			continue
		}

		p, err := UnmarshalPacket(buf[:n])
		if err != nil || !p.Validate() {
			// forged or corrupt datagrams are dropped silently
			continue
		}
		g.packetsReceived.Add(1)

		// offset convention: local elapsed minus master elapsed, both
		// counted from each side's own epoch. Positive offset means
		// this clock runs ahead of the master.
		offsetUs := (time.Since(g.epoch()).Nanoseconds() - p.TimestampNS) / 1000
		g.updateSyncOffset(offsetUs)
		g.synchronized.Store(true)
	}
}

// updateSyncOffset folds a new offset sample into the ema estimate and
// the jitter window.
func (g *Genlock) updateSyncOffset(offsetUs int64) {
	g.histMu.Lock()
	defer g.histMu.Unlock()

	current := g.offsetUs.Load()
	smoothed := int64(offsetAlpha*float64(offsetUs) + (1-offsetAlpha)*float64(current))
	g.offsetUs.Store(smoothed)

	if abs := absInt64(offsetUs); abs > g.maxOffsetUs.Load() {
		g.maxOffsetUs.Store(abs)
	}

	g.history = append(g.history, offsetUs)
	if len(g.history) > offsetHistorySize {
		g.history = g.history[1:]
	}
	if len(g.history) > 1 {
		var sum int64
		for _, o := range g.history {
			sum += o
		}
		avg := sum / int64(len(g.history))
		var varianceSum float64
		for _, o := range g.history {
			d := float64(o - avg)
			varianceSum += d * d
		}
		g.jitterBits.Store(math.Float64bits(math.Sqrt(varianceSum / float64(len(g.history)))))
	}
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
