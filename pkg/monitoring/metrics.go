package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/yavik-kapadia/HTML2NDI/pkg/genlock"
	"github.com/yavik-kapadia/HTML2NDI/pkg/pump"
)

const namespace = "html2ndi"

// RegisterPumpMetrics exposes frame pump statistics on the default
// Prometheus registry. Safe to call once per process.
func RegisterPumpMetrics(p *pump.Pump) {
	register(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pump", Name: "frames_sent_total",
			Help: "Number of frames sent to the output.",
		}, func() float64 { return float64(p.Stats().FramesSent) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pump", Name: "frames_dropped_total",
			Help: "Number of frame intervals that elapsed with no frame available.",
		}, func() float64 { return float64(p.Stats().FramesDropped) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pump", Name: "frames_held_total",
			Help: "Number of frames re-sent because no fresh frame arrived in time.",
		}, func() float64 { return float64(p.Stats().FramesHeld) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "pump", Name: "measured_fps",
			Help: "Observed output frame rate.",
		}, func() float64 { return p.Stats().MeasuredFPS }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "pump", Name: "bandwidth_bytes_per_second",
			Help: "Estimated raw video bandwidth.",
		}, func() float64 { return p.Stats().BandwidthBps }),
	)
}

// RegisterGenlockMetrics exposes sync statistics on the default
// Prometheus registry.
func RegisterGenlockMetrics(g *genlock.Genlock) {
	register(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "genlock", Name: "sync_offset_microseconds",
			Help: "Smoothed clock offset against the sync master.",
		}, func() float64 { return float64(g.Stats().AvgOffsetUs) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "genlock", Name: "jitter_microseconds",
			Help: "Standard deviation of recent sync offsets.",
		}, func() float64 { return g.Stats().JitterUs }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "genlock", Name: "packets_received_total",
			Help: "Valid sync packets received from the master.",
		}, func() float64 { return float64(g.Stats().PacketsReceived) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "genlock", Name: "packets_sent_total",
			Help: "Sync packets broadcast to slaves.",
		}, func() float64 { return float64(g.Stats().PacketsSent) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "genlock", Name: "synchronized",
			Help: "1 when locked to a reference timeline.",
		}, func() float64 {
			if g.Synchronized() {
				return 1
			}
			return 0
		}),
	)
}

func register(cs ...prometheus.Collector) {
	for _, c := range cs {
		if err := prometheus.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
}
