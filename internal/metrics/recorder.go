// Package metrics exports power graph events as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
	"github.com/specialistvlad/sapmd/internal/sapm"
)

const namespace = "sapm"

// Recorder implements sapm.Observer on top of a Prometheus registry.
type Recorder struct {
	transitions     *prometheus.CounterVec
	writeFailures   *prometheus.CounterVec
	passDuration    prometheus.Histogram
	powered         prometheus.Gauge
	idleState       prometheus.Gauge
	breakerState    *prometheus.GaugeVec
	passesCompleted prometheus.Counter
}

var _ sapm.Observer = (*Recorder)(nil)

// NewRecorder registers every metric with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "power_transitions_total",
			Help:      "Committed component power transitions.",
		}, []string{"kind", "direction"}),
		writeFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "register_write_failures_total",
			Help:      "Failed or timed out power register writes.",
		}, []string{"component"}),
		passDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_duration_seconds",
			Help:      "Duration of recompute passes including register commits.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		powered: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "components_powered",
			Help:      "Components powered after the last pass.",
		}),
		idleState: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "idle_state",
			Help:      "Idle monitor state (0 = active, 1 = standby, 2 = sleep).",
		}),
		breakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bus_breaker_state",
			Help:      "Register bus circuit breaker state (0 = closed, 1 = half-open, 2 = open).",
		}, []string{"bus"}),
		passesCompleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recompute_passes_total",
			Help:      "Completed recompute passes.",
		}),
	}
}

// PassCompleted implements sapm.Observer.
func (r *Recorder) PassCompleted(stats sapm.PassStats) {
	r.passesCompleted.Inc()
	r.passDuration.Observe(stats.Duration.Seconds())
	r.powered.Set(float64(stats.Powered))
}

// PowerChanged implements sapm.Observer.
func (r *Recorder) PowerChanged(c *sapm.Component, on bool) {
	direction := "down"
	if on {
		direction = "up"
	}
	r.transitions.WithLabelValues(c.Kind.String(), direction).Inc()
}

// WriteFailed implements sapm.Observer.
func (r *Recorder) WriteFailed(c *sapm.Component, _ error) {
	r.writeFailures.WithLabelValues(c.Name).Inc()
}

// IdleStateChanged implements sapm.Observer.
func (r *Recorder) IdleStateChanged(_, to sapm.IdleState) {
	r.idleState.Set(float64(to))
}

// BreakerStateChanged matches gobreaker.Settings.OnStateChange.
func (r *Recorder) BreakerStateChanged(name string, _, to gobreaker.State) {
	r.breakerState.WithLabelValues(name).Set(float64(to))
}
