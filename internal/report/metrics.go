package report

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are boring counters only. Every value can be explained by
// reading the supervisor's log lines for the same period.
type Metrics struct {
	starts  *prometheus.CounterVec
	stops   *prometheus.CounterVec
	renders prometheus.Counter
	up      prometheus.Gauge
	runtime prometheus.Histogram

	history *History
}

// NewMetrics creates the tunnel collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		starts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tunnelsup",
			Name:      "starts_total",
			Help:      "Tunnel start attempts by result.",
		}, []string{"result"}),
		stops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tunnelsup",
			Name:      "stops_total",
			Help:      "Tunnel stops by what the reap attempt observed.",
		}, []string{"outcome"}),
		renders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tunnelsup",
			Name:      "config_renders_total",
			Help:      "Tunnel configuration files rendered.",
		}),
		up: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tunnelsup",
			Name:      "tunnel_up",
			Help:      "1 while a tunnel child is tracked.",
		}),
		runtime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tunnelsup",
			Name:      "run_duration_seconds",
			Help:      "Time from a successful start to the matching stop.",
			Buckets:   []float64{1, 60, 3600, 86400, 7 * 86400},
		}),
		history: NewHistory(DefaultHistorySize),
	}
	reg.MustRegister(m.starts, m.stops, m.renders, m.up, m.runtime)
	return m
}

// ObserveStart counts one Start call that got past the HA check.
func (m *Metrics) ObserveStart(result string) {
	m.starts.WithLabelValues(result).Inc()
}

// ObserveStop counts one Stop of a tracked child.
func (m *Metrics) ObserveStop(outcome string) {
	m.stops.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRender() {
	m.renders.Inc()
}

func (m *Metrics) SetUp(up bool) {
	if up {
		m.up.Set(1)
		return
	}
	m.up.Set(0)
}

// ObserveRun keeps a finished run in the history.
func (m *Metrics) ObserveRun(r *Result) {
	if r == nil {
		return
	}
	m.runtime.Observe(r.RuntimeSeconds)
	m.history.Record(r)
}

// History returns the recently finished runs.
func (m *Metrics) History() *History {
	return m.history
}
