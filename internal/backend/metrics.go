package backend

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments backend calls. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	sessions prometheus.Gauge
}

// NewMetrics creates the backend collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "icdashboard_backend_requests_total",
			Help: "backend API calls by operation and outcome",
		},
			[]string{"op", "code"},
		),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "icdashboard_backend_request_duration_seconds",
			Help:    "backend API call latency",
			Buckets: prometheus.DefBuckets,
		},
			[]string{"op"},
		),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "icdashboard_backend_session_keys",
			Help: "session keys currently cached across all dashboard tabs",
		}),
	}
	reg.MustRegister(m.requests)
	reg.MustRegister(m.duration)
	reg.MustRegister(m.sessions)
	return m
}

func (m *Metrics) observe(op, code string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, code).Inc()
	m.duration.WithLabelValues(op).Observe(seconds)
}

// SessionKeyAdded and SessionKeyRemoved track cached session keys.
func (m *Metrics) SessionKeyAdded() {
	if m != nil {
		m.sessions.Inc()
	}
}

func (m *Metrics) SessionKeyRemoved() {
	if m != nil {
		m.sessions.Dec()
	}
}
