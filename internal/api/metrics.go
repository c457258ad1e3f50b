package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the dashboard service's own counters.
type Metrics struct {
	actions     *prometheus.CounterVec
	sessions    prometheus.Gauge
	liveClients prometheus.Gauge
}

// NewMetrics registers the service metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "icdashboard_actions_total",
			Help: "Dashboard actions dispatched, by action and result.",
		}, []string{"action", "result"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "icdashboard_sessions",
			Help: "Open dashboard tab sessions.",
		}),
		liveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "icdashboard_live_clients",
			Help: "Connected live-update websockets.",
		}),
	}
	reg.MustRegister(m.actions, m.sessions, m.liveClients)
	return m
}
