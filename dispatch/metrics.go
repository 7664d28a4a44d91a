package dispatch

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// serverMetrics holds the per-Server Prometheus collectors. They are
// registered against a private registry so an embedder can choose
// whether and how to expose them, rather than this package reaching
// for the global default registry.
type serverMetrics struct {
	registry *prometheus.Registry

	requestsTotal  *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

func newServerMetrics() *serverMetrics {
	reg := prometheus.NewRegistry()
	m := &serverMetrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "p9",
			Name:      "requests_total",
			Help:      "9P2000.L requests served, by message verb.",
		}, []string{"verb"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "p9",
			Name:      "errors_total",
			Help:      "Rlerror replies sent, by errno.",
		}, []string{"errno"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "p9",
			Name:      "active_sessions",
			Help:      "Currently connected 9P sessions.",
		}),
	}
	reg.MustRegister(m.requestsTotal, m.errorsTotal, m.activeSessions)
	return m
}

func (m *serverMetrics) observeRequest(verb string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(verb).Inc()
}

func (m *serverMetrics) observeError(errno uint32) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(strconv.FormatUint(uint64(errno), 10)).Inc()
}

func (m *serverMetrics) sessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *serverMetrics) sessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

