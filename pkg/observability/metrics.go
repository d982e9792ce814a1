package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Session lifecycle metrics
	SessionTransitionsTotal *prometheus.CounterVec
	AuthRequestsTotal       *prometheus.CounterVec
	AuthFailuresTotal       prometheus.Counter
	OpenSessions            prometheus.Gauge

	// Token cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	CacheClearsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		SessionTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ssoflow_session_transitions_total",
				Help: "Total number of session state transitions",
			},
			[]string{"state"},
		),
		AuthRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ssoflow_auth_requests_total",
				Help: "Total number of authorization requests by policy outcome",
			},
			[]string{"outcome"},
		),
		AuthFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ssoflow_auth_failures_total",
				Help: "Total number of failed or canceled authorizations",
			},
		),
		OpenSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ssoflow_open_sessions",
				Help: "Whether an open session is currently tracked (0 or 1)",
			},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ssoflow_token_cache_hits_total",
				Help: "Total number of token cache hits",
			},
			[]string{"backend"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ssoflow_token_cache_misses_total",
				Help: "Total number of token cache misses",
			},
			[]string{"backend"},
		),
		CacheClearsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ssoflow_token_cache_clears_total",
				Help: "Total number of token cache purges",
			},
			[]string{"backend"},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.SessionTransitionsTotal,
			m.AuthRequestsTotal,
			m.AuthFailuresTotal,
			m.OpenSessions,
			m.CacheHitsTotal,
			m.CacheMissesTotal,
			m.CacheClearsTotal,
		)
	}

	return m
}
