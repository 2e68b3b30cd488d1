// Package metrics holds the Prometheus collectors for the session protocol.
// Every method is safe on a nil *Metrics so callers never need to guard.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "todoauth"

// Outcome labels shared by the login and refresh counters.
const (
	ResultSuccess            = "success"
	ResultInvalidCredentials = "invalid_credentials"
	ResultUnknownHandle      = "unknown_handle"
	ResultMalformed          = "malformed"
	ResultError              = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	logins      *prometheus.CounterVec
	refreshes   *prometheus.CounterVec
	rotations   prometheus.Counter
	revocations prometheus.Counter
	forced401   prometheus.Counter
	rateLimited prometheus.Counter
	swept       prometheus.Counter
	requests    *prometheus.HistogramVec
}

// New builds a private registry with the Go and process collectors plus the
// todoauth collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Password authentication attempts by result.",
		}, []string{"result"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_attempts_total",
			Help:      "Refresh operations by result.",
		}, []string{"result"}),
		rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_rotations_total",
			Help:      "Refresh handles minted and attached as cookies.",
		}),
		revocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_revocations_total",
			Help:      "Refresh handles revoked by logout.",
		}),
		forced401: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forced_unauthorized_total",
			Help:      "GraphQL responses rewritten to HTTP 401.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_entries_swept_total",
			Help:      "Expired refresh registry entries removed by housekeeping.",
		}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graphql_request_duration_seconds",
			Help:      "GraphQL request latency by final HTTP status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
	}

	reg.MustRegister(
		m.logins,
		m.refreshes,
		m.rotations,
		m.revocations,
		m.forced401,
		m.rateLimited,
		m.swept,
		m.requests,
	)
	return m
}

// TrackRegistrySize exports size as the refresh registry gauge. Call once.
func (m *Metrics) TrackRegistrySize(size func() int) {
	if m == nil || size == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "refresh_registry_entries",
		Help:      "Refresh handles currently held in memory.",
	}, func() float64 { return float64(size()) }))
}

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) Refresh(result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) Rotation() {
	if m == nil {
		return
	}
	m.rotations.Inc()
}

func (m *Metrics) Revocation() {
	if m == nil {
		return
	}
	m.revocations.Inc()
}

func (m *Metrics) ForcedUnauthorized() {
	if m == nil {
		return
	}
	m.forced401.Inc()
}

func (m *Metrics) RateLimited(*http.Request) {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func (m *Metrics) Swept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.swept.Add(float64(n))
}

// ObserveRequest records one GraphQL round trip.
func (m *Metrics) ObserveRequest(status string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(status).Observe(seconds)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
