// Package metrics exposes Prometheus collectors for the proxy pipeline.
//
// Metrics (namespace "vapi_proxy"):
//   - http_requests_total: requests by route pattern, method and status
//   - http_request_duration_seconds: edge latency by route pattern
//   - rate_limited_total: rejected requests by limiter policy
//   - rate_limit_clients: tracked client windows by policy
//   - cors_denied_total: requests rejected by the origin allow-list
//   - validation_rejections_total: chat inputs rejected by kind
//   - upstream_requests_total: upstream calls by outcome
//   - upstream_request_duration_seconds: upstream latency
//   - security_events_total: client-reported security events
//
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vapi_proxy"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	rateLimited        *prometheus.CounterVec
	rateLimitClients   *prometheus.GaugeVec
	corsDenied         prometheus.Counter
	validationRejected *prometheus.CounterVec
	upstreamRequests   *prometheus.CounterVec
	upstreamDuration   prometheus.Histogram
	securityEvents     prometheus.Counter
}

// New creates the collectors and registers them on a private registry
// together with the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests handled by the edge",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the rate limiter",
			},
			[]string{"policy"},
		),
		rateLimitClients: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "rate_limit_clients",
				Help:      "Client windows currently tracked by the rate limiter",
			},
			[]string{"policy"},
		),
		corsDenied: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cors_denied_total",
				Help:      "Requests rejected by the origin allow-list",
			},
		),
		validationRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_rejections_total",
				Help:      "Chat inputs rejected by the validator",
			},
			[]string{"kind"},
		),
		upstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Calls to the upstream chat API by outcome",
			},
			[]string{"outcome"},
		),
		upstreamDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Duration of upstream chat API calls in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
			},
		),
		securityEvents: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "security_events_total",
				Help:      "Security events reported by clients",
			},
		),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.rateLimited,
		m.rateLimitClients,
		m.corsDenied,
		m.validationRejected,
		m.upstreamRequests,
		m.upstreamDuration,
		m.securityEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

func (m *Metrics) ObserveHTTP(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) RateLimited(policy string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(policy).Inc()
}

func (m *Metrics) SetRateLimitClients(policy string, n int) {
	if m == nil {
		return
	}
	m.rateLimitClients.WithLabelValues(policy).Set(float64(n))
}

func (m *Metrics) CORSDenied() {
	if m == nil {
		return
	}
	m.corsDenied.Inc()
}

func (m *Metrics) ValidationRejected(kind string) {
	if m == nil {
		return
	}
	m.validationRejected.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveUpstream(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(outcome).Inc()
	m.upstreamDuration.Observe(d.Seconds())
}

func (m *Metrics) SecurityEvent() {
	if m == nil {
		return
	}
	m.securityEvents.Inc()
}
