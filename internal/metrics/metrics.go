// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the service records into.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	AuthAttemptsTotal   *prometheus.CounterVec
	GuardDecisionsTotal *prometheus.CounterVec
	PublishChangesTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates the collectors and registers them on registry. A nil registry
// gets a fresh one.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "elearning_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "elearning_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "elearning_auth_attempts_total",
				Help: "Sign-up, sign-in and sign-out attempts by outcome",
			},
			[]string{"operation", "outcome"},
		),
		GuardDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "elearning_guard_decisions_total",
				Help: "Route guard decisions for protected page areas",
			},
			[]string{"area", "outcome"},
		),
		PublishChangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "elearning_course_publish_changes_total",
				Help: "Course publication requests by target state and outcome",
			},
			[]string{"target", "outcome"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthAttemptsTotal,
		m.GuardDecisionsTotal,
		m.PublishChangesTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordAuth counts an auth operation; outcome is "success" or an error kind.
func (m *Metrics) RecordAuth(operation, outcome string) {
	if m == nil {
		return
	}
	m.AuthAttemptsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) RecordGuard(area, outcome string) {
	if m == nil {
		return
	}
	m.GuardDecisionsTotal.WithLabelValues(area, outcome).Inc()
}

func (m *Metrics) RecordPublish(published bool, outcome string) {
	if m == nil {
		return
	}
	m.PublishChangesTotal.WithLabelValues(strconv.FormatBool(published), outcome).Inc()
}
