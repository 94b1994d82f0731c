// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the set of collectors registered on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	Transitions      *prometheus.CounterVec
	Payments         *prometheus.CounterVec
	ActiveSessions   prometheus.Gauge
	PendingAbandons  prometheus.Gauge
	AbandonRetries   *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "driverdesk",
			Name:      "upstream_requests_total",
			Help:      "Requests sent to the billing service by operation and status code.",
		}, []string{"op", "code"}),
		UpstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "driverdesk",
			Name:      "upstream_request_duration_seconds",
			Help:      "Billing service latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "driverdesk",
			Name:      "workflow_transitions_total",
			Help:      "Delivery workflow commands by command and outcome.",
		}, []string{"command", "outcome"}),
		Payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "driverdesk",
			Name:      "payments_total",
			Help:      "Payment submissions by outcome.",
		}, []string{"outcome"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "driverdesk",
			Name:      "workflow_sessions",
			Help:      "Driver sessions held in memory.",
		}),
		PendingAbandons: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "driverdesk",
			Name:      "pending_abandons",
			Help:      "Abandon signals waiting in the outbox.",
		}),
		AbandonRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "driverdesk",
			Name:      "abandon_retries_total",
			Help:      "Outbox delivery attempts by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.UpstreamRequests,
		m.UpstreamLatency,
		m.Transitions,
		m.Payments,
		m.ActiveSessions,
		m.PendingAbandons,
		m.AbandonRetries,
	)
	return m
}

// ObserveUpstream records one billing service call. It matches backend.ObserveFunc.
func (m *Metrics) ObserveUpstream(op string, status int, elapsed time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.UpstreamRequests.WithLabelValues(op, code).Inc()
	m.UpstreamLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Transition counts a workflow command. err nil is an ok outcome.
func (m *Metrics) Transition(command string, err error) {
	m.Transitions.WithLabelValues(command, outcome(err)).Inc()
}

// Payment counts a payment submission.
func (m *Metrics) Payment(err error) {
	m.Payments.WithLabelValues(outcome(err)).Inc()
}

// AbandonRetry counts an outbox delivery attempt.
func (m *Metrics) AbandonRetry(err error) {
	m.AbandonRetries.WithLabelValues(outcome(err)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// SetPending reports the outbox depth.
func (m *Metrics) SetPending(n int) {
	m.PendingAbandons.Set(float64(n))
}
