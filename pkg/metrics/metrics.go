// Package metrics holds the prometheus collectors of the service.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without a registry in tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "filecollab"

type Metrics struct {
	registry *prometheus.Registry

	annotations   prometheus.Counter
	comments      *prometheus.CounterVec
	approvals     *prometheus.CounterVec
	shares        *prometheus.CounterVec
	saveConflicts prometheus.Counter
	requests      *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		annotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "annotations_created_total",
			Help:      "Annotations added to documents.",
		}),
		comments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comment_operations_total",
			Help:      "Comment operations by kind (add, update, delete).",
		}, []string{"op"}),
		approvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "approvals_total",
			Help:      "Document approvals by author kind.",
		}, []string{"author"}),
		shares: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shares_total",
			Help:      "Share rows by outcome (created, skipped, removed).",
		}, []string{"outcome"}),
		saveConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "file_save_conflicts_total",
			Help:      "File saves rejected by the revision check.",
		}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(m.annotations, m.comments, m.approvals, m.shares, m.saveConflicts, m.requests)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) AnnotationCreated() {
	if m == nil {
		return
	}
	m.annotations.Inc()
}

func (m *Metrics) CommentOp(op string) {
	if m == nil {
		return
	}
	m.comments.WithLabelValues(op).Inc()
}

func (m *Metrics) Approval(authorKind string) {
	if m == nil {
		return
	}
	m.approvals.WithLabelValues(authorKind).Inc()
}

func (m *Metrics) Shares(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.shares.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) SaveConflict() {
	if m == nil {
		return
	}
	m.saveConflicts.Inc()
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, status).Observe(seconds)
}
