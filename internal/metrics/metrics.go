// Package metrics exposes Prometheus metrics for index passes, resource
// matching, searches and the HTTP API.
//
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dcpm"

// Metrics holds the collectors and their registry.
type Metrics struct {
	registry *prometheus.Registry

	jobs         *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	warnings     *prometheus.CounterVec
	resources    *prometheus.CounterVec
	searches     *prometheus.CounterVec
	searchTime   prometheus.Histogram
	storeErrors  *prometheus.CounterVec
	requests     *prometheus.CounterVec
	requestTime  *prometheus.HistogramVec
	projectGauge prometheus.Gauge
}

// New creates the collectors on a fresh registry. runtime adds the Go and
// process collectors.
func New(runtime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Background jobs by kind and final state.",
		}, []string{"kind", "state"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Background job duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"kind"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_warnings_total",
			Help:      "Warnings reported by scans and resource walks.",
		}, []string{"kind"}),
		resources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matched_resources_total",
			Help:      "External resource folders scored by the matcher.",
		}, []string{"result"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Search requests by outcome.",
		}, []string{"outcome"}),
		searchTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Index store failures by class.",
		}, []string{"class"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		requestTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		projectGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indexed_projects",
			Help:      "Projects in the index after the last pass.",
		}),
	}
	m.registry.MustRegister(m.jobs, m.jobDuration, m.warnings, m.resources, m.searches,
		m.searchTime, m.storeErrors, m.requests, m.requestTime, m.projectGauge)
	if runtime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// JobFinished records a background job.
func (m *Metrics) JobFinished(kind, state string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(kind, state).Inc()
	m.jobDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// Warning counts one reconciliation warning.
func (m *Metrics) Warning(kind string) {
	if m == nil {
		return
	}
	m.warnings.WithLabelValues(kind).Inc()
}

// Matched counts matcher results.
func (m *Metrics) Matched(matched, unassigned int) {
	if m == nil {
		return
	}
	m.resources.WithLabelValues("matched").Add(float64(matched))
	m.resources.WithLabelValues("unassigned").Add(float64(unassigned))
}

// Projects sets the indexed project gauge.
func (m *Metrics) Projects(n int) {
	if m == nil {
		return
	}
	m.projectGauge.Set(float64(n))
}

// Search records one search.
func (m *Metrics) Search(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(outcome).Inc()
	m.searchTime.Observe(d.Seconds())
}

// StoreError counts a store failure of the given class.
func (m *Metrics) StoreError(class string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(class).Inc()
}

// Request records one HTTP request. route is the matched route pattern.
func (m *Metrics) Request(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestTime.WithLabelValues(method, route).Observe(d.Seconds())
}
