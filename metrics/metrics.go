// Package metrics exposes Prometheus instrumentation for the harvesting pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "harvester"

// Metrics holds all pipeline collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FetchesTotal    *prometheus.CounterVec
	FetchDuration   prometheus.Histogram
	PagesDiscovered *prometheus.CounterVec
	RecordsStaged   *prometheus.CounterVec
	RecordsSkipped  *prometheus.CounterVec
	UnknownLabels   prometheus.Counter
	RunsTotal       *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Fetches by outcome (ok, redirect, status_Nxx, error).",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Wall time of a fetch including retries.",
			Buckets:   prometheus.DefBuckets,
		}),
		PagesDiscovered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_pages_total",
			Help:      "Listing index pages walked during discovery.",
		}, []string{"category"}),
		RecordsStaged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_staged_total",
			Help:      "Records inserted into the staging table.",
		}, []string{"category"}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Listing URLs dropped from a run by reason.",
		}, []string{"category", "reason"}),
		UnknownLabels: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_labels_total",
			Help:      "Definition-list labels missing from the label dictionary.",
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs by category and status.",
		}, []string{"category", "status"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of one category run.",
			Buckets:   []float64{10, 30, 60, 300, 600, 1800, 3600, 7200},
		}, []string{"category"}),
	}

	reg.MustRegister(
		m.FetchesTotal, m.FetchDuration, m.PagesDiscovered, m.RecordsStaged,
		m.RecordsSkipped, m.UnknownLabels, m.RunsTotal, m.RunDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry so callers can add process level collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveFetch(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

func (m *Metrics) AddPages(category string, n int) {
	if m == nil {
		return
	}
	m.PagesDiscovered.WithLabelValues(category).Add(float64(n))
}

func (m *Metrics) IncStaged(category string) {
	if m == nil {
		return
	}
	m.RecordsStaged.WithLabelValues(category).Inc()
}

func (m *Metrics) IncSkipped(category, reason string) {
	if m == nil {
		return
	}
	m.RecordsSkipped.WithLabelValues(category, reason).Inc()
}

func (m *Metrics) AddUnknownLabels(n int) {
	if m == nil || n == 0 {
		return
	}
	m.UnknownLabels.Add(float64(n))
}

func (m *Metrics) ObserveRun(category, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(category, status).Inc()
	m.RunDuration.WithLabelValues(category).Observe(d.Seconds())
}
