// Package metrics defines the Prometheus collectors for the analyzer and
// worker and exposes the scrape handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the services record to.
type Metrics struct {
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	HTTPRequestsInFlight   prometheus.Gauge
	AnalysesTotal          *prometheus.CounterVec
	AnalysisDuration       prometheus.Histogram
	WordsIngestedTotal     prometheus.Counter
	DictionaryWords        *prometheus.GaugeVec
	ReportCacheHitsTotal   prometheus.Counter
	ReportCacheMissesTotal prometheus.Counter
	ReportsPersistedTotal  *prometheus.CounterVec
	EventsPublishedTotal   *prometheus.CounterVec
}

// New registers the collectors with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors with reg. Tests pass a fresh
// prometheus.NewRegistry so repeated construction does not collide.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		AnalysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyses_total",
				Help: "Text analyses by submission source and result (computed, cached, invalid, error).",
			},
			[]string{"source", "result"},
		),
		AnalysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "analysis_duration_seconds",
				Help:    "Time spent ingesting a text and building its report.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		WordsIngestedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "words_ingested_total",
				Help: "Total words read across all analyzed texts.",
			},
		),
		DictionaryWords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dictionary_words",
				Help: "Words loaded per part-of-speech list.",
			},
			[]string{"category"},
		),
		ReportCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "report_cache_hits_total",
				Help: "Reports served from cache.",
			},
		),
		ReportCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "report_cache_misses_total",
				Help: "Report lookups that had to analyze the text.",
			},
		),
		ReportsPersistedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reports_persisted_total",
				Help: "Report saves to PostgreSQL by status.",
			},
			[]string{"status"},
		),
		EventsPublishedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "events_published_total",
				Help: "Analysis events published to Kafka by status.",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.WordsIngestedTotal,
		m.DictionaryWords,
		m.ReportCacheHitsTotal,
		m.ReportCacheMissesTotal,
		m.ReportsPersistedTotal,
		m.EventsPublishedTotal,
	)
	return m
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
