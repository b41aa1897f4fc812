// Package metrics defines the Prometheus collectors used by the matching
// services and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for RecommendationsTotal and RankingsTotal.
const (
	OutcomeOK      = "ok"
	OutcomeNoMatch = "no_match"
	OutcomeError   = "error"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	RecommendationsTotal  *prometheus.CounterVec
	RecommendationLatency *prometheus.HistogramVec
	RecommendationResults prometheus.Histogram
	RankingsTotal         *prometheus.CounterVec
	CandidatesScored      prometheus.Counter
	CorpusReloadsTotal    *prometheus.CounterVec
	CorpusReloadDuration  prometheus.Histogram
	CorpusJobs            prometheus.Gauge
	CacheHitsTotal        prometheus.Counter
	CacheMissesTotal      prometheus.Counter
	CircuitBreakerState   *prometheus.GaugeVec
	AnalyticsEventsTotal  *prometheus.CounterVec
}

// New creates all collectors and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all collectors and registers them with reg.
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
		RecommendationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recommendations_total",
				Help: "Job recommendation requests by outcome (ok, no_match, error).",
			},
			[]string{"outcome"},
		),
		RecommendationLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recommendation_latency_seconds",
				Help:    "Recommendation latency in seconds by cache status.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"cache_status"},
		),
		RecommendationResults: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "recommendation_results_count",
				Help:    "Number of jobs returned per recommendation request.",
				Buckets: []float64{0, 1, 3, 5, 10},
			},
		),
		RankingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candidate_rankings_total",
				Help: "Candidate ranking requests by outcome.",
			},
			[]string{"outcome"},
		),
		CandidatesScored: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "candidates_scored_total",
				Help: "Total candidate profiles scored against a job.",
			},
		),
		CorpusReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_reloads_total",
				Help: "Corpus model rebuilds by status (success, failure).",
			},
			[]string{"status"},
		),
		CorpusReloadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "corpus_reload_duration_seconds",
				Help:    "Time to load the corpus and fit the model.",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		CorpusJobs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_jobs",
				Help: "Number of jobs in the serving model.",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of result cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of result cache misses.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
		AnalyticsEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_events_total",
				Help: "Match events by status (published, dropped, failed).",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.RecommendationsTotal,
		m.RecommendationLatency,
		m.RecommendationResults,
		m.RankingsTotal,
		m.CandidatesScored,
		m.CorpusReloadsTotal,
		m.CorpusReloadDuration,
		m.CorpusJobs,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CircuitBreakerState,
		m.AnalyticsEventsTotal,
	)

	return m
}

// ObserveReload records one corpus rebuild. jobs is ignored on failure.
func (m *Metrics) ObserveReload(jobs int, err error, took time.Duration) {
	m.CorpusReloadDuration.Observe(took.Seconds())
	if err != nil {
		m.CorpusReloadsTotal.WithLabelValues("failure").Inc()
		return
	}
	m.CorpusReloadsTotal.WithLabelValues("success").Inc()
	m.CorpusJobs.Set(float64(jobs))
}

// SetBreakerState publishes a circuit breaker state; state follows the
// resilience.State numbering.
func (m *Metrics) SetBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
