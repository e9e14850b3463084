// Package metrics exposes Prometheus instrumentation for the recommendation pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ArticleRecommender/internal/ports"
)

const namespace = "article_recommender"

var _ ports.Metrics = (*Metrics)(nil)

// Metrics holds all recommender collectors, registered on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	// Pipeline
	RecommendationDuration prometheus.Histogram
	RecommendationResults  prometheus.Histogram
	CandidateSearches      *prometheus.CounterVec
	MaterializeFailures    prometheus.Counter

	// Triple store
	SPARQLRequests *prometheus.CounterVec
	BreakerState   *prometheus.GaugeVec

	// HTTP
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}
	initPipelineMetrics(m, factory)
	initSPARQLMetrics(m, factory)
	initHTTPMetrics(m, factory)
	return m
}

func initPipelineMetrics(m *Metrics, f promauto.Factory) {
	m.RecommendationDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "recommendation_duration_seconds",
		Help:      "Time to produce one recommendation list",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})
	m.RecommendationResults = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "recommendation_results",
		Help:      "Number of recommendations returned per request",
		Buckets:   prometheus.LinearBuckets(0, 5, 11),
	})
	m.CandidateSearches = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "candidate_searches_total",
		Help:      "Candidate searches by stage (strict, relaxed) and outcome (hit, empty, error)",
	}, []string{"stage", "outcome"})
	m.MaterializeFailures = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "materialize_failures_total",
		Help:      "History articles that could not be loaded from the graph",
	})
}

func initSPARQLMetrics(m *Metrics, f promauto.Factory) {
	m.SPARQLRequests = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sparql_requests_total",
		Help:      "Requests sent to the triple store by operation and outcome",
	}, []string{"operation", "outcome"})
	m.BreakerState = f.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sparql_breaker_state",
		Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})
}

func initHTTPMetrics(m *Metrics, f promauto.Factory) {
	m.HTTPRequests = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})
	m.HTTPDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRecommendation records one finished recommendation request.
func (m *Metrics) ObserveRecommendation(elapsed time.Duration, results int) {
	m.RecommendationDuration.Observe(elapsed.Seconds())
	m.RecommendationResults.Observe(float64(results))
}

// CandidateSearch counts one candidate-source call.
func (m *Metrics) CandidateSearch(stage, outcome string) {
	m.CandidateSearches.WithLabelValues(stage, outcome).Inc()
}

// MaterializeFailure counts a history URL that could not be described.
func (m *Metrics) MaterializeFailure() {
	m.MaterializeFailures.Inc()
}

// SPARQLRequest counts one triple-store round trip.
func (m *Metrics) SPARQLRequest(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.SPARQLRequests.WithLabelValues(operation, outcome).Inc()
}

// SetBreakerState mirrors a breaker transition.
func (m *Metrics) SetBreakerState(name string, state int) {
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}

// HTTPRequest records one served request.
func (m *Metrics) HTTPRequest(route, method, status string, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(route, method, status).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
