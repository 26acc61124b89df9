package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
// Every Record method is safe to call on a nil *Metrics.
type Metrics struct {
	// Lookup metrics
	LookupsTotal          *prometheus.CounterVec
	LookupDurationSeconds *prometheus.HistogramVec
	FallbackTotal         *prometheus.CounterVec

	// Retrieval metrics
	RetrievalRequestsTotal   *prometheus.CounterVec
	RetrievalDurationSeconds *prometheus.HistogramVec

	// LLM metrics
	LLMRequestsTotal   *prometheus.CounterVec
	LLMDurationSeconds *prometheus.HistogramVec
	LLMFailoverTotal   *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec
	RateLimiterKeys    *prometheus.GaugeVec

	// Singleflight metrics
	SingleflightDedupTotal *prometheus.CounterVec

	// Corpus metrics
	CorpusChunks      prometheus.Gauge
	CorpusIngestTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// Lookup metrics
		LookupsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "triangulator_lookups_total",
				Help: "Total number of course lookups by match type and outcome",
			},
			[]string{"match_type", "outcome"}, // outcome: success, degraded, error
		),

		LookupDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "triangulator_lookup_duration_seconds",
				Help:    "Lookup duration in seconds by decision path",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"path"}, // path: short_circuit, fast, fallback
		),

		FallbackTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "triangulator_fallback_total",
				Help: "Total number of language-model fallback invocations by outcome",
			},
			[]string{"outcome"}, // outcome: success, error, parse_error, unavailable
		),

		// Retrieval metrics
		RetrievalRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "triangulator_retrieval_requests_total",
				Help: "Total number of evidence retrieval requests by backend and status",
			},
			[]string{"backend", "status"}, // backend: createai, local
		),

		RetrievalDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "triangulator_retrieval_duration_seconds",
				Help:    "Evidence retrieval duration in seconds by backend",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"backend"},
		),

		// LLM metrics
		LLMRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "triangulator_llm_requests_total",
				Help: "Total number of LLM completion calls by provider and status",
			},
			[]string{"provider", "status"}, // status: success, rate_limit, server_error, timeout, error
		),

		LLMDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "triangulator_llm_duration_seconds",
				Help:    "LLM completion duration in seconds by provider",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"provider"},
		),

		LLMFailoverTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "triangulator_llm_failover_total",
				Help: "Total number of provider failovers in the completion chain",
			},
			[]string{"from", "to"},
		),

		// HTTP metrics
		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "triangulator_http_errors_total",
				Help: "Total HTTP errors by type and route",
			},
			[]string{"error_type", "route"}, // error_type: bad_request, rate_limit, internal
		),

		// Rate limiter metrics
		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "triangulator_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: global, client, llm
		),

		RateLimiterKeys: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "triangulator_rate_limiter_active_keys",
				Help: "Number of clients currently tracked by a keyed rate limiter",
			},
			[]string{"limiter_type"},
		),

		// Singleflight metrics
		SingleflightDedupTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "triangulator_singleflight_dedup_total",
				Help: "Total number of deduplicated requests (requests that waited instead of executing)",
			},
			[]string{"module"},
		),

		// Corpus metrics
		CorpusChunks: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "triangulator_corpus_chunks",
				Help: "Number of evidence chunks held by the local corpus",
			},
		),

		CorpusIngestTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "triangulator_corpus_ingest_total",
				Help: "Total number of corpus ingest runs by status",
			},
			[]string{"status"},
		),
	}

	return m
}

// RecordLookup records a finished lookup.
func (m *Metrics) RecordLookup(matchType, outcome, path string, duration float64) {
	if m == nil {
		return
	}
	m.LookupsTotal.WithLabelValues(matchType, outcome).Inc()
	m.LookupDurationSeconds.WithLabelValues(path).Observe(duration)
}

// RecordFallback records one fallback invocation outcome.
func (m *Metrics) RecordFallback(outcome string) {
	if m == nil {
		return
	}
	m.FallbackTotal.WithLabelValues(outcome).Inc()
}

// RecordRetrieval records an evidence retrieval request.
func (m *Metrics) RecordRetrieval(backend, status string, duration float64) {
	if m == nil {
		return
	}
	m.RetrievalRequestsTotal.WithLabelValues(backend, status).Inc()
	m.RetrievalDurationSeconds.WithLabelValues(backend).Observe(duration)
}

// RecordLLM records one completion call.
func (m *Metrics) RecordLLM(provider, status string, duration float64) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(provider, status).Inc()
	m.LLMDurationSeconds.WithLabelValues(provider).Observe(duration)
}

// RecordLLMFailover records a move to the next provider in the chain.
func (m *Metrics) RecordLLMFailover(from, to string) {
	if m == nil {
		return
	}
	m.LLMFailoverTotal.WithLabelValues(from, to).Inc()
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, route string) {
	if m == nil {
		return
	}
	m.HTTPErrorsTotal.WithLabelValues(errorType, route).Inc()
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	if m == nil {
		return
	}
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// SetRateLimiterKeys sets the number of keys tracked by a limiter.
func (m *Metrics) SetRateLimiterKeys(limiterType string, n int) {
	if m == nil {
		return
	}
	m.RateLimiterKeys.WithLabelValues(limiterType).Set(float64(n))
}

// RecordSingleflightDedup records a deduplicated request
func (m *Metrics) RecordSingleflightDedup(module string) {
	if m == nil {
		return
	}
	m.SingleflightDedupTotal.WithLabelValues(module).Inc()
}

// SetCorpusChunks sets the number of stored evidence chunks.
func (m *Metrics) SetCorpusChunks(n int) {
	if m == nil {
		return
	}
	m.CorpusChunks.Set(float64(n))
}

// RecordCorpusIngest records a corpus ingest run.
func (m *Metrics) RecordCorpusIngest(status string) {
	if m == nil {
		return
	}
	m.CorpusIngestTotal.WithLabelValues(status).Inc()
}
