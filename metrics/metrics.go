// Package metrics provides Prometheus metrics for scoring, rescoring and
// embedding runs.
//
// A nil *Manager is valid and records nothing, so components can take an
// optional manager without guarding every call.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every metric and the registry they are registered on.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	profilesScored   prometheus.Counter
	profilesSkipped  *prometheus.CounterVec
	scoresWritten    prometheus.Counter
	tendersSkipped   prometheus.Counter
	keywordFailures  prometheus.Counter
	batchFlushes     prometheus.Histogram
	phaseDuration    *prometheus.HistogramVec
	rescoreUsers     *prometheus.CounterVec
	boostsApplied    prometheus.Counter
	knnFailures      prometheus.Counter
	embeddingMissing prometheus.Counter
	embeddingsStored prometheus.Counter
	embeddingFailed  prometheus.Counter
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom buckets for duration histograms.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithRegistry registers metrics on registry instead of a fresh one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// NewManager creates a manager with its own registry unless one is supplied.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tendermatch",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.profilesScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "scoring",
		Name: "profiles_scored_total",
		Help: "Company profiles fully scored against the tender set",
	})
	m.profilesSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "scoring",
		Name: "profiles_skipped_total",
		Help: "Company profiles skipped, by reason",
	}, []string{"reason"})
	m.scoresWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "scoring",
		Name: "scores_written_total",
		Help: "Score rows bulk-inserted",
	})
	m.tendersSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "scoring",
		Name: "tenders_skipped_total",
		Help: "Tender/company pairs skipped because the tender has no value",
	})
	m.keywordFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "scoring",
		Name: "keyword_failures_total",
		Help: "Keyword searches that failed",
	})
	m.batchFlushes = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "scoring",
		Name:    "batch_flush_seconds",
		Help:    "Latency of score batch inserts",
		Buckets: m.histogramBuckets,
	})
	m.phaseDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "phase_duration_seconds",
		Help:      "Wall time of each pipeline phase",
		Buckets:   m.histogramBuckets,
	}, []string{"phase"})
	m.rescoreUsers = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "rescore",
		Name: "users_total",
		Help: "Users visited by the rescorer, by outcome",
	}, []string{"outcome"})
	m.boostsApplied = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "rescore",
		Name: "boosts_applied_total",
		Help: "Per-tender similarity boosts written",
	})
	m.knnFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "rescore",
		Name: "knn_failures_total",
		Help: "Nearest-neighbour queries that failed",
	})
	m.embeddingMissing = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "rescore",
		Name: "embeddings_missing_total",
		Help: "Saved tenders skipped for lack of an embedding",
	})
	m.embeddingsStored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "embedding",
		Name: "vectors_stored_total",
		Help: "Tender embeddings generated and stored",
	})
	m.embeddingFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "embedding",
		Name: "batch_failures_total",
		Help: "Embedding batches abandoned after retries",
	})
}

// Registry returns the registry metrics are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordProfileScored counts a profile and the rows it produced.
func (m *Manager) RecordProfileScored(rows int) {
	if m == nil {
		return
	}
	m.profilesScored.Inc()
	m.scoresWritten.Add(float64(rows))
}

// RecordProfileSkipped counts a skipped profile.
func (m *Manager) RecordProfileSkipped(reason string) {
	if m == nil {
		return
	}
	m.profilesSkipped.WithLabelValues(reason).Inc()
}

// RecordTendersSkipped counts pairs skipped for a missing tender value.
func (m *Manager) RecordTendersSkipped(n int) {
	if m == nil || n == 0 {
		return
	}
	m.tendersSkipped.Add(float64(n))
}

// RecordKeywordFailure counts a failed keyword search.
func (m *Manager) RecordKeywordFailure() {
	if m == nil {
		return
	}
	m.keywordFailures.Inc()
}

// ObserveBatchFlush records a batch insert latency.
func (m *Manager) ObserveBatchFlush(d time.Duration) {
	if m == nil {
		return
	}
	m.batchFlushes.Observe(d.Seconds())
}

// ObservePhase records the duration of a named pipeline phase.
func (m *Manager) ObservePhase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// RecordRescoreUser counts a rescored user by outcome.
func (m *Manager) RecordRescoreUser(outcome string, boosts int) {
	if m == nil {
		return
	}
	m.rescoreUsers.WithLabelValues(outcome).Inc()
	m.boostsApplied.Add(float64(boosts))
}

// RecordKNNFailure counts a failed nearest-neighbour query.
func (m *Manager) RecordKNNFailure() {
	if m == nil {
		return
	}
	m.knnFailures.Inc()
}

// RecordMissingEmbedding counts a saved tender without a vector.
func (m *Manager) RecordMissingEmbedding() {
	if m == nil {
		return
	}
	m.embeddingMissing.Inc()
}

// RecordEmbeddings counts stored vectors and abandoned batches.
func (m *Manager) RecordEmbeddings(stored, failedBatches int) {
	if m == nil {
		return
	}
	m.embeddingsStored.Add(float64(stored))
	m.embeddingFailed.Add(float64(failedBatches))
}
