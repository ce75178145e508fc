package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the paper retrieval service.
// Metrics are organized by subsystem: hunts, sources, cache, and batches.
// All counters and histograms are registered via promauto for automatic
// registration with the default Prometheus registry.
type Metrics struct {
	// HuntsStarted counts the total number of hunts initiated.
	HuntsStarted prometheus.Counter

	// HuntsCompleted counts completed hunts, labeled by full-text source.
	HuntsCompleted *prometheus.CounterVec

	// HuntDuration observes the end-to-end hunt duration in seconds.
	HuntDuration prometheus.Histogram

	// FullTextFound counts full-text short-circuit wins, labeled by source.
	FullTextFound *prometheus.CounterVec

	// CacheHits counts hunts answered from the result cache.
	CacheHits prometheus.Counter

	// CacheMisses counts hunts that had to walk the source chain.
	CacheMisses prometheus.Counter

	// SourceAttempts counts fetch attempts, labeled by source.
	SourceAttempts *prometheus.CounterVec

	// SourceFailures counts failed fetch attempts, labeled by source and error class.
	SourceFailures *prometheus.CounterVec

	// SourceRateLimited counts rate-limited responses, labeled by source.
	SourceRateLimited *prometheus.CounterVec

	// BatchesStarted counts batch hunts initiated.
	BatchesStarted prometheus.Counter

	// BatchSize observes the distribution of batch sizes.
	BatchSize prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		HuntsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hunts_started_total",
			Help:      "Total number of paper hunts started",
		}),
		HuntsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hunts_completed_total",
			Help:      "Total number of paper hunts completed by full-text source",
		}, []string{"full_text_source"}),
		HuntDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hunt_duration_seconds",
			Help:      "Duration of paper hunts in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		FullTextFound: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "full_text_found_total",
			Help:      "Total number of full-text wins by source",
		}, []string{"source"}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of hunts answered from cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of hunts that walked the source chain",
		}),

		SourceAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_attempts_total",
			Help:      "Total number of source fetch attempts",
		}, []string{"source"}),
		SourceFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Total number of failed source fetch attempts",
		}, []string{"source", "error_class"}),
		SourceRateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rate_limited_total",
			Help:      "Total number of rate-limited responses from sources",
		}, []string{"source"}),

		BatchesStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_started_total",
			Help:      "Total number of batch hunts started",
		}),
		BatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of identifiers per batch hunt",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
	}
}

// RecordHuntStarted records that a hunt has started.
func (m *Metrics) RecordHuntStarted() {
	m.HuntsStarted.Inc()
}

// RecordHuntCompleted records a completed hunt.
func (m *Metrics) RecordHuntCompleted(fullTextSource string, durationSeconds float64) {
	m.HuntsCompleted.WithLabelValues(fullTextSource).Inc()
	m.HuntDuration.Observe(durationSeconds)
}

// RecordFullTextFound records a full-text short-circuit win.
func (m *Metrics) RecordFullTextFound(source string) {
	m.FullTextFound.WithLabelValues(source).Inc()
}

// RecordCacheHit records a hunt answered from cache.
func (m *Metrics) RecordCacheHit() {
	m.CacheHits.Inc()
}

// RecordCacheMiss records a hunt that walked the source chain.
func (m *Metrics) RecordCacheMiss() {
	m.CacheMisses.Inc()
}

// RecordSourceAttempt records a fetch attempt against a source.
func (m *Metrics) RecordSourceAttempt(source string) {
	m.SourceAttempts.WithLabelValues(source).Inc()
}

// RecordSourceFailed records a failed fetch attempt.
func (m *Metrics) RecordSourceFailed(source, errorClass string) {
	m.SourceFailures.WithLabelValues(source, errorClass).Inc()
}

// RecordSourceRateLimited records a rate-limited response from a source.
func (m *Metrics) RecordSourceRateLimited(source string) {
	m.SourceRateLimited.WithLabelValues(source).Inc()
}

// RecordBatchStarted records a batch hunt.
func (m *Metrics) RecordBatchStarted(size int) {
	m.BatchesStarted.Inc()
	m.BatchSize.Observe(float64(size))
}
