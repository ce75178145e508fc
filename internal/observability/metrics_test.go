package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecording(t *testing.T) {
	m := NewMetrics("paper_retrieval_test")

	m.RecordHuntStarted()
	m.RecordHuntStarted()
	m.RecordHuntCompleted("semanticscholar", 1.5)
	m.RecordHuntCompleted("virtual_fulltext", 0.2)
	m.RecordFullTextFound("semanticscholar")
	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordSourceAttempt("openalex")
	m.RecordSourceFailed("openalex", "transient")
	m.RecordSourceRateLimited("scopus")
	m.RecordBatchStarted(10)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.HuntsStarted))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HuntsCompleted.WithLabelValues("semanticscholar")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HuntsCompleted.WithLabelValues("virtual_fulltext")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FullTextFound.WithLabelValues("semanticscholar")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheMisses))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SourceAttempts.WithLabelValues("openalex")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SourceFailures.WithLabelValues("openalex", "transient")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SourceRateLimited.WithLabelValues("scopus")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BatchesStarted))
}
