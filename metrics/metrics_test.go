package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilManagerIsNoop(t *testing.T) {
	var m *Manager
	assert.NotPanics(t, func() {
		m.RecordProfileScored(3)
		m.RecordProfileSkipped("no_info")
		m.RecordTendersSkipped(2)
		m.RecordKeywordFailure()
		m.ObserveBatchFlush(time.Millisecond)
		m.ObservePhase("score", time.Second)
		m.RecordRescoreUser("applied", 4)
		m.RecordKNNFailure()
		m.RecordMissingEmbedding()
		m.RecordEmbeddings(5, 1)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestManagerCounters(t *testing.T) {
	m := NewManager()

	m.RecordProfileScored(10)
	m.RecordProfileScored(5)
	m.RecordProfileSkipped("no_info")
	m.RecordProfileSkipped("no_info")
	m.RecordProfileSkipped("keyword_error")
	m.RecordTendersSkipped(0)
	m.RecordTendersSkipped(3)
	m.RecordRescoreUser("applied", 7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.profilesScored))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.scoresWritten))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.profilesSkipped.WithLabelValues("no_info")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.profilesSkipped.WithLabelValues("keyword_error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.tendersSkipped))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.boostsApplied))
}

func TestManagerOptions(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewManager(WithRegistry(registry), WithNamespace("custom"), WithHistogramBuckets([]float64{1, 2}))
	assert.Same(t, registry, m.Registry())

	m.RecordKNNFailure()
	families, err := registry.Gather()
	require.NoError(t, err)

	found := false
	for _, f := range families {
		if f.GetName() == "custom_rescore_knn_failures_total" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewManager()
	m.RecordEmbeddings(4, 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "tendermatch_embedding_vectors_stored_total 4"))
}
