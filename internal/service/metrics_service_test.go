package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()

	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/workflows/:id", http.StatusOK, 20*time.Millisecond)
	m.ObserveUpstreamRequest(http.MethodGet, "/api/update", http.StatusBadGateway, time.Millisecond)
	m.ObserveUpstreamRequest(http.MethodPost, "/api/attendance", 0, time.Millisecond)
	m.ObserveTransition("create", "idle", "selecting_params")
	m.ObserveStaleLoad("create")
	m.RecordSubmission("create", nil)
	m.RecordSubmission("update", errors.New("boom"))
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("create", "idle", "selecting_params")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.staleLoads.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("update", "failure")))

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.RequestsTotal)
	assert.Equal(t, uint64(2), snap.UpstreamCalls)
	assert.Equal(t, uint64(2), snap.UpstreamErrors)
	assert.Equal(t, uint64(2), snap.Submissions)
	assert.Equal(t, 0.5, snap.SessionCacheHitRatio)
}

func TestMetricsServiceHandlerAndNilSafety(t *testing.T) {
	m := NewMetricsService()
	m.ObserveTransition("update", "ready", "submitting")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "attendance_workflow_transitions_total")

	var nilMetrics *MetricsService
	nilMetrics.ObserveTransition("create", "idle", "loading")
	nilMetrics.RecordSubmission("create", nil)
	rec = httptest.NewRecorder()
	nilMetrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
