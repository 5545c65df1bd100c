package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, m *MetricsService, name string, label, value string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == label && pair.GetValue() == value {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestMetricsServiceDomainCounters(t *testing.T) {
	m := NewMetricsService()

	m.RecordAssignment("assign")
	m.RecordAssignment("assign")
	m.RecordSession("created")
	m.RecordSummary("final")
	m.RecordApproval("rejected")

	assert.Equal(t, 2.0, counterValue(t, m, "assignments_total", "action", "assign"))
	assert.Equal(t, 1.0, counterValue(t, m, "sessions_total", "transition", "created"))
	assert.Equal(t, 1.0, counterValue(t, m, "summaries_total", "mode", "final"))
	assert.Equal(t, 1.0, counterValue(t, m, "approvals_total", "decision", "rejected"))
	assert.Zero(t, counterValue(t, m, "approvals_total", "decision", "approved"))
}

func TestMetricsServiceHandler(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/dashboard/stats", http.StatusOK, 15*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.ObserveDBQuery("dashboard_counts", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `http_requests_total{method="GET",path="/api/v1/dashboard/stats",status="200"} 1`))
	assert.Contains(t, body, "cache_hits_total 1")
	assert.Contains(t, body, "goroutines_total")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.RecordAssignment("assign")
		m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.RecordCacheOperation(false, time.Millisecond)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
