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

func TestMetricsRecordAndExpose(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveHTTP(http.MethodGet, "/api/courses/{id}", http.StatusOK, 25*time.Millisecond)
	m.ObserveHTTP(http.MethodGet, "/api/courses/{id}", http.StatusOK, 5*time.Millisecond)
	m.RecordAuth("signin", "success")
	m.RecordGuard("admin", "redirect_home")
	m.RecordPublish(true, "invalid_transition")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/courses/{id}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthAttemptsTotal.WithLabelValues("signin", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardDecisionsTotal.WithLabelValues("admin", "redirect_home")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishChangesTotal.WithLabelValues("true", "invalid_transition")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "elearning_http_requests_total"))
	assert.True(t, strings.Contains(body, "elearning_guard_decisions_total"))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	m.RecordAuth("signin", "success")
	m.RecordGuard("admin", "allow")
	m.RecordPublish(false, "success")
}
