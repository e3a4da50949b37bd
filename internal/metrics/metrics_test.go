package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnaudderison/logtime19/internal/metrics"
)

func TestObserveRequest(t *testing.T) {
	m := metrics.New()

	m.ObserveRequest(http.MethodGet, "/logs", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/logs", http.StatusOK, 30*time.Millisecond)
	m.ObserveRequest(http.MethodPost, "/oauth/token", http.StatusBadRequest, time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/logs", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/oauth/token", "400")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.HTTPRequestDuration))
}

func TestObserveUpstream(t *testing.T) {
	m := metrics.New()

	m.ObserveUpstream("me", "ok", 100*time.Millisecond)
	m.ObserveUpstream("locations", "timeout", 10*time.Second)

	assert.InDelta(t, 1, testutil.ToFloat64(m.UpstreamCallsTotal.WithLabelValues("me", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.UpstreamCallsTotal.WithLabelValues("locations", "timeout")), 0)
}

func TestObserveSessions(t *testing.T) {
	m := metrics.New()

	m.ObserveSessions(3, []string{"invalid_begin", "invalid_begin", "end_before_begin"})

	assert.InDelta(t, 2, testutil.ToFloat64(m.SessionsDroppedTotal.WithLabelValues("invalid_begin")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SessionsDroppedTotal.WithLabelValues("end_before_begin")), 0)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.ObserveRequest(http.MethodGet, "/logs", http.StatusOK, time.Millisecond)
		m.ObserveUpstream("me", "ok", time.Millisecond)
		m.ObserveSessions(1, []string{"invalid_end"})
		m.ObserveHealthCheck("liveness", "healthy")
	})
}

func TestHandler(t *testing.T) {
	m := metrics.New()
	m.ObserveHealthCheck("liveness", "healthy")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `logtime_health_checks_total{endpoint="liveness",status="healthy"} 1`))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}

func TestNewIsIndependent(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.New()
		metrics.New()
	})
}
