package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.FeedRefreshed("cf", ResultOK)
		m.Rejected(3)
		m.GridBuilt()
		m.SetContests(map[string]int{"ATCODER": 1})
		m.RefreshCompleted(time.Now())
		m.PasswordChecked("weak")
		m.ObserveHTTPRequest("GET", "/health", 200, time.Millisecond)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCounters(t *testing.T) {
	m := New()
	m.FeedRefreshed("cf", ResultOK)
	m.FeedRefreshed("cf", ResultOK)
	m.FeedRefreshed("cf", ResultError)
	m.Rejected(2)
	m.Rejected(0)
	m.GridBuilt()
	m.SetContests(map[string]int{"CODEFORCES": 4, "ATCODER": 1})
	m.SetContests(map[string]int{"ATCODER": 2})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.feedRefresh.WithLabelValues("cf", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.feedRefresh.WithLabelValues("cf", ResultError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rejected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gridBuilds))
	assert.Equal(t, 1, testutil.CollectAndCount(m.contests), "Reset drops stale platforms")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.contests.WithLabelValues("ATCODER")))
}

func TestHandlerExposition(t *testing.T) {
	m := New()
	m.PasswordChecked("strong")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `cpcal_password_checks_total{level="strong"} 1`))
	assert.Contains(t, body, "go_goroutines")
}
