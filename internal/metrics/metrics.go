// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Feed refresh outcomes.
const (
	ResultOK     = "ok"
	ResultCached = "cached"
	ResultError  = "error"
)

// Metrics wraps a private registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	feedRefresh     *prometheus.CounterVec
	contests        *prometheus.GaugeVec
	rejected        prometheus.Counter
	gridBuilds      prometheus.Counter
	lastRefresh     prometheus.Gauge
	passwordChecks  *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cpcal_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		feedRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cpcal_feed_refresh_total",
			Help: "Feed fetch attempts by source and result",
		}, []string{"source", "result"}),
		contests: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cpcal_contests",
			Help: "Contests held in the current snapshot",
		}, []string{"platform"}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cpcal_rejected_contests_total",
			Help: "Malformed contests excluded from the calendar",
		}),
		gridBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cpcal_grid_builds_total",
			Help: "Month grids built",
		}),
		lastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cpcal_last_refresh_timestamp_seconds",
			Help: "Unix time of the last completed refresh",
		}),
		passwordChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cpcal_password_checks_total",
			Help: "Password strength checks by level",
		}, []string{"level"}),
	}

	registry.MustRegister(
		m.requestDuration,
		m.feedRefresh,
		m.contests,
		m.rejected,
		m.gridBuilds,
		m.lastRefresh,
		m.passwordChecks,
		collectors.NewGoCollector(),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) FeedRefreshed(source, result string) {
	if m == nil {
		return
	}
	m.feedRefresh.WithLabelValues(source, result).Inc()
}

// SetContests replaces the per-platform snapshot gauge.
func (m *Metrics) SetContests(byPlatform map[string]int) {
	if m == nil {
		return
	}
	m.contests.Reset()
	for platform, n := range byPlatform {
		m.contests.WithLabelValues(platform).Set(float64(n))
	}
}

func (m *Metrics) Rejected(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rejected.Add(float64(n))
}

func (m *Metrics) GridBuilt() {
	if m == nil {
		return
	}
	m.gridBuilds.Inc()
}

func (m *Metrics) RefreshCompleted(at time.Time) {
	if m == nil {
		return
	}
	m.lastRefresh.Set(float64(at.Unix()))
}

func (m *Metrics) PasswordChecked(level string) {
	if m == nil {
		return
	}
	m.passwordChecks.WithLabelValues(level).Inc()
}
