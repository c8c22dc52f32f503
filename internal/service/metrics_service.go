package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
)

// MetricsService owns the Prometheus registry and keeps cheap atomic
// aggregates alongside it so the analytics surface can serve a snapshot
// without scraping.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec

	hits      atomic.Uint64
	misses    atomic.Uint64
	requests  atomic.Uint64
	requestNs atomic.Uint64
	dbQueries atomic.Uint64
	dbQueryNs atomic.Uint64
}

// NewMetricsService builds and registers the collectors.
func NewMetricsService() *MetricsService {
	m := &MetricsService{registry: prometheus.NewRegistry()}

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	m.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency of cache lookups",
		Buckets: prometheus.DefBuckets,
	})
	m.cacheLatency = cacheLatency

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency of cache writes",
		Buckets: prometheus.DefBuckets,
	})
	m.cacheWrite = cacheWrite

	m.cacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total lookups",
	})
	m.cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})
	m.cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	m.dbQueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Current goroutine count",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	m.registry.MustRegister(
		m.requestDuration, m.requestTotal,
		cacheLatency, cacheWrite,
		m.cacheHitRatio, m.cacheHits, m.cacheMisses,
		m.dbQueryDuration, goroutines,
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one handled request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	label := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, label).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, label).Inc()
	m.requests.Add(1)
	m.requestNs.Add(uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records one cache lookup and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		m.hits.Add(1)
	} else {
		m.cacheMisses.Inc()
		m.misses.Add(1)
	}
	if total := m.hits.Load() + m.misses.Load(); total > 0 {
		m.cacheHitRatio.Set(float64(m.hits.Load()) / float64(total))
	}
}

// ObserveCacheWrite records one cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records one labelled database query.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.dbQueries.Add(1)
	m.dbQueryNs.Add(uint64(duration.Nanoseconds()))
}

// Snapshot returns the aggregates for the system analytics endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}

	hits, misses := m.hits.Load(), m.misses.Load()
	requests, requestNs := m.requests.Load(), m.requestNs.Load()
	dbQueries, dbQueryNs := m.dbQueries.Load(), m.dbQueryNs.Load()

	snapshot := models.SystemMetrics{
		CacheHits:     hits,
		CacheMisses:   misses,
		RequestsTotal: requests,
		DBQueryCount:  dbQueries,
		Goroutines:    runtime.NumGoroutine(),
		GeneratedAt:   time.Now().UTC(),
	}
	if total := hits + misses; total > 0 {
		snapshot.CacheHitRatio = float64(hits) / float64(total)
	}
	if requests > 0 {
		snapshot.AverageRequestDurationMs = float64(requestNs) / float64(requests) / float64(time.Millisecond)
	}
	if dbQueries > 0 {
		snapshot.AverageDBQueryDurationMs = float64(dbQueryNs) / float64(dbQueries) / float64(time.Millisecond)
	}
	return snapshot
}
