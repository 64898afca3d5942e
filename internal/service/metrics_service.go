package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the planner.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	storageDuration    *prometheus.HistogramVec
	storageErrors      *prometheus.CounterVec
	generatedCourses   prometheus.Counter
	generationDuration prometheus.Histogram
	statusTransitions  prometheus.Counter

	requestCount  uint64
	storageErrCnt uint64
}

// MetricsSnapshot is a cheap summary for health endpoints.
type MetricsSnapshot struct {
	RequestsTotal      uint64    `json:"requestsTotal"`
	StorageErrorsTotal uint64    `json:"storageErrorsTotal"`
	Goroutines         int       `json:"goroutines"`
	GeneratedAt        time.Time `json:"generatedAt"`
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	storageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_storage_operation_seconds",
		Help:    "Latency of key/value storage operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "operation"})

	storageErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_storage_errors_total",
		Help: "Failed key/value storage operations",
	}, []string{"backend", "operation"})

	generatedCourses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "planner_generated_courses_total",
		Help: "Courses produced by schedule regeneration",
	})

	generationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_generation_duration_seconds",
		Help:    "Duration of school-year generation",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
	})

	statusTransitions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "planner_status_transitions_total",
		Help: "Course statuses changed by reconciliation",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, storageDuration, storageErrors,
		generatedCourses, generationDuration, statusTransitions, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		storageDuration:    storageDuration,
		storageErrors:      storageErrors,
		generatedCourses:   generatedCourses,
		generationDuration: generationDuration,
		statusTransitions:  statusTransitions,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// ObserveStorageOperation implements kvstore.Observer.
func (m *MetricsService) ObserveStorageOperation(backend, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.storageDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil {
		m.storageErrors.WithLabelValues(backend, operation).Inc()
		atomic.AddUint64(&m.storageErrCnt, 1)
	}
}

// ObserveGeneration records one regeneration run.
func (m *MetricsService) ObserveGeneration(courses int, duration time.Duration) {
	if m == nil {
		return
	}
	m.generatedCourses.Add(float64(courses))
	m.generationDuration.Observe(duration.Seconds())
}

// ObserveStatusTransitions counts statuses changed by one reconciliation pass.
func (m *MetricsService) ObserveStatusTransitions(changed int) {
	if m == nil || changed <= 0 {
		return
	}
	m.statusTransitions.Add(float64(changed))
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		RequestsTotal:      atomic.LoadUint64(&m.requestCount),
		StorageErrorsTotal: atomic.LoadUint64(&m.storageErrCnt),
		Goroutines:         runtime.NumGoroutine(),
		GeneratedAt:        time.Now().UTC(),
	}
}
