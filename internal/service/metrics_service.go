package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the reminder scheduler.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	sweepDuration     *prometheus.HistogramVec
	sweepHandled      *prometheus.CounterVec
	remindersSent     *prometheus.CounterVec
	recipientFailures *prometheus.CounterVec
	dispatchErrors    *prometheus.CounterVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
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

	sweepDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reminder_sweep_duration_seconds",
		Help:    "Duration of one reminder sweep per threshold",
		Buckets: prometheus.DefBuckets,
	}, []string{"threshold"})

	sweepHandled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reminder_sweep_events_handled_total",
		Help: "Events handled per threshold across sweeps",
	}, []string{"threshold"})

	remindersSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reminder_push_sent_total",
		Help: "Successful reminder push deliveries per threshold",
	}, []string{"threshold"})

	recipientFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reminder_push_recipient_failures_total",
		Help: "Per-recipient reminder push failures per threshold",
	}, []string{"threshold"})

	dispatchErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reminder_dispatch_errors_total",
		Help: "Whole-batch reminder dispatch failures per threshold",
	}, []string{"threshold"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "http_cache_hits_total",
		Help: "Read-through response cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "http_cache_misses_total",
		Help: "Read-through response cache misses",
	})

	registry.MustRegister(requestDuration, requestTotal, sweepDuration, sweepHandled,
		remindersSent, recipientFailures, dispatchErrors, cacheHits, cacheMisses)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		sweepDuration:     sweepDuration,
		sweepHandled:      sweepHandled,
		remindersSent:     remindersSent,
		recipientFailures: recipientFailures,
		dispatchErrors:    dispatchErrors,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one served request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := prometheus.Labels{"method": method, "path": path, "status": fmt.Sprintf("%d", status)}
	s.requestDuration.With(labels).Observe(duration.Seconds())
	s.requestTotal.With(labels).Inc()
}

// ObserveReminderSweep records the outcome of one threshold sweep.
func (s *MetricsService) ObserveReminderSweep(threshold string, handled int, duration time.Duration) {
	s.sweepDuration.WithLabelValues(threshold).Observe(duration.Seconds())
	s.sweepHandled.WithLabelValues(threshold).Add(float64(handled))
}

// AddRemindersSent counts successful per-recipient deliveries.
func (s *MetricsService) AddRemindersSent(threshold string, n int) {
	s.remindersSent.WithLabelValues(threshold).Add(float64(n))
}

// AddReminderRecipientFailures counts per-recipient delivery failures.
func (s *MetricsService) AddReminderRecipientFailures(threshold string, n int) {
	s.recipientFailures.WithLabelValues(threshold).Add(float64(n))
}

// IncReminderDispatchErrors counts whole-batch dispatch failures.
func (s *MetricsService) IncReminderDispatchErrors(threshold string) {
	s.dispatchErrors.WithLabelValues(threshold).Inc()
}

// ObserveCacheLookup records a response-cache hit or miss.
func (s *MetricsService) ObserveCacheLookup(hit bool) {
	if hit {
		s.cacheHits.Inc()
		return
	}
	s.cacheMisses.Inc()
}
