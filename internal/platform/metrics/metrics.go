// Package metrics provides Prometheus metric collection and exposure.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers the application's Prometheus metrics: HTTP traffic,
// notification fan-out, and live connection counts. It implements the hub's
// Metrics interface.
type Collector struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    prometheus.Histogram
	eventsPublished *prometheus.CounterVec
	connectedCount  prometheus.Gauge
}

// NewCollector creates a Collector backed by its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhive_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "status_code"}),
		httpDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskhive_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhive_events_published_total",
			Help: "Task lifecycle events published, by event name.",
		}, []string{"event"}),
		connectedCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskhive_connected_clients",
			Help: "Currently connected websocket clients.",
		}),
	}

	c.registry.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.eventsPublished,
		c.connectedCount,
	)

	return c
}

// RecordRequest counts one completed HTTP request.
func (c *Collector) RecordRequest(method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.Observe(duration.Seconds())
}

// EventPublished counts one published lifecycle event.
func (c *Collector) EventPublished(event string) {
	c.eventsPublished.WithLabelValues(event).Inc()
}

// ClientConnected increments the live connection gauge.
func (c *Collector) ClientConnected() {
	c.connectedCount.Inc()
}

// ClientDisconnected decrements the live connection gauge.
func (c *Collector) ClientDisconnected() {
	c.connectedCount.Dec()
}

// Handler returns the HTTP handler serving this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Middleware instruments an HTTP handler with request count and latency.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		c.RecordRequest(r.Method, sw.status, time.Since(start))
	})
}

// statusWriter captures the response status for instrumentation.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
