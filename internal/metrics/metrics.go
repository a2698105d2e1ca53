// Package metrics exposes the Prometheus collectors for draws, notifications and HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	drawCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "subscriber_draw",
			Subsystem: "draw",
			Name:      "cycles_total",
			Help:      "Draw cycles run, by outcome status and trigger.",
		},
		[]string{"status", "trigger"},
	)

	drawPool = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "subscriber_draw",
			Subsystem: "draw",
			Name:      "last_pool_minor_units",
			Help:      "Prize pool of the most recent completed draw, in minor currency units.",
		},
	)

	drawEligible = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "subscriber_draw",
			Subsystem: "draw",
			Name:      "last_eligible_subscribers",
			Help:      "Eligible subscribers seen by the most recent draw or preflight.",
		},
	)

	drawDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "subscriber_draw",
			Subsystem: "draw",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a draw cycle including command execution.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	preflightChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "subscriber_draw",
			Subsystem: "draw",
			Name:      "preflight_checks_total",
			Help:      "Preflight sufficiency checks, by result.",
		},
		[]string{"sufficient"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "subscriber_draw",
			Subsystem: "notifier",
			Name:      "messages_total",
			Help:      "Outbound notifications, by type and delivery status.",
		},
		[]string{"type", "status"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "subscriber_draw",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "subscriber_draw",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)
)

func init() {
	Registry.MustRegister(
		drawCycles,
		drawPool,
		drawEligible,
		drawDuration,
		preflightChecks,
		notifications,
		httpRequests,
		httpDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordCycle records the outcome of one draw cycle
func RecordCycle(status, trigger string, eligible int, pool int64, elapsed time.Duration) {
	drawCycles.WithLabelValues(status, trigger).Inc()
	drawEligible.Set(float64(eligible))
	if pool > 0 {
		drawPool.Set(float64(pool))
	}
	drawDuration.Observe(elapsed.Seconds())
}

// RecordPreflight records a preflight check
func RecordPreflight(eligible int, sufficient bool) {
	preflightChecks.WithLabelValues(strconv.FormatBool(sufficient)).Inc()
	drawEligible.Set(float64(eligible))
}

// RecordNotification records one outbound notification attempt
func RecordNotification(notificationType, status string) {
	notifications.WithLabelValues(notificationType, status).Inc()
}

// GinMiddleware collects request counts and latency per route template
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		if path == "/metrics" {
			return
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
