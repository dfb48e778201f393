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

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mindtrack",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mindtrack",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mindtrack",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	entryWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mindtrack",
			Subsystem: "entries",
			Name:      "writes_total",
			Help:      "Entry writes by kind and operation.",
		},
		[]string{"kind", "op"},
	)

	activeUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mindtrack",
			Subsystem: "entries",
			Name:      "active_users",
			Help:      "Distinct users with an entry in the last 30 days.",
		},
	)

	totalEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mindtrack",
			Subsystem: "entries",
			Name:      "total",
			Help:      "Lifetime entry count by kind.",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		entryWrites,
		activeUsers,
		totalEntries,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler exposes the registered collectors.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func EntryWritten(kind, op string) {
	entryWrites.WithLabelValues(kind, op).Inc()
}

// SetOverview publishes the figures of the latest admin overview.
func SetOverview(active, mood, sleep int64) {
	activeUsers.Set(float64(active))
	totalEntries.WithLabelValues("mood").Set(float64(mood))
	totalEntries.WithLabelValues("sleep").Set(float64(sleep))
}
