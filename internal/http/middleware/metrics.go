// Package middleware – Metrics
//
// Prometheus instrumentation for the dashboard API. Labels are bounded: the
// path label is the registered Gin route, or "unmatched" when no route
// matched, so scanners cannot inflate cardinality.
//
// Handlers that served a degraded payload (some remote counts failed) call
// MarkPartial; those responses are additionally counted in
// glpi_dashboard_partial_responses_total.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const partialKey = "partial"

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glpi_dashboard_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "glpi_dashboard_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds.",
			// Cold dashboard and ranking computations fan out to the remote
			// API and can take tens of seconds.
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "glpi_dashboard_http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	partialResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glpi_dashboard_partial_responses_total",
			Help: "Responses served with partial remote data.",
		},
		[]string{"path"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, partialResponses)
}

// MarkPartial flags the response as computed from incomplete remote data.
func MarkPartial(c *gin.Context) { c.Set(partialKey, true) }

// IsPartial reports whether MarkPartial was called for this request.
func IsPartial(c *gin.Context) bool {
	v, ok := c.Get(partialKey)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Metrics returns the Prometheus middleware.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := routeLabel(c)
		method := c.Request.Method
		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		if IsPartial(c) {
			partialResponses.WithLabelValues(path).Inc()
		}
	}
}

func routeLabel(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return "unmatched"
}
