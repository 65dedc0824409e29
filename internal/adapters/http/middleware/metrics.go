package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OpsPrefix - префикс служебных endpoints, не пересекается с файлами.
const OpsPrefix = "/__devserver"

// Request kinds used as the "kind" label.
const (
	KindPage  = "page"
	KindAsset = "asset"
	KindOps   = "ops"
)

var (
	// httpRequestsTotal counts total HTTP requests
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devserver",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "kind", "status"},
	)

	// httpRequestDuration measures request latency
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "devserver",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "kind"},
	)

	// httpRequestsInFlight tracks concurrent requests
	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "devserver",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// httpResponseSize measures response body size
	httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "devserver",
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 7), // 100B to 100MB
		},
		[]string{"method", "kind"},
	)
)

// Page metrics
var (
	// PagesServedTotal counts HTML pages by whether the token was injected
	PagesServedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devserver",
			Subsystem: "pages",
			Name:      "served_total",
			Help:      "Total number of HTML pages served, by token injection",
		},
		[]string{"injected"},
	)

	// PageReadDuration measures page reads from disk
	PageReadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "devserver",
			Subsystem: "pages",
			Name:      "read_duration_seconds",
			Help:      "HTML page read duration in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
		[]string{"result"}, // ok, not_found, invalid_path, error
	)
)

// Metrics returns Prometheus metrics middleware
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip metrics endpoint
		if c.Request.URL.Path == OpsPrefix+"/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		kind := RequestKind(c.Request.URL.Path)
		method := c.Request.Method

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		httpRequestsTotal.WithLabelValues(method, kind, status).Inc()
		httpRequestDuration.WithLabelValues(method, kind).Observe(duration)
		httpResponseSize.WithLabelValues(method, kind).Observe(float64(max(c.Writer.Size(), 0)))
	}
}

// RequestKind классифицирует путь для label "kind".
//
// Путь файлов не используется как label: количество файлов не ограничено.
func RequestKind(path string) string {
	switch {
	case path == OpsPrefix || strings.HasPrefix(path, OpsPrefix+"/"):
		return KindOps
	case path == "/" || strings.HasSuffix(path, ".html"):
		return KindPage
	default:
		return KindAsset
	}
}

// RecordInjection records a served HTML page
func RecordInjection(injected bool) {
	PagesServedTotal.WithLabelValues(strconv.FormatBool(injected)).Inc()
}

// RecordPageRead records an HTML page read
func RecordPageRead(result string, duration time.Duration) {
	PageReadDuration.WithLabelValues(result).Observe(duration.Seconds())
}
