package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_service_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkout_service_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	cartOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_service_cart_operations_total",
			Help: "Total number of cart and payment operations",
		},
		[]string{"operation", "status"},
	)

	cartLinesAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_service_cart_lines_added_total",
			Help: "Total number of cart lines appended",
		},
	)
)

// PrometheusMiddleware 收集 Prometheus 指标
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
	}
}

// RecordCartOperation 记录购物车/支付操作指标
func RecordCartOperation(operation string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	cartOperations.WithLabelValues(operation, status).Inc()
}

func RecordLinesAdded(n int) {
	if n > 0 {
		cartLinesAdded.Add(float64(n))
	}
}

// RegisterGauges exposes live counts read at scrape time. Call once per
// process.
func RegisterGauges(activeSessions, activeConnections func() int) {
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "checkout_service_active_sessions",
			Help: "Number of cart sessions held in memory",
		},
		func() float64 { return float64(activeSessions()) },
	)
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "checkout_service_websocket_connections",
			Help: "Number of connected notification clients",
		},
		func() float64 { return float64(activeConnections()) },
	)
}
