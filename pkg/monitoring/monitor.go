package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slidereview",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "slidereview",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// SubmissionCounter tracks case submissions by outcome so reviewer
	// throughput and skip rates show up on the dashboard.
	SubmissionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slidereview",
			Name:      "case_submissions_total",
			Help:      "Case submissions by action",
		},
		[]string{"action"},
	)

	AnonymousSessionCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "slidereview",
			Name:      "anonymous_sessions_total",
			Help:      "Shadow users created for anonymous observers",
		},
	)

	MailCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slidereview",
			Name:      "mail_sent_total",
			Help:      "Outbound mail by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(SubmissionCounter)
	prometheus.MustRegister(AnonymousSessionCounter)
	prometheus.MustRegister(MailCounter)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
