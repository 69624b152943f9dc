package middleware

import (
	"errors"
	"strconv"
	"time"

	"messagely/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status", "service"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "service"},
	)

	messageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "message_operations_total",
			Help: "Total number of message store operations",
		},
		[]string{"operation", "status"},
	)

	messageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "message_operation_duration_seconds",
			Help:    "Duration of message store operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	messageOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "message_operation_errors_total",
			Help: "Total number of message store operation errors",
		},
		[]string{"operation", "error_type"},
	)
)

func PrometheusMiddleware(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			status,
			serviceName,
		).Inc()

		httpRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			serviceName,
		).Observe(duration)
	}
}

// RecordMessageOperation учитывает вызов хранилища сообщений. error_type - HTTP-статус
// AppError либо "internal", чтобы не раздувать кардинальность текстами ошибок.
func RecordMessageOperation(operation string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	messageOperationsTotal.WithLabelValues(operation, status).Inc()
	messageOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())

	if err != nil {
		errorType := "internal"
		var appErr *services.AppError
		if errors.As(err, &appErr) {
			errorType = strconv.Itoa(appErr.Status)
		}
		messageOperationErrors.WithLabelValues(operation, errorType).Inc()
	}
}
