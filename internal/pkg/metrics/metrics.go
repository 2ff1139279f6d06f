// internal/pkg/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestDuration observes HTTP request latency per route
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method, route, and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// OrdersConfirmed counts successfully confirmed orders
	OrdersConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_confirmed_total",
		Help: "Number of orders confirmed.",
	})

	// PaymentsRecorded counts successfully recorded payments
	PaymentsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_recorded_total",
		Help: "Number of payments recorded.",
	})

	// CartOperations counts cart mutations by operation and outcome
	CartOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart operations by type and result.",
	}, []string{"operation", "result"})

	// ActionsEnqueued counts behavioral events pushed onto the queue
	ActionsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "user_actions_enqueued_total",
		Help: "User actions enqueued by type.",
	}, []string{"action"})

	// RecommendRebuildDuration observes model rebuild time
	RecommendRebuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommendation_rebuild_duration_seconds",
		Help:    "Duration of recommendation model rebuilds.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)

// Handler exposes the Prometheus scrape endpoint as a gin handler
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// Middleware records request latency for every route
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestDuration.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
