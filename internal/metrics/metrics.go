package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

var (
	CartOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_operations_total",
		Help:      "Cart mutations by operation and backing store.",
	}, []string{"operation", "store"})

	FavoriteOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "favorite_operations_total",
		Help:      "Favorites mutations by operation and backing store.",
	}, []string{"operation", "store"})

	GuestMerges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guest_merges_total",
		Help:      "Guest state transfers by part and outcome.",
	}, []string{"part", "outcome"})

	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Orders materialized from carts.",
	})

	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Order status changes by target status.",
	}, []string{"to"})

	VerificationsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_verifications_submitted_total",
		Help:      "Payment verifications submitted by customers.",
	})

	VerificationsReviewed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_verifications_reviewed_total",
		Help:      "Payment verification reviews by decision.",
	}, []string{"decision"})

	NonCriticalFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "non_critical_failures_total",
		Help:      "Best-effort tasks that failed without failing the request.",
	}, []string{"task"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// StoreLabel names the backing store for a guest or user owner.
func StoreLabel(guest bool) string {
	if guest {
		return "session"
	}
	return "ledger"
}

// GinMiddleware records request latency per matched route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
