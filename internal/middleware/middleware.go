package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
)

type contextKey string

// RequestIDKey carries the request id through context.Context so clients
// and publishers can forward it.
const RequestIDKey contextKey = "request_id"

const HeaderRequestID = "X-Request-ID"

// RequestID assigns every request an id, reusing an inbound one when given.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(string(RequestIDKey), id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), RequestIDKey, id))
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestIDFrom returns the request id stored in ctx, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Logger writes one structured line per request.
func Logger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logging.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": RequestIDFrom(c.Request.Context()),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case c.Writer.Status() >= 500:
			logger.Error("Request failed", fields)
		case c.Writer.Status() >= 400:
			logger.Warn("Request rejected", fields)
		default:
			logger.Info("Request handled", fields)
		}
	}
}
