package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tastemichigan/api-go/metrics"
)

const RequestIDHeader = "X-Request-ID"

type ctxKey string

const requestIDKey ctxKey = "request_id"

// RequestID reuses an upstream X-Request-ID or mints one, and attaches a
// request-scoped logger to the context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set(string(requestIDKey), requestID)

		logger := log.With().Str("request_id", requestID).Logger()
		ctx := context.WithValue(c.Request.Context(), requestIDKey, requestID)
		c.Request = c.Request.WithContext(logger.WithContext(ctx))

		c.Next()
	}
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestLogger writes one structured line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		logger := log.Ctx(c.Request.Context())
		event := logger.Info()
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

// Metrics records request counts and latency labelled by route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.APIActiveRequests.Inc()
		defer metrics.APIActiveRequests.Dec()

		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordAPIRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start))
	}
}
