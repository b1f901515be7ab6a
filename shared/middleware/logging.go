package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/outofforest/logger"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id back to the caller.
const RequestIDHeader = "X-Request-ID"

// LoggingMiddleware attaches a request-scoped logger to the request context
// and logs the start and completion of every request.
func LoggingMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		reqLog := log.With(zap.String("requestId", requestID), zap.String("endpoint", endpoint))
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), reqLog))

		reqLog.Info("Request started",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path))

		start := time.Now()
		c.Next()

		reqLog.Info("Request completed",
			zap.Int64("elapsedMs", time.Since(start).Milliseconds()),
			zap.Int("status", c.Writer.Status()))
	}
}
