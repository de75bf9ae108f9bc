// internal/middleware/logging_middleware.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"weighbridge-service/internal/utils"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware stores the caller's X-Request-ID, or a fresh UUID, as "request_id"
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggingMiddleware logs every request after it completes
func LoggingMiddleware(logger *utils.ServiceLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		logger.LogAPIRequest(
			c.Request.Method,
			c.Request.URL.Path,
			c.ClientIP(),
			c.GetString("request_id"),
			c.Writer.Status(),
			time.Since(startTime),
		)
	}
}
