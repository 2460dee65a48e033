package monitoring

import (
	"time"

	"github.com/gin-gonic/gin"
)

// MonitoringMiddleware records request metrics and logs each request.
func MonitoringMiddleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.IncrementRequest()

		c.Next()

		duration := time.Since(start)
		metrics.RecordResponseTime(duration)

		statusCode := c.Writer.Status()
		if statusCode >= 400 {
			metrics.IncrementError()
		}

		logger.RequestLogger(
			c.Request.Method,
			c.Request.URL.Path,
			c.ClientIP(),
			statusCode,
			duration,
		)
	}
}
