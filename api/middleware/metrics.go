package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"example.com/backstage/services/farm/internal/metrics"
)

// Metrics records per-request counters and latency in the metrics collector
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metrics.GetMetricsCollector().RecordHTTPRequest(path, c.Writer.Status(), time.Since(start))
	}
}
