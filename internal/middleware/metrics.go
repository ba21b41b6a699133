package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/search-facade/internal/metrics"
)

// Metrics records every request under its route template, so /api/index/poco/1 and
// /api/index/poco/2 share one series. Unmatched routes are recorded as "unmatched".
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.RequestStarted()
		defer m.RequestFinished()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
