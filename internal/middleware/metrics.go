package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/industria/api/internal/metrics"
)

// Metrics records the duration of every request by method, route and status.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTPRequest(c.Request.Method, routeOf(c), c.Writer.Status(), start)
	}
}
