package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sliea/antennadesk/internal/metrics"
)

// Instrument records duration and count per route pattern. Routes listed in
// skip (long-lived streams, health checks) are passed through unmeasured.
func Instrument(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, s := range skip {
		skipped[s] = struct{}{}
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if _, ok := skipped[route]; ok {
			c.Next()

			return
		}

		if route == "" {
			route = "unmatched"
		}

		metrics.HTTPInFlight.Inc()
		start := time.Now()

		c.Next()

		metrics.HTTPInFlight.Dec()

		status := strconv.Itoa(c.Writer.Status())
		metrics.RequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}
