package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opencampus/registrar-api/internal/service"
)

// Metrics observes every finished request. The route template is used as
// the path label so /students/:id stays one series regardless of the ID.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			// Unrouted requests (404s) would explode label cardinality
			// if we used the raw path.
			path = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
