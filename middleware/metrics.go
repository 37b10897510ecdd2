package middleware

import (
	"context"
	"time"

	aws_pkg "github.com/SujaySAK777/StreamIQ/pkg/aws"
	"github.com/gin-gonic/gin"
)

// HTTPMetrics is the metrics surface used by MetricsMiddleware.
type HTTPMetrics interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
	RecordLatency(ctx context.Context, metricName string, duration time.Duration, dimensions map[string]string) error
	IsEnabled() bool
}

// MetricsMiddleware records request count, latency and 5xx errors.
func MetricsMiddleware(metrics HTTPMetrics, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil || !metrics.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		dimensions := map[string]string{
			"Service": serviceName,
			"Method":  c.Request.Method,
			"Path":    c.FullPath(),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_ = metrics.RecordCount(ctx, aws_pkg.MetricHTTPRequests, dimensions)
			_ = metrics.RecordLatency(ctx, aws_pkg.MetricHTTPLatency, duration, dimensions)
			if status >= 500 {
				_ = metrics.RecordCount(ctx, aws_pkg.MetricHTTP5xx, dimensions)
			}
		}()
	}
}
