package middleware

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"yayasan/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics updates the HTTP request collectors.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		elapsed := float64(time.Since(start)) / float64(time.Second)

		// Replace URL parameters with their name to keep label cardinality low
		url := c.FullPath()
		if url == "" {
			url = c.Request.URL.Path
			for _, p := range c.Params {
				url = strings.Replace(url, p.Value, fmt.Sprintf(":%s", p.Key), 1)
			}
		}

		metrics.RequestDuration.WithLabelValues(status, c.Request.Method, url).Observe(elapsed)
		metrics.RequestCount.WithLabelValues(status, c.Request.Method, url).Inc()
	}
}
