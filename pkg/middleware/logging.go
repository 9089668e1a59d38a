package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forkful/forkful/backend/pkg/logger"
	"github.com/forkful/forkful/backend/pkg/metrics"
)

// RequestLogger logs one structured line per request and observes its
// latency.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
		}
		if uid := UserID(c); !uid.IsZero() {
			args = append(args, "user_id", uid.Hex())
		}
		log := logger.With(args...)
		switch {
		case status >= 500:
			log.Error("request")
		case status >= 400:
			log.Warn("request")
		default:
			log.Info("request")
		}
	}
}
