package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cmsearch/pkg/logger"
)

// Logger middleware logs HTTP requests with timing and status.
// Probe endpoints under /health are logged at debug level only.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		// package-level logger calls further down use this logger
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log))

		c.Next()

		kv := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"bytes", c.Writer.Size(),
			"client_ip", c.ClientIP(),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			kv = append(kv, "error", errs)
		}

		l := log.WithContext(c.Request.Context())
		switch {
		case strings.HasPrefix(path, "/health"):
			l.Debugw("http request", kv...)
		case c.Writer.Status() >= 500:
			l.Errorw("http request", kv...)
		default:
			l.Infow("http request", kv...)
		}
	}
}
