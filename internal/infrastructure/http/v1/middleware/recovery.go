// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"cmsearch/internal/core/apperror"
	"cmsearch/pkg/logger"
)

// Recovery turns a panic in a handler into a 500. It runs outside
// ErrorHandler, so it writes the response itself. The stack trace is
// logged, never returned.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error(c.Request.Context(), "panic recovered",
				"panic", rec,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"stack", string(debug.Stack()),
			)
			appErr := apperror.NewInternal(fmt.Errorf("panic: %v", rec))
			_ = c.Error(appErr)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": responseDetails(c, appErr),
			})
		}()
		c.Next()
	}
}
