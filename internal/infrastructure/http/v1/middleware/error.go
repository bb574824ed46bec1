package middleware

import (
	"github.com/gin-gonic/gin"

	"cmsearch/internal/core/apperror"
	appctx "cmsearch/internal/core/context"
	"cmsearch/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		appErr, ok := apperror.AsAppError(err)
		if !ok {
			appErr = apperror.NewInternal(err)
		}
		if appErr.Err != nil {
			logger.Error(c.Request.Context(), "request error",
				"code", appErr.Code,
				"cause", appErr.Err,
			)
		}

		c.JSON(appErr.HTTPStatus, gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
			"details": responseDetails(c, appErr),
		})
	}
}

// responseDetails adds the request id to server-side failures so clients
// can quote it.
func responseDetails(c *gin.Context, appErr *apperror.AppError) map[string]any {
	if appErr.HTTPStatus < 500 {
		return appErr.Details
	}
	details := make(map[string]any, len(appErr.Details)+1)
	for k, v := range appErr.Details {
		details[k] = v
	}
	details["request_id"] = appctx.GetRequestID(c.Request.Context())
	return details
}
