package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"cmsearch/internal/core/apperror"
	appctx "cmsearch/internal/core/context"
	"cmsearch/internal/core/security"
)

const callerKey = "caller"

// JWTValidator interface for token validation.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth middleware validates JWT tokens, populates user context and
// resolves the search caller. The organization always comes from the
// token, never from request headers or body.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract token from Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		// Check Bearer prefix
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		user, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid token").WithCause(err))
			c.Abort()
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)

		caller, ok := security.CallerFromContext(ctx)
		if !ok {
			abortUnauthorized(c, "token carries no organization")
			return
		}

		// Store in gin context for easy access
		c.Set("user_id", user.UserID)
		c.Set(callerKey, caller)

		c.Next()
	}
}

// GetCaller returns the caller resolved by Auth.
func GetCaller(c *gin.Context) (security.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return security.Caller{}, false
	}
	caller, ok := v.(security.Caller)
	return caller, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
