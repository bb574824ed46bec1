// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// UserContext contains the authenticated caller.
// APIKey marks callers whose visibility is limited to Scopes; interactive
// sessions are not scope-restricted.
type UserContext struct {
	UserID         string
	OrganizationID string
	Email          string
	Scopes         []string
	APIKey         bool
	SessionID      string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}
