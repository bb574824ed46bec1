// Package security provides caller identity and scope checks.
package security

import (
	"context"

	appctx "cmsearch/internal/core/context"
	"cmsearch/internal/core/id"
)

// Scope suffixes understood by the search engine. Full names are
// "<entity>:read" and "<entity>:read:published".
const (
	ScopeRead          = "read"
	ScopeReadPublished = "read:published"
)

// Visibility is what a caller may see of one entity type.
type Visibility int

const (
	// VisibilityNone: restricted caller without any read scope.
	VisibilityNone Visibility = iota
	// VisibilityPublished: restricted caller limited to published content.
	VisibilityPublished
	// VisibilityFull: unrestricted read.
	VisibilityFull
)

// Caller is the identity a search runs on behalf of.
type Caller struct {
	UserID         string
	OrganizationID id.ID

	// Scopes is only consulted when Restricted is set (API-key callers).
	Scopes     []string
	Restricted bool
}

// HasScope reports whether name is present in scopes.
func HasScope(scopes []string, name string) bool {
	for _, s := range scopes {
		if s == name {
			return true
		}
	}
	return false
}

// ScopeName builds "<entity>:<suffix>".
func ScopeName(entity, suffix string) string {
	return entity + ":" + suffix
}

// VisibilityFor resolves the caller's visibility of an entity type.
func (c Caller) VisibilityFor(entity string) Visibility {
	if !c.Restricted {
		return VisibilityFull
	}
	if HasScope(c.Scopes, ScopeName(entity, ScopeRead)) {
		return VisibilityFull
	}
	if HasScope(c.Scopes, ScopeName(entity, ScopeReadPublished)) {
		return VisibilityPublished
	}
	return VisibilityNone
}

// CallerFromContext builds a Caller from the authenticated user in ctx.
// ok is false when there is no user or its organization id is not a
// non-nil UUID.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	user := appctx.GetUser(ctx)
	if user == nil {
		return Caller{}, false
	}
	orgID, err := id.Parse(user.OrganizationID)
	if err != nil || id.IsNil(orgID) {
		return Caller{}, false
	}
	return Caller{
		UserID:         user.UserID,
		OrganizationID: orgID,
		Scopes:         user.Scopes,
		Restricted:     user.APIKey,
	}, true
}
