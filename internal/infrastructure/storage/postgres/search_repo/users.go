package search_repo

import "cmsearch/internal/domain/search"

// Users are global; membership filtering happens outside the engine.
// password_hash is deliberately absent from the catalog.
var usersTable = newTable(table{
	entity: search.EntityUsers,
	name:   "users",
	columns: []column{
		{property: "id", name: "id", kind: kindUUID},
		{property: "name", name: "name", kind: kindText},
		{property: "email", name: "email", kind: kindText},
		{property: "emailVerified", name: "email_verified", kind: kindBool},
		{property: "createdAt", name: "created_at", kind: kindTimestamp},
		{property: "updatedAt", name: "updated_at", kind: kindTimestamp},
	},
	searchable: []string{"name", "email"},
	defaults:   []string{"name", "email", "emailVerified", "createdAt"},
})

// UsersSearcher searches user accounts.
type UsersSearcher struct {
	*entitySearcher
}

// NewUsersSearcher creates a users searcher.
func NewUsersSearcher(db QuerierSource) *UsersSearcher {
	return &UsersSearcher{newEntitySearcher(usersTable, db)}
}
