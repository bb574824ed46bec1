package search_repo

import "cmsearch/internal/domain/search"

// postStatusPublished is the status visible to published-only callers.
const postStatusPublished = "published"

var postsTable = newTable(table{
	entity: search.EntityPosts,
	name:   "posts",
	columns: []column{
		{property: "id", name: "id", kind: kindUUID},
		{property: "organizationId", name: "organization_id", kind: kindUUID},
		{property: "title", name: "title", kind: kindText},
		{property: "slug", name: "slug", kind: kindText},
		{property: "content", name: "content", kind: kindText},
		{property: "excerpt", name: "excerpt", kind: kindText},
		{property: "status", name: "status", kind: kindText},
		{property: "authorId", name: "author_id", kind: kindUUID},
		{property: "parentId", name: "parent_id", kind: kindUUID},
		{property: "featuredImageId", name: "featured_image_id", kind: kindUUID},
		{property: "publishedAt", name: "published_at", kind: kindTimestamp},
		{property: "createdAt", name: "created_at", kind: kindTimestamp},
		{property: "updatedAt", name: "updated_at", kind: kindTimestamp},
	},
	searchable:   []string{"title", "content", "excerpt"},
	defaults:     []string{"title", "slug", "excerpt", "status", "authorId", "publishedAt", "createdAt", "updatedAt"},
	orgScoped:    true,
	customFields: true,
})

// PostsSearcher searches posts of one organization, including their
// custom field values.
type PostsSearcher struct {
	*entitySearcher
}

// NewPostsSearcher creates a posts searcher.
func NewPostsSearcher(db QuerierSource) *PostsSearcher {
	return &PostsSearcher{newEntitySearcher(postsTable, db)}
}

// PublishedFilter implements search.PublishedScoped.
func (s *PostsSearcher) PublishedFilter() search.Filter {
	return search.Filter{Property: "status", Operator: search.OpEqual, Value: postStatusPublished}
}
