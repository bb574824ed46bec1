package search_repo

import "cmsearch/internal/domain/search"

var taxonomiesTable = newTable(table{
	entity: search.EntityTaxonomies,
	name:   "taxonomies",
	columns: []column{
		{property: "id", name: "id", kind: kindUUID},
		{property: "organizationId", name: "organization_id", kind: kindUUID},
		{property: "name", name: "name", kind: kindText},
		{property: "slug", name: "slug", kind: kindText},
		{property: "description", name: "description", kind: kindText},
		{property: "parentId", name: "parent_id", kind: kindUUID},
		{property: "createdAt", name: "created_at", kind: kindTimestamp},
		{property: "updatedAt", name: "updated_at", kind: kindTimestamp},
	},
	searchable: []string{"name", "slug", "description"},
	defaults:   []string{"name", "slug", "description", "parentId", "createdAt"},
	orgScoped:  true,
})

// TaxonomiesSearcher searches taxonomy terms of one organization.
type TaxonomiesSearcher struct {
	*entitySearcher
}

// NewTaxonomiesSearcher creates a taxonomies searcher.
func NewTaxonomiesSearcher(db QuerierSource) *TaxonomiesSearcher {
	return &TaxonomiesSearcher{newEntitySearcher(taxonomiesTable, db)}
}
