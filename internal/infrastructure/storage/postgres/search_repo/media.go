package search_repo

import "cmsearch/internal/domain/search"

var mediaTable = newTable(table{
	entity: search.EntityMedia,
	name:   "media",
	columns: []column{
		{property: "id", name: "id", kind: kindUUID},
		{property: "organizationId", name: "organization_id", kind: kindUUID},
		{property: "filename", name: "filename", kind: kindText},
		{property: "originalFilename", name: "original_filename", kind: kindText},
		{property: "mimeType", name: "mime_type", kind: kindText},
		{property: "fileSize", name: "file_size", kind: kindNumber},
		{property: "width", name: "width", kind: kindNumber},
		{property: "height", name: "height", kind: kindNumber},
		{property: "altText", name: "alt_text", kind: kindText},
		{property: "caption", name: "caption", kind: kindText},
		{property: "url", name: "url", kind: kindText},
		{property: "uploadedBy", name: "uploaded_by", kind: kindUUID},
		{property: "createdAt", name: "created_at", kind: kindTimestamp},
		{property: "updatedAt", name: "updated_at", kind: kindTimestamp},
	},
	searchable: []string{"filename", "altText", "caption"},
	defaults:   []string{"filename", "mimeType", "fileSize", "width", "height", "altText", "url", "createdAt"},
	orgScoped:  true,
})

// MediaSearcher searches the media library of one organization.
type MediaSearcher struct {
	*entitySearcher
}

// NewMediaSearcher creates a media searcher.
func NewMediaSearcher(db QuerierSource) *MediaSearcher {
	return &MediaSearcher{newEntitySearcher(mediaTable, db)}
}
