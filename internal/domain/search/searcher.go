package search

import (
	"context"
	"sort"

	"cmsearch/internal/core/id"
)

// Query is what a Searcher receives after the service has applied
// scope rewriting and limit normalization.
type Query struct {
	OrganizationID id.ID
	FilterGroups   []FilterGroup
	Search         string
	Sorts          []Sort
	Properties     []string
	Limit          int
	After          string
}

// Page is one keyset page produced by a Searcher.
type Page struct {
	Data       []Record
	NextCursor string
	HasMore    bool
}

// Searcher searches one entity collection.
type Searcher interface {
	EntityType() EntityType
	Search(ctx context.Context, q Query) (Page, error)
}

// PublishedScoped is implemented by searchers whose rows carry a
// publication status. The service uses it to restrict callers that may
// only read published content.
type PublishedScoped interface {
	// PublishedFilter is the filter selecting published rows.
	PublishedFilter() Filter
}

// Registry maps entity types to searchers. It is filled once at startup
// and read concurrently afterwards.
type Registry struct {
	searchers map[EntityType]Searcher
}

// NewRegistry creates a registry holding searchers.
func NewRegistry(searchers ...Searcher) *Registry {
	r := &Registry{searchers: make(map[EntityType]Searcher, len(searchers))}
	for _, s := range searchers {
		r.Register(s)
	}
	return r
}

// Register adds s, replacing any searcher for the same entity type.
func (r *Registry) Register(s Searcher) {
	r.searchers[s.EntityType()] = s
}

// Get returns the searcher for t.
func (r *Registry) Get(t EntityType) (Searcher, bool) {
	s, ok := r.searchers[t]
	return s, ok
}

// Types lists registered entity types in lexical order.
func (r *Registry) Types() []EntityType {
	types := make([]EntityType, 0, len(r.searchers))
	for t := range r.searchers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
