package search

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmsearch/internal/core/apperror"
	"cmsearch/internal/core/id"
	"cmsearch/internal/core/security"
)

type fakeSearcher struct {
	entity  EntityType
	page    Page
	err     error
	queries []Query
}

func (f *fakeSearcher) EntityType() EntityType { return f.entity }

func (f *fakeSearcher) Search(_ context.Context, q Query) (Page, error) {
	f.queries = append(f.queries, q)
	return f.page, f.err
}

// fakePostsSearcher adds the published scope like the real posts searcher.
type fakePostsSearcher struct {
	fakeSearcher
}

func (f *fakePostsSearcher) PublishedFilter() Filter {
	return Filter{Property: "status", Operator: OpEqual, Value: "published"}
}

type fakeTxManager struct {
	calls int
}

func (m *fakeTxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

var (
	fullCaller = security.Caller{UserID: "u1", OrganizationID: id.MustParse("0190b5a4-7c1e-7000-8000-00000000a001")}
	keyCaller  = func(scopes ...string) security.Caller {
		c := fullCaller
		c.Restricted = true
		c.Scopes = scopes
		return c
	}
)

func newTestService(searchers ...Searcher) (*Service, *fakeTxManager) {
	txm := &fakeTxManager{}
	return NewService(NewRegistry(searchers...), txm, DefaultConfig()), txm
}

func TestService_UnsupportedEntityType(t *testing.T) {
	svc, txm := newTestService(&fakeSearcher{entity: EntityMedia})

	_, err := svc.Search(context.Background(), fullCaller, Request{EntityType: "comments"})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnsupportedEntityType))
	assert.Equal(t, 400, apperror.GetHTTPStatus(err))
	assert.Contains(t, err.Error(), "Unsupported entity type: comments")
	assert.Zero(t, txm.calls)
}

func TestService_PassesQueryThrough(t *testing.T) {
	media := &fakeSearcher{
		entity: EntityMedia,
		page: Page{
			Data:       []Record{{"id": "m2"}, {"id": "m1"}},
			NextCursor: "next",
			HasMore:    true,
		},
	}
	svc, txm := newTestService(media)

	req := Request{
		EntityType:   EntityMedia,
		FilterGroups: []FilterGroup{{Operator: GroupAnd, Filters: []Filter{{Property: "mimeType", Operator: OpStartsWith, Value: "image/"}}}},
		Search:       "cat",
		Sorts:        []Sort{{Property: "createdAt", Direction: SortDesc}},
		Properties:   []string{"filename"},
		Limit:        2,
		After:        "cursor",
	}
	res, err := svc.Search(context.Background(), fullCaller, req)
	require.NoError(t, err)

	require.Len(t, media.queries, 1)
	assert.Equal(t, Query{
		OrganizationID: fullCaller.OrganizationID,
		FilterGroups:   req.FilterGroups,
		Search:         "cat",
		Sorts:          req.Sorts,
		Properties:     req.Properties,
		Limit:          2,
		After:          "cursor",
	}, media.queries[0])
	assert.Equal(t, 1, txm.calls)

	assert.Equal(t, EntityMedia, res.EntityType)
	assert.Equal(t, media.page.Data, res.Results)
	assert.Equal(t, Pagination{Limit: 2, HasMore: true, NextCursor: "next"}, res.Pagination)
}

func TestService_LimitNormalization(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 20},
		{-5, 20},
		{1, 1},
		{100, 100},
		{101, 100},
		{5000, 100},
	}

	for _, tt := range tests {
		media := &fakeSearcher{entity: EntityMedia}
		svc, _ := newTestService(media)

		res, err := svc.Search(context.Background(), fullCaller, Request{EntityType: EntityMedia, Limit: tt.in})
		require.NoError(t, err)
		assert.Equal(t, tt.want, res.Pagination.Limit, "limit %d", tt.in)
		assert.Equal(t, tt.want, media.queries[0].Limit, "limit %d", tt.in)
	}
}

func TestService_AllNarrowsToPosts(t *testing.T) {
	posts := &fakePostsSearcher{fakeSearcher{entity: EntityPosts, page: Page{Data: []Record{{"id": "p1"}}}}}
	svc, _ := newTestService(posts, &fakeSearcher{entity: EntityMedia})

	res, err := svc.Search(context.Background(), fullCaller, Request{EntityType: EntityAll})
	require.NoError(t, err)

	assert.Len(t, posts.queries, 1)
	// The envelope names the collection that was actually searched.
	assert.Equal(t, EntityPosts, res.EntityType)
	assert.Len(t, res.Results, 1)
}

func TestService_EmptyPageHasNoCursor(t *testing.T) {
	media := &fakeSearcher{entity: EntityMedia, page: Page{NextCursor: "stale"}}
	svc, _ := newTestService(media)

	res, err := svc.Search(context.Background(), fullCaller, Request{EntityType: EntityMedia})
	require.NoError(t, err)

	assert.NotNil(t, res.Results)
	assert.Empty(t, res.Results)
	assert.False(t, res.Pagination.HasMore)
	assert.Empty(t, res.Pagination.NextCursor)
}

func TestService_SearcherErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	svc, _ := newTestService(&fakeSearcher{entity: EntityUsers, err: boom})

	_, err := svc.Search(context.Background(), fullCaller, Request{EntityType: EntityUsers})
	assert.ErrorIs(t, err, boom)
	assert.True(t, apperror.IsCode(err, apperror.CodeInternal))
	assert.Equal(t, http.StatusInternalServerError, apperror.GetHTTPStatus(err))
}

func TestService_StructuredSearcherErrorsAreKept(t *testing.T) {
	timeout := apperror.NewTimeout(errors.New("canceling statement due to statement timeout"))
	svc, _ := newTestService(&fakeSearcher{entity: EntityUsers, err: timeout})

	_, err := svc.Search(context.Background(), fullCaller, Request{EntityType: EntityUsers})
	assert.Same(t, timeout, err)
	assert.Equal(t, http.StatusGatewayTimeout, apperror.GetHTTPStatus(err))
}

func TestService_PublishedOnlyCaller(t *testing.T) {
	published := Filter{Property: "status", Operator: OpEqual, Value: "published"}
	draft := Filter{Property: "status", Operator: OpEqual, Value: "draft"}
	title := Filter{Property: "title", Operator: OpContains, Value: "go"}

	tests := []struct {
		name   string
		groups []FilterGroup
		want   []FilterGroup
	}{
		{
			name: "NoGroups",
			want: []FilterGroup{{Operator: GroupAnd, Filters: []Filter{published}}},
		},
		{
			name:   "FirstGroupAnd",
			groups: []FilterGroup{{Operator: GroupAnd, Filters: []Filter{title}}},
			want:   []FilterGroup{{Operator: GroupAnd, Filters: []Filter{title, published}}},
		},
		{
			name: "FirstGroupOr",
			groups: []FilterGroup{
				{Operator: GroupOr, Filters: []Filter{title, draft}},
			},
			want: []FilterGroup{
				{Operator: GroupAnd, Filters: []Filter{published}},
				{Operator: GroupOr, Filters: []Filter{title, draft}},
			},
		},
		{
			name: "LaterGroupsKept",
			groups: []FilterGroup{
				{Filters: []Filter{title}},
				{Operator: GroupOr, Filters: []Filter{draft}},
			},
			want: []FilterGroup{
				{Operator: GroupAnd, Filters: []Filter{title, published}},
				{Operator: GroupOr, Filters: []Filter{draft}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts := &fakePostsSearcher{fakeSearcher{entity: EntityPosts}}
			svc, _ := newTestService(posts)

			req := Request{EntityType: EntityPosts, FilterGroups: tt.groups}
			before := cloneGroups(tt.groups)

			_, err := svc.Search(context.Background(), keyCaller("posts:read:published"), req)
			require.NoError(t, err)

			require.Len(t, posts.queries, 1)
			assert.Equal(t, tt.want, posts.queries[0].FilterGroups)
			assert.Equal(t, before, req.FilterGroups, "request must not be mutated")
		})
	}
}

func TestService_PublishedOnlyPostFilter(t *testing.T) {
	posts := &fakePostsSearcher{fakeSearcher{
		entity: EntityPosts,
		page: Page{Data: []Record{
			{"id": "p3", "status": "published"},
			{"id": "p2", "status": "draft"},
			{"id": "p1"},
		}},
	}}
	svc, _ := newTestService(posts)

	res, err := svc.Search(context.Background(), keyCaller("posts:read:published"), Request{EntityType: EntityPosts})
	require.NoError(t, err)

	assert.Equal(t, []Record{{"id": "p3", "status": "published"}, {"id": "p1"}}, res.Results)
}

func TestService_ScopeResolution(t *testing.T) {
	tests := []struct {
		name        string
		caller      security.Caller
		entity      EntityType
		wantQueries int
		wantGroups  int
	}{
		{"SessionUserUnrestricted", fullCaller, EntityPosts, 1, 0},
		{"KeyWithFullRead", keyCaller("posts:read"), EntityPosts, 1, 0},
		{"KeyWithBothScopesGetsFullRead", keyCaller("posts:read:published", "posts:read"), EntityPosts, 1, 0},
		{"KeyWithoutPostsScope", keyCaller("media:read"), EntityPosts, 0, 0},
		{"KeyWithoutScopeOnUnscopedEntity", keyCaller(), EntityMedia, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts := &fakePostsSearcher{fakeSearcher{entity: EntityPosts, page: Page{Data: []Record{{"id": "p1"}}, HasMore: true, NextCursor: "c"}}}
			media := &fakeSearcher{entity: EntityMedia}
			svc, txm := newTestService(posts, media)

			res, err := svc.Search(context.Background(), tt.caller, Request{EntityType: tt.entity})
			require.NoError(t, err)

			queries := posts.queries
			if tt.entity == EntityMedia {
				queries = media.queries
			}
			require.Len(t, queries, tt.wantQueries)
			if tt.wantQueries == 0 {
				assert.Zero(t, txm.calls)
				assert.Empty(t, res.Results)
				assert.False(t, res.Pagination.HasMore)
				assert.Empty(t, res.Pagination.NextCursor)
				return
			}
			assert.Len(t, queries[0].FilterGroups, tt.wantGroups)
		})
	}
}

func cloneGroups(groups []FilterGroup) []FilterGroup {
	if groups == nil {
		return nil
	}
	out := make([]FilterGroup, len(groups))
	for i, g := range groups {
		out[i] = FilterGroup{Operator: g.Operator, Filters: append([]Filter(nil), g.Filters...)}
	}
	return out
}
