package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmsearch/internal/core/apperror"
	appctx "cmsearch/internal/core/context"
	"cmsearch/internal/core/id"
	"cmsearch/internal/core/security"
	"cmsearch/internal/domain/search"
	"cmsearch/pkg/logger"
)

var testOrg = id.MustParse("0190b5a4-7c1e-7000-8000-00000000a001")

type fakeValidator struct{}

func (fakeValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	switch token {
	case "session":
		return &appctx.UserContext{UserID: "u1", OrganizationID: testOrg.String()}, nil
	case "key":
		return &appctx.UserContext{UserID: "k1", OrganizationID: testOrg.String(), APIKey: true, Scopes: []string{"posts:read:published"}}, nil
	case "no-org":
		return &appctx.UserContext{UserID: "u2"}, nil
	}
	return nil, errors.New("bad token")
}

type fakeSearch struct {
	caller security.Caller
	req    search.Request
	res    *search.Result
	err    error
}

func (f *fakeSearch) Search(_ context.Context, caller security.Caller, req search.Request) (*search.Result, error) {
	f.caller, f.req = caller, req
	return f.res, f.err
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newTestRouter(svc *fakeSearch, db fakePinger) http.Handler {
	return NewRouter(RouterConfig{
		DB:           db,
		Logger:       logger.Nop(),
		JWTValidator: fakeValidator{},
		Search:       svc,
	})
}

func doSearch(t *testing.T, h http.Handler, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestSearchEndpoint_Success(t *testing.T) {
	svc := &fakeSearch{res: &search.Result{
		Results:    []search.Record{{"id": "p1", "title": "Hello"}},
		EntityType: search.EntityPosts,
		Pagination: search.Pagination{Limit: 1, HasMore: true, NextCursor: "abc"},
	}}
	h := newTestRouter(svc, fakePinger{})

	rec, out := doSearch(t, h, "key", `{
		"entityType": "posts",
		"filterGroups": [{"operator": "OR", "filters": [{"property": "customFields.price", "operator": "gt", "value": 40}]}],
		"sorts": [{"property": "createdAt", "direction": "desc"}],
		"limit": 1
	}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "posts", out["entityType"])
	assert.Equal(t, map[string]any{"limit": float64(1), "hasMore": true, "nextCursor": "abc"}, out["pagination"])
	assert.Len(t, out["results"], 1)

	assert.Equal(t, security.Caller{
		UserID:         "k1",
		OrganizationID: testOrg,
		Scopes:         []string{"posts:read:published"},
		Restricted:     true,
	}, svc.caller)
	assert.Equal(t, search.EntityPosts, svc.req.EntityType)
	require.Len(t, svc.req.FilterGroups, 1)
	assert.Equal(t, search.GroupOr, svc.req.FilterGroups[0].Operator)
	assert.Equal(t, search.Filter{Property: "customFields.price", Operator: search.OpGreater, Value: float64(40)},
		svc.req.FilterGroups[0].Filters[0])
	assert.Equal(t, []search.Sort{{Property: "createdAt", Direction: search.SortDesc}}, svc.req.Sorts)
}

func TestSearchEndpoint_Errors(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"MissingToken", "", `{"entityType":"posts"}`, nil, http.StatusUnauthorized, apperror.CodeUnauthorized},
		{"InvalidToken", "forged", `{"entityType":"posts"}`, nil, http.StatusUnauthorized, apperror.CodeUnauthorized},
		{"TokenWithoutOrganization", "no-org", `{"entityType":"posts"}`, nil, http.StatusUnauthorized, apperror.CodeUnauthorized},
		{"MalformedJSON", "session", `{"entityType":`, nil, http.StatusBadRequest, apperror.CodeValidation},
		{"MissingEntityType", "session", `{"limit": 5}`, nil, http.StatusBadRequest, apperror.CodeValidation},
		{"NegativeLimit", "session", `{"entityType":"posts","limit":-1}`, nil, http.StatusBadRequest, apperror.CodeValidation},
		{"BadGroupOperator", "session", `{"entityType":"posts","filterGroups":[{"operator":"XOR","filters":[]}]}`, nil, http.StatusBadRequest, apperror.CodeValidation},
		{"UnsupportedEntity", "session", `{"entityType":"comments"}`, apperror.NewUnsupportedEntityType("comments"), http.StatusBadRequest, apperror.CodeUnsupportedEntityType},
		{"StatementTimeout", "session", `{"entityType":"posts"}`, apperror.NewTimeout(errors.New("canceling statement")), http.StatusGatewayTimeout, apperror.CodeTimeout},
		{"DatabaseError", "session", `{"entityType":"posts"}`, apperror.NewDatabase(errors.New("too many connections")), http.StatusInternalServerError, apperror.CodeDatabase},
		{"DatastoreFailure", "session", `{"entityType":"posts"}`, errors.New("connection refused"), http.StatusInternalServerError, apperror.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeSearch{res: &search.Result{}, err: tt.serviceErr}
			h := newTestRouter(svc, fakePinger{})

			rec, out := doSearch(t, h, tt.token, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, out["code"])
		})
	}
}

func TestSearchEndpoint_ServerErrorsCarryRequestID(t *testing.T) {
	svc := &fakeSearch{err: apperror.NewTimeout(errors.New("canceling statement"))}
	h := newTestRouter(svc, fakePinger{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(`{"entityType":"posts"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer session")
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "req-42", out.Details["request_id"])
	assert.NotContains(t, rec.Body.String(), "canceling statement")
}

func TestHealthEndpoints(t *testing.T) {
	get := func(h http.Handler, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	h := newTestRouter(&fakeSearch{}, fakePinger{})
	assert.Equal(t, http.StatusOK, get(h, "/health/live").Code)
	assert.Equal(t, http.StatusOK, get(h, "/health/ready").Code)

	down := newTestRouter(&fakeSearch{}, fakePinger{err: errors.New("no route to host")})
	assert.Equal(t, http.StatusOK, get(down, "/health/live").Code)
	rec := get(down, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "no route to host")
}
