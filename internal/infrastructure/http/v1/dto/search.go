// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"cmsearch/internal/domain/search"
)

// SearchRequest is the body of POST /api/v1/search.
//
// Only the request shape is validated here. Unknown properties, operators
// and sort keys are the engine's business and degrade silently there.
type SearchRequest struct {
	EntityType   string           `json:"entityType" binding:"required"`
	FilterGroups []FilterGroupDTO `json:"filterGroups" binding:"omitempty,dive"`
	Search       string           `json:"search"`
	Sorts        []SortDTO        `json:"sorts" binding:"omitempty,dive"`
	Properties   []string         `json:"properties"`
	Limit        int              `json:"limit" binding:"min=0"`
	After        string           `json:"after"`
}

type FilterGroupDTO struct {
	Operator string      `json:"operator" binding:"omitempty,oneof=AND OR and or"`
	Filters  []FilterDTO `json:"filters" binding:"omitempty,dive"`
}

type FilterDTO struct {
	Property string `json:"property" binding:"required"`
	Operator string `json:"operator" binding:"required"`
	Value    any    `json:"value"`
}

type SortDTO struct {
	Property  string `json:"property" binding:"required"`
	Direction string `json:"direction" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// ToDomain converts the DTO to a search request.
func (r SearchRequest) ToDomain() search.Request {
	req := search.Request{
		EntityType: search.EntityType(r.EntityType),
		Search:     r.Search,
		Properties: r.Properties,
		Limit:      r.Limit,
		After:      r.After,
	}

	if len(r.FilterGroups) > 0 {
		req.FilterGroups = make([]search.FilterGroup, len(r.FilterGroups))
		for i, g := range r.FilterGroups {
			filters := make([]search.Filter, len(g.Filters))
			for j, f := range g.Filters {
				filters[j] = search.Filter{
					Property: f.Property,
					Operator: search.Operator(f.Operator),
					Value:    f.Value,
				}
			}
			req.FilterGroups[i] = search.FilterGroup{
				Operator: search.GroupOperator(g.Operator),
				Filters:  filters,
			}
		}
	}

	if len(r.Sorts) > 0 {
		req.Sorts = make([]search.Sort, len(r.Sorts))
		for i, s := range r.Sorts {
			req.Sorts[i] = search.Sort{Property: s.Property, Direction: search.SortDirection(s.Direction)}
		}
	}

	return req
}

// SearchResponse is the result envelope.
type SearchResponse struct {
	Results    []map[string]any   `json:"results"`
	EntityType string             `json:"entityType"`
	Pagination PaginationResponse `json:"pagination"`
}

type PaginationResponse struct {
	Limit      int    `json:"limit"`
	HasMore    bool   `json:"hasMore"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// FromSearchResult converts an engine result to the response DTO.
func FromSearchResult(res *search.Result) SearchResponse {
	results := res.Results
	if results == nil {
		results = []search.Record{}
	}
	return SearchResponse{
		Results:    results,
		EntityType: string(res.EntityType),
		Pagination: PaginationResponse{
			Limit:      res.Pagination.Limit,
			HasMore:    res.Pagination.HasMore,
			NextCursor: res.Pagination.NextCursor,
		},
	}
}

// ErrorResponse documents the body written by the error middleware.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
