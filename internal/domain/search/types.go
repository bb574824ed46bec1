// Package search implements the content search engine: request model,
// cursor codec, searcher registry and the orchestrating service.
package search

import "strings"

// EntityType names a searchable collection.
type EntityType string

const (
	EntityPosts      EntityType = "posts"
	EntityMedia      EntityType = "media"
	EntityUsers      EntityType = "users"
	EntityTaxonomies EntityType = "taxonomies"

	// EntityAll is accepted by the service and currently narrowed to posts.
	EntityAll EntityType = "all"
)

// Operator is a filter comparison.
type Operator string

const (
	OpEqual          Operator = "eq"
	OpNotEqual       Operator = "ne"
	OpGreater        Operator = "gt"
	OpGreaterOrEqual Operator = "gte"
	OpLess           Operator = "lt"
	OpLessOrEqual    Operator = "lte"
	OpIn             Operator = "in"
	OpNotIn          Operator = "not_in"
	OpContains       Operator = "contains"
	OpNotContains    Operator = "not_contains"
	OpStartsWith     Operator = "starts_with"
	OpEndsWith       Operator = "ends_with"
	OpIsNull         Operator = "is_null"
	OpIsNotNull      Operator = "is_not_null"
	OpBetween        Operator = "between" // inclusive, exactly two values

	// Date variants parse the value as a calendar date/time and compare
	// against the stored unix-seconds timestamp.
	OpDateEqual          Operator = "date_eq"
	OpDateNotEqual       Operator = "date_ne"
	OpDateGreater        Operator = "date_gt"
	OpDateGreaterOrEqual Operator = "date_gte"
	OpDateLess           Operator = "date_lt"
	OpDateLessOrEqual    Operator = "date_lte"
	OpDateBetween        Operator = "date_between"
)

// DateBase maps a date_* operator to the comparison it re-dispatches to.
func (o Operator) DateBase() (Operator, bool) {
	if !strings.HasPrefix(string(o), "date_") {
		return "", false
	}
	base := Operator(strings.TrimPrefix(string(o), "date_"))
	switch base {
	case OpEqual, OpNotEqual, OpGreater, OpGreaterOrEqual, OpLess, OpLessOrEqual, OpBetween:
		return base, true
	}
	return "", false
}

// GroupOperator combines the filters of one group.
type GroupOperator string

const (
	GroupAnd GroupOperator = "AND"
	GroupOr  GroupOperator = "OR"
)

// CustomFieldPrefix marks a filter property resolved through the EAV table.
const CustomFieldPrefix = "customFields."

// Filter is one property/operator/value triple.
type Filter struct {
	Property string   `json:"property"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// CustomFieldSlug returns the slug of a "customFields.<slug>" property.
func (f Filter) CustomFieldSlug() (string, bool) {
	slug, ok := strings.CutPrefix(f.Property, CustomFieldPrefix)
	if !ok || slug == "" {
		return "", false
	}
	return slug, true
}

// IsRelationPath reports a dotted property that is not a custom field.
func (f Filter) IsRelationPath() bool {
	if _, ok := f.CustomFieldSlug(); ok {
		return false
	}
	return strings.Contains(f.Property, ".")
}

// FilterGroup is a set of filters reduced by Operator. Groups of one
// request are ANDed together.
type FilterGroup struct {
	Operator GroupOperator `json:"operator"`
	Filters  []Filter      `json:"filters"`
}

// IsOr reports whether the group uses OR; anything else means AND.
func (g FilterGroup) IsOr() bool {
	return strings.EqualFold(string(g.Operator), string(GroupOr))
}

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sort orders results by one property. Only the first valid sort takes
// part in cursor continuation.
type Sort struct {
	Property  string        `json:"property"`
	Direction SortDirection `json:"direction"`
}

// IsDesc reports descending order; unknown directions sort ascending.
func (s Sort) IsDesc() bool {
	return strings.EqualFold(string(s.Direction), string(SortDesc))
}

// Request is a search as received from the HTTP layer.
type Request struct {
	EntityType   EntityType    `json:"entityType"`
	FilterGroups []FilterGroup `json:"filterGroups,omitempty"`
	Search       string        `json:"search,omitempty"`
	Sorts        []Sort        `json:"sorts,omitempty"`
	Properties   []string      `json:"properties,omitempty"`
	Limit        int           `json:"limit"`
	After        string        `json:"after,omitempty"`
}

// Record is one result row keyed by API property name.
type Record = map[string]any

// Pagination describes the position of a result page.
type Pagination struct {
	Limit      int    `json:"limit"`
	HasMore    bool   `json:"hasMore"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// Result is the envelope returned to callers.
type Result struct {
	Results    []Record   `json:"results"`
	EntityType EntityType `json:"entityType"`
	Pagination Pagination `json:"pagination"`
}
