package search

// withRequiredFilter returns groups with f enforced, without touching the
// caller's slices. f joins the first group when that group is ANDed;
// otherwise a new leading AND group carries it, since adding it to an OR
// group would widen the result instead of narrowing it.
func withRequiredFilter(groups []FilterGroup, f Filter) []FilterGroup {
	out := make([]FilterGroup, 0, len(groups)+1)

	if len(groups) > 0 && !groups[0].IsOr() {
		first := groups[0]
		filters := make([]Filter, 0, len(first.Filters)+1)
		filters = append(filters, first.Filters...)
		filters = append(filters, f)
		out = append(out, FilterGroup{Operator: GroupAnd, Filters: filters})
		return append(out, groups[1:]...)
	}

	out = append(out, FilterGroup{Operator: GroupAnd, Filters: []Filter{f}})
	return append(out, groups...)
}

// keepMatching drops rows whose f.Property is present and differs from
// f.Value. Rows that did not project the property are kept: the query
// already enforced the filter.
func keepMatching(rows []Record, f Filter) []Record {
	out := rows[:0:0]
	for _, row := range rows {
		v, ok := row[f.Property]
		if ok && v != f.Value {
			continue
		}
		out = append(out, row)
	}
	return out
}
