package search_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"cmsearch/internal/core/id"
	"cmsearch/internal/domain/search"
	"cmsearch/pkg/logger"
)

const (
	eavTable = "post_custom_field_values"
	eavAlias = "cfv"
	eavValue = eavAlias + ".value"

	// numericValue casts EAV text to a number, yielding NULL for text that
	// is not numeric instead of failing the whole query.
	numericValue = "CASE WHEN " + eavValue + ` ~ '^[[:space:]]*[-+]{0,1}[0-9]+([.][0-9]+){0,1}[[:space:]]*$'` +
		" THEN CAST(" + eavValue + " AS DOUBLE PRECISION) END"
)

// customField is the resolved definition behind a slug.
type customField struct {
	ID        id.ID  `db:"id"`
	Slug      string `db:"slug"`
	FieldType string `db:"field_type"`
}

// fieldResolver looks up a custom field by slug within one organization.
// A missing field is (nil, nil).
type fieldResolver interface {
	Resolve(ctx context.Context, slug string) (*customField, error)
}

// filterBuilder compiles filter groups into squirrel predicates for one
// table. It caches slug lookups, so an instance must serve a single
// request and is not safe for concurrent use.
type filterBuilder struct {
	table    *table
	resolver fieldResolver
	fields   map[string]*customField
}

func newFilterBuilder(t *table, resolver fieldResolver) *filterBuilder {
	return &filterBuilder{
		table:    t,
		resolver: resolver,
		fields:   make(map[string]*customField),
	}
}

// Build returns one predicate per group that produced any; the caller ANDs
// them. Only resolver (datastore) failures are returned as errors.
func (b *filterBuilder) Build(ctx context.Context, groups []search.FilterGroup) ([]squirrel.Sqlizer, error) {
	preds := make([]squirrel.Sqlizer, 0, len(groups))
	for _, g := range groups {
		pred, err := b.buildGroup(ctx, g)
		if err != nil {
			return nil, err
		}
		if pred != nil {
			preds = append(preds, pred)
		}
	}
	return preds, nil
}

func (b *filterBuilder) buildGroup(ctx context.Context, g search.FilterGroup) (squirrel.Sqlizer, error) {
	var parts []squirrel.Sqlizer
	for _, f := range g.Filters {
		pred, err := b.buildFilter(ctx, f)
		if err != nil {
			return nil, err
		}
		if pred != nil {
			parts = append(parts, pred)
		}
	}

	switch {
	case len(parts) == 0:
		return nil, nil
	case g.IsOr():
		return squirrel.Or(parts), nil
	default:
		return squirrel.And(parts), nil
	}
}

// buildFilter returns nil when the filter cannot be expressed.
func (b *filterBuilder) buildFilter(ctx context.Context, f search.Filter) (squirrel.Sqlizer, error) {
	if slug, ok := f.CustomFieldSlug(); ok {
		return b.customFieldPredicate(ctx, f, slug)
	}

	if f.IsRelationPath() {
		// Relation paths need joins the engine does not build.
		b.drop(ctx, f, "relation paths are not supported")
		return nil, nil
	}

	col, ok := b.table.column(f.Property)
	if !ok {
		b.drop(ctx, f, "unknown property")
		return nil, nil
	}

	pred := b.columnPredicate(col, f.Operator, f.Value)
	if pred == nil {
		b.drop(ctx, f, "operator does not accept value of type "+describe(f.Value))
	}
	return pred, nil
}

// columnPredicate dispatches on op for a direct column.
func (b *filterBuilder) columnPredicate(col column, op search.Operator, value any) squirrel.Sqlizer {
	if base, ok := op.DateBase(); ok {
		return b.datePredicate(col, base, value)
	}
	if col.kind.integer() && value != nil {
		switch op {
		case search.OpEqual, search.OpNotEqual, search.OpIn, search.OpNotIn, search.OpBetween,
			search.OpGreater, search.OpGreaterOrEqual, search.OpLess, search.OpLessOrEqual:
			return integerPredicate(col.name, op, value)
		}
	}

	switch op {
	case search.OpEqual:
		if value == nil {
			return squirrel.Eq{col.name: nil}
		}
		if v, ok := coerce(col.kind, value); ok {
			return squirrel.Eq{col.name: v}
		}
	case search.OpNotEqual:
		if value == nil {
			return squirrel.NotEq{col.name: nil}
		}
		if v, ok := coerce(col.kind, value); ok {
			return squirrel.NotEq{col.name: v}
		}
	case search.OpGreater, search.OpGreaterOrEqual, search.OpLess, search.OpLessOrEqual:
		if !isComparable(value) {
			return nil
		}
		if v, ok := coerce(col.kind, value); ok {
			return compare(col.name, op, v)
		}
	case search.OpIn, search.OpNotIn:
		values, ok := coerceList(col.kind, value)
		if !ok {
			return nil
		}
		if op == search.OpIn {
			return squirrel.Eq{col.name: values}
		}
		return squirrel.NotEq{col.name: values}
	case search.OpContains, search.OpNotContains, search.OpStartsWith, search.OpEndsWith:
		if col.kind != kindText {
			return nil
		}
		return substring(col.name, op, value)
	case search.OpIsNull:
		return squirrel.Eq{col.name: nil}
	case search.OpIsNotNull:
		return squirrel.NotEq{col.name: nil}
	case search.OpBetween:
		lo, hi, ok := bounds(value, func(v any) (any, bool) {
			if !isComparable(v) {
				return nil, false
			}
			return coerce(col.kind, v)
		})
		if ok {
			return squirrel.Expr(col.name+" BETWEEN ? AND ?", lo, hi)
		}
	}
	return nil
}

// datePredicate converts dates to unix seconds and re-dispatches.
func (b *filterBuilder) datePredicate(col column, base search.Operator, value any) squirrel.Sqlizer {
	if col.kind != kindTimestamp && col.kind != kindNumber {
		return nil
	}
	if base == search.OpBetween {
		lo, hi, ok := bounds(value, dateArg)
		if !ok {
			return nil
		}
		return b.columnPredicate(col, base, []any{lo, hi})
	}
	ts, ok := dateArg(value)
	if !ok {
		return nil
	}
	return b.columnPredicate(col, base, ts)
}

// customFieldPredicate compiles a "customFields.<slug>" filter into an
// EXISTS / NOT EXISTS subquery on the EAV table.
func (b *filterBuilder) customFieldPredicate(ctx context.Context, f search.Filter, slug string) (squirrel.Sqlizer, error) {
	if !b.table.customFields {
		b.drop(ctx, f, "custom fields are not available for "+string(b.table.entity))
		return nil, nil
	}

	field, err := b.resolve(ctx, slug)
	if err != nil {
		return nil, err
	}
	if field == nil {
		// Unknown slug: no predicate, i.e. the filter matches everything.
		b.drop(ctx, f, "unknown custom field")
		return nil, nil
	}

	cond, negate := eavCondition(f.Operator, f.Value)
	if cond == nil {
		b.drop(ctx, f, "operator does not accept value of type "+describe(f.Value))
		return nil, nil
	}

	sub := squirrel.Select("1").
		From(eavTable + " " + eavAlias).
		Where(eavAlias + ".post_id = " + b.table.idColumn()).
		Where(squirrel.Eq{eavAlias + ".custom_field_id": field.ID}).
		Where(cond)

	sql, args, err := sub.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build custom field subquery: %w", err)
	}

	keyword := "EXISTS"
	if negate {
		keyword = "NOT EXISTS"
	}
	return squirrel.Expr(keyword+" ("+sql+")", args...), nil
}

// eavCondition returns the positive condition on the EAV value and
// whether the subquery must be negated.
func eavCondition(op search.Operator, value any) (squirrel.Sqlizer, bool) {
	if base, ok := op.DateBase(); ok {
		if base == search.OpBetween {
			lo, hi, ok := bounds(value, dateArg)
			if !ok {
				return nil, false
			}
			return eavCondition(base, []any{lo, hi})
		}
		ts, ok := dateArg(value)
		if !ok {
			return nil, false
		}
		return eavCondition(base, ts)
	}

	switch op {
	case search.OpEqual, search.OpNotEqual:
		negate := op == search.OpNotEqual
		if value == nil {
			// eq null: no value present; ne null: some value present
			return squirrel.NotEq{eavValue: nil}, !negate
		}
		if s, ok := textValue(value); ok {
			return squirrel.Eq{eavValue: s}, negate
		}
	case search.OpContains, search.OpStartsWith, search.OpEndsWith:
		return substring(eavValue, op, value), false
	case search.OpNotContains:
		return substring(eavValue, search.OpContains, value), true
	case search.OpIn, search.OpNotIn:
		values, ok := textList(value)
		if !ok {
			return nil, false
		}
		return squirrel.Eq{eavValue: values}, op == search.OpNotIn
	case search.OpIsNull:
		return squirrel.NotEq{eavValue: nil}, true
	case search.OpIsNotNull:
		return squirrel.NotEq{eavValue: nil}, false
	case search.OpGreater, search.OpGreaterOrEqual, search.OpLess, search.OpLessOrEqual:
		if v, ok := numberArg(value); ok {
			return compare(numericValue, op, v), false
		}
	case search.OpBetween:
		lo, hi, ok := bounds(value, numberArg)
		if ok {
			return squirrel.Expr(numericValue+" BETWEEN ? AND ?", lo, hi), false
		}
	}
	return nil, false
}

// resolve looks a slug up at most once per builder.
func (b *filterBuilder) resolve(ctx context.Context, slug string) (*customField, error) {
	if field, ok := b.fields[slug]; ok {
		return field, nil
	}
	field, err := b.resolver.Resolve(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("resolve custom field %q: %w", slug, err)
	}
	b.fields[slug] = field
	return field, nil
}

func (b *filterBuilder) drop(ctx context.Context, f search.Filter, reason string) {
	logger.Warn(ctx, "search filter dropped",
		"entity", b.table.entity,
		"property", f.Property,
		"operator", f.Operator,
		"reason", reason,
	)
}

func compare(expr string, op search.Operator, v any) squirrel.Sqlizer {
	switch op {
	case search.OpGreater:
		return squirrel.Gt{expr: v}
	case search.OpGreaterOrEqual:
		return squirrel.GtOrEq{expr: v}
	case search.OpLess:
		return squirrel.Lt{expr: v}
	default:
		return squirrel.LtOrEq{expr: v}
	}
}

// matchNone is the predicate of a comparison no integer can satisfy.
var matchNone = squirrel.Expr("FALSE")

// integerPredicate compares a BIGINT or INTEGER column. Fractional operands
// are rounded to the integer bound that keeps the comparison exact:
// lt 100.5 is lt 101, gte 100.5 is gte 101, and eq 100.5 matches nothing.
func integerPredicate(col string, op search.Operator, value any) squirrel.Sqlizer {
	switch op {
	case search.OpIn, search.OpNotIn:
		values, ok := listValues(value)
		if !ok {
			return nil
		}
		ints := make([]any, 0, len(values))
		valid := false
		for _, v := range values {
			n, _, integral, ok := integerBounds(v)
			if !ok {
				continue
			}
			valid = true
			if integral {
				ints = append(ints, n)
			}
		}
		switch {
		case !valid:
			return nil
		case len(ints) > 0 && op == search.OpIn:
			return squirrel.Eq{col: ints}
		case len(ints) > 0:
			return squirrel.NotEq{col: ints}
		case op == search.OpIn:
			return matchNone
		default:
			return squirrel.NotEq{col: nil}
		}
	case search.OpBetween:
		values, ok := listValues(value)
		if !ok || len(values) != 2 {
			return nil
		}
		_, lo, _, ok := integerBounds(values[0])
		if !ok {
			return nil
		}
		hi, _, _, ok := integerBounds(values[1])
		if !ok {
			return nil
		}
		return squirrel.Expr(col+" BETWEEN ? AND ?", lo, hi)
	}

	floor, ceil, integral, ok := integerBounds(value)
	if !ok {
		return nil
	}
	switch op {
	case search.OpEqual:
		if !integral {
			return matchNone
		}
		return squirrel.Eq{col: floor}
	case search.OpNotEqual:
		if !integral {
			return squirrel.NotEq{col: nil}
		}
		return squirrel.NotEq{col: floor}
	case search.OpGreater:
		return squirrel.Gt{col: floor}
	case search.OpGreaterOrEqual:
		return squirrel.GtOrEq{col: ceil}
	case search.OpLess:
		return squirrel.Lt{col: ceil}
	case search.OpLessOrEqual:
		return squirrel.LtOrEq{col: floor}
	}
	return nil
}

func substring(expr string, op search.Operator, value any) squirrel.Sqlizer {
	s, ok := textValue(value)
	if !ok {
		return nil
	}
	switch op {
	case search.OpStartsWith:
		return squirrel.ILike{expr: likePattern("", s, "%")}
	case search.OpEndsWith:
		return squirrel.ILike{expr: likePattern("%", s, "")}
	case search.OpNotContains:
		return squirrel.NotILike{expr: likePattern("%", s, "%")}
	default:
		return squirrel.ILike{expr: likePattern("%", s, "%")}
	}
}

// bounds extracts exactly two converted values.
func bounds(value any, conv func(any) (any, bool)) (any, any, bool) {
	values, ok := listValues(value)
	if !ok || len(values) != 2 {
		return nil, nil, false
	}
	lo, ok := conv(values[0])
	if !ok {
		return nil, nil, false
	}
	hi, ok := conv(values[1])
	if !ok {
		return nil, nil, false
	}
	return lo, hi, true
}

// coerceList converts every element; invalid elements are skipped and an
// empty result means no predicate.
func coerceList(kind columnKind, value any) ([]any, bool) {
	values, ok := listValues(value)
	if !ok {
		return nil, false
	}
	out := make([]any, 0, len(values))
	for _, v := range values {
		if c, ok := coerce(kind, v); ok {
			out = append(out, c)
		}
	}
	return out, len(out) > 0
}

func textList(value any) ([]any, bool) {
	values, ok := listValues(value)
	if !ok {
		return nil, false
	}
	out := make([]any, 0, len(values))
	for _, v := range values {
		if s, ok := textValue(v); ok {
			out = append(out, s)
		}
	}
	return out, len(out) > 0
}
