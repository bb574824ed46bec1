package search_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"cmsearch/internal/core/id"
	"cmsearch/internal/domain/search"
	"cmsearch/pkg/logger"
)

// entitySearcher is the keyset searcher shared by every collection.
// The per-entity types only supply the table descriptor.
type entitySearcher struct {
	table *table
	db    QuerierSource

	// newResolver is swapped in tests.
	newResolver func(orgID id.ID) fieldResolver
}

func newEntitySearcher(t *table, db QuerierSource) *entitySearcher {
	return &entitySearcher{
		table: t,
		db:    db,
		newResolver: func(orgID id.ID) fieldResolver {
			return newCustomFieldRepo(db, orgID)
		},
	}
}

// NewSearchers returns one searcher per entity collection, ready for
// search.NewRegistry.
func NewSearchers(db QuerierSource) []search.Searcher {
	return []search.Searcher{
		NewPostsSearcher(db),
		NewMediaSearcher(db),
		NewUsersSearcher(db),
		NewTaxonomiesSearcher(db),
	}
}

// EntityType implements search.Searcher.
func (s *entitySearcher) EntityType() search.EntityType {
	return s.table.entity
}

// queryPlan carries what paginate needs to know about the built query.
type queryPlan struct {
	sort       *column // first valid sort, nil means default order
	hiddenSort bool    // sort column selected only for the cursor
}

// Search implements search.Searcher.
func (s *entitySearcher) Search(ctx context.Context, q search.Query) (search.Page, error) {
	fb := newFilterBuilder(s.table, s.newResolver(q.OrganizationID))

	sel, plan, err := s.buildQuery(ctx, fb, q)
	if err != nil {
		return search.Page{}, err
	}

	sql, args, err := sel.ToSql()
	if err != nil {
		return search.Page{}, fmt.Errorf("build query: %w", err)
	}

	var rows []search.Record
	if err := pgxscan.Select(ctx, s.db.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return search.Page{}, fmt.Errorf("search %s: %w", s.table.name, err)
	}

	return s.paginate(rows, plan, q.Limit), nil
}

// buildQuery assembles the SELECT: scope, filters, text search, keyset
// continuation, ordering and a limit+1 fetch.
func (s *entitySearcher) buildQuery(ctx context.Context, fb *filterBuilder, q search.Query) (squirrel.SelectBuilder, queryPlan, error) {
	t := s.table
	var plan queryPlan

	sorts := s.validSorts(ctx, q.Sorts)
	if len(sorts) > 0 {
		plan.sort = &sorts[0].col
	}

	projection := s.projection(q.Properties)
	if plan.sort != nil && !containsColumn(projection, plan.sort.property) {
		projection = append(projection, *plan.sort)
		plan.hiddenSort = true
	}

	cols := make([]string, len(projection))
	for i, c := range projection {
		cols[i] = t.selectExpr(c)
	}
	sel := builder().Select(cols...).From(t.name)

	if t.orgScoped {
		sel = sel.Where(squirrel.Eq{t.name + ".organization_id": q.OrganizationID})
	}

	preds, err := fb.Build(ctx, q.FilterGroups)
	if err != nil {
		return sel, plan, err
	}
	for _, p := range preds {
		sel = sel.Where(p)
	}

	if term := strings.TrimSpace(q.Search); term != "" {
		sel = sel.Where(s.textSearch(term))
	}

	if cont := s.continuation(ctx, q.After, plan.sort, sortDesc(sorts)); cont != nil {
		sel = sel.Where(cont)
	}

	sel = sel.OrderBy(s.orderBy(sorts)...)

	limit := q.Limit
	if limit <= 0 {
		limit = search.DefaultConfig().DefaultLimit
	}
	sel = sel.Limit(uint64(limit) + 1)

	return sel, plan, nil
}

type resolvedSort struct {
	col  column
	desc bool
}

// validSorts maps requested sorts to columns, skipping unknown properties.
func (s *entitySearcher) validSorts(ctx context.Context, sorts []search.Sort) []resolvedSort {
	out := make([]resolvedSort, 0, len(sorts))
	for _, srt := range sorts {
		col, ok := s.table.column(srt.Property)
		if !ok {
			logger.Warn(ctx, "search sort ignored", "entity", s.table.entity, "property", srt.Property)
			continue
		}
		out = append(out, resolvedSort{col: col, desc: srt.IsDesc()})
	}
	return out
}

func sortDesc(sorts []resolvedSort) bool {
	return len(sorts) > 0 && sorts[0].desc
}

// orderBy renders the sorts followed by the id tiebreaker. Without sorts
// the order is id DESC: ids are UUIDv7, so newest first.
func (s *entitySearcher) orderBy(sorts []resolvedSort) []string {
	idCol := s.table.idColumn()
	if len(sorts) == 0 {
		return []string{idCol + " DESC"}
	}
	out := make([]string, 0, len(sorts)+1)
	for _, srt := range sorts {
		dir := " ASC"
		if srt.desc {
			dir = " DESC"
		}
		out = append(out, srt.col.name+dir)
	}
	if sorts[0].col.name != idCol {
		out = append(out, idCol+" ASC")
	}
	return out
}

// projection maps requested properties to columns; id always comes first.
func (s *entitySearcher) projection(properties []string) []column {
	idCol, _ := s.table.column("id")
	out := []column{idCol}

	add := func(props []string) {
		for _, p := range props {
			col, ok := s.table.column(p)
			if !ok || containsColumn(out, p) {
				continue
			}
			out = append(out, col)
		}
	}

	add(properties)
	if len(out) == 1 {
		add(s.table.defaults)
	}
	return out
}

func containsColumn(cols []column, property string) bool {
	for _, c := range cols {
		if c.property == property {
			return true
		}
	}
	return false
}

// textSearch ORs a case-insensitive substring match over the searchable columns.
func (s *entitySearcher) textSearch(term string) squirrel.Sqlizer {
	pattern := likePattern("%", term, "%")
	or := make(squirrel.Or, 0, len(s.table.searchable))
	for _, p := range s.table.searchable {
		col, _ := s.table.column(p)
		or = append(or, squirrel.ILike{col.name: pattern})
	}
	return or
}

// continuation decodes the incoming cursor and returns the keyset
// predicate. Foreign, malformed or stale cursors mean "first page".
func (s *entitySearcher) continuation(ctx context.Context, token string, sortCol *column, desc bool) squirrel.Sqlizer {
	if token == "" {
		return nil
	}
	cur, ok := search.DecodeCursor(token)
	if !ok || cur.EntityType != s.table.entity {
		logger.Debug(ctx, "search cursor ignored", "entity", s.table.entity, "reason", "malformed or foreign")
		return nil
	}
	lastID, err := id.Parse(cur.LastID)
	if err != nil {
		logger.Debug(ctx, "search cursor ignored", "entity", s.table.entity, "reason", "invalid id")
		return nil
	}

	idCol := s.table.idColumn()
	if sortCol == nil {
		if cur.SortProperty != "" {
			logger.Debug(ctx, "search cursor ignored", "entity", s.table.entity, "reason", "sort changed")
			return nil
		}
		return squirrel.Lt{idCol: lastID}
	}

	if cur.SortProperty != sortCol.property {
		logger.Debug(ctx, "search cursor ignored", "entity", s.table.entity, "reason", "sort changed")
		return nil
	}

	var value any
	if cur.SortValue != nil {
		v, ok := coerce(sortCol.kind, cur.SortValue)
		if !ok {
			logger.Debug(ctx, "search cursor ignored", "entity", s.table.entity, "reason", "invalid sort value")
			return nil
		}
		value = v
	}
	return keysetPredicate(sortCol.name, idCol, desc, value, lastID)
}

// keysetPredicate selects rows strictly after (value, lastID) in the order
// "col <dir>, id ASC" with PostgreSQL's default NULL placement
// (NULLS LAST ascending, NULLS FIRST descending).
func keysetPredicate(col, idCol string, desc bool, value any, lastID id.ID) squirrel.Sqlizer {
	if value == nil {
		tie := squirrel.And{squirrel.Eq{col: nil}, squirrel.Gt{idCol: lastID}}
		if desc {
			return squirrel.Or{tie, squirrel.NotEq{col: nil}}
		}
		return tie
	}

	var beyond squirrel.Sqlizer = squirrel.Gt{col: value}
	if desc {
		beyond = squirrel.Lt{col: value}
	}
	pred := squirrel.Or{
		beyond,
		squirrel.And{squirrel.Eq{col: value}, squirrel.Gt{idCol: lastID}},
	}
	if !desc {
		pred = append(pred, squirrel.Eq{col: nil})
	}
	return pred
}

// paginate trims the limit+1 fetch and encodes the next cursor.
func (s *entitySearcher) paginate(rows []search.Record, plan queryPlan, limit int) search.Page {
	if limit <= 0 {
		limit = search.DefaultConfig().DefaultLimit
	}
	if rows == nil {
		rows = []search.Record{}
	}

	page := search.Page{HasMore: len(rows) > limit}
	if page.HasMore {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		cur := search.Cursor{
			EntityType: s.table.entity,
			LastID:     fmt.Sprint(last["id"]),
		}
		if plan.sort != nil {
			cur.SortProperty = plan.sort.property
			cur.SortValue = last[plan.sort.property]
		}
		page.NextCursor = search.EncodeCursor(cur)
	}

	if plan.hiddenSort {
		for _, row := range rows {
			delete(row, plan.sort.property)
		}
	}
	page.Data = rows
	return page
}
