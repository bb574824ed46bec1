// Package search_repo provides the PostgreSQL side of content search:
// the filter builder, custom field resolution and one keyset searcher per
// entity collection.
package search_repo

import (
	"fmt"

	"github.com/Masterminds/squirrel"

	"cmsearch/internal/domain/search"
)

// columnKind drives value coercion and operator applicability.
type columnKind int

const (
	kindText columnKind = iota
	kindNumber
	kindTimestamp // BIGINT unix seconds
	kindUUID
	kindBool
)

// integer reports whether the kind is stored as BIGINT or INTEGER.
func (k columnKind) integer() bool {
	return k == kindNumber || k == kindTimestamp
}

// column maps an API property to a physical column.
type column struct {
	property string
	name     string
	kind     columnKind
}

// table describes one searchable collection. Only columns listed here can
// be filtered, sorted or projected; this is the SQL injection whitelist.
type table struct {
	entity       search.EntityType
	name         string
	columns      []column
	searchable   []string // properties matched by free-text search
	defaults     []string // projection when none (or none valid) is requested
	orgScoped    bool
	customFields bool // "customFields.<slug>" filters resolve through the EAV table

	index map[string]column
}

func newTable(t table) *table {
	t.index = make(map[string]column, len(t.columns))
	for _, c := range t.columns {
		c.name = t.name + "." + c.name
		t.index[c.property] = c
	}
	return &t
}

func (t *table) column(property string) (column, bool) {
	c, ok := t.index[property]
	return c, ok
}

func (t *table) idColumn() string {
	return t.name + ".id"
}

// selectExpr projects c under its property name. UUIDs are rendered as
// text so result rows serialize cleanly.
func (t *table) selectExpr(c column) string {
	if c.kind == kindUUID {
		return fmt.Sprintf("%s::text AS %q", c.name, c.property)
	}
	return fmt.Sprintf("%s AS %q", c.name, c.property)
}

// builder returns a squirrel builder with PostgreSQL placeholder format.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}
