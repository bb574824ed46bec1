package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cmsearch/internal/core/id"
)

type timestamps struct {
	CreatedAt int64 `db:"created_at"`
	UpdatedAt int64 `db:"updated_at"`
}

type mockTaxonomy struct {
	ID    id.ID  `db:"id"`
	Name  string `db:"name"`
	Notes string `db:"-"`
	Draft bool
	timestamps
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	cols := ExtractDBColumns[mockTaxonomy]()

	assert.Equal(t, []string{"id", "name", "created_at", "updated_at"}, cols)
	assert.Nil(t, ExtractDBColumns[int]())
}

func TestStructValues_MatchColumns(t *testing.T) {
	tax := mockTaxonomy{
		ID:         id.New(),
		Name:       "Go",
		Notes:      "ignored",
		timestamps: timestamps{CreatedAt: 10, UpdatedAt: 20},
	}

	assert.Equal(t, []any{tax.ID, "Go", int64(10), int64(20)}, StructValues(tax))
	assert.Equal(t, StructValues(tax), StructValues(&tax))
}

func TestTableRowsOf(t *testing.T) {
	rows := TableRowsOf("taxonomies", []mockTaxonomy{{Name: "a"}, {Name: "b"}})

	assert.Equal(t, "taxonomies", rows.Table)
	assert.Equal(t, []string{"id", "name", "created_at", "updated_at"}, rows.Columns)
	assert.Len(t, rows.Rows, 2)
	assert.Equal(t, "b", rows.Rows[1][1])
}
