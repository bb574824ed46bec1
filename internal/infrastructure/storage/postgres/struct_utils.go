package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns extracts all column names from struct "db" tags, in
// field order. Embedded structs are walked recursively.
//
// Usage:
//
//	columns := ExtractDBColumns[customField]()
//	// Returns: ["id", "slug", "field_type"]
func ExtractDBColumns[T any]() []string {
	var zero T
	meta := getOrCreateTypeMetadata(reflect.TypeOf(zero))
	if meta == nil {
		return nil
	}
	cols := make([]string, len(meta.fields))
	for i, f := range meta.fields {
		cols[i] = f.column
	}
	return cols
}

// TableRowsOf builds a bulk load for LoadTables from tagged structs.
func TableRowsOf[T any](table string, items []T) TableRows {
	rows := make([][]any, len(items))
	for i, item := range items {
		rows[i] = StructValues(item)
	}
	return TableRows{Table: table, Columns: ExtractDBColumns[T](), Rows: rows}
}

// StructValues returns the "db"-tagged field values of v in the order of
// ExtractDBColumns.
func StructValues(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	meta := getOrCreateTypeMetadata(rv.Type())
	if meta == nil {
		return nil
	}
	out := make([]any, len(meta.fields))
	for i, f := range meta.fields {
		out[i] = rv.FieldByIndex(f.index).Interface()
	}
	return out
}

// fieldInfo contains pre-computed metadata about a struct field.
type fieldInfo struct {
	index  []int  // path through embedded structs
	column string // database column name
}

// typeMetadata contains cached reflection metadata for a type.
type typeMetadata struct {
	fields []fieldInfo
}

// typeCache maps reflect.Type to *typeMetadata.
var typeCache sync.Map

// getOrCreateTypeMetadata returns cached metadata, computing it on first
// use. Non-struct types yield nil.
func getOrCreateTypeMetadata(t reflect.Type) *typeMetadata {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	collectFields(t, nil, meta)
	actual, _ := typeCache.LoadOrStore(t, meta)
	return actual.(*typeMetadata)
}

func collectFields(t reflect.Type, prefix []int, meta *typeMetadata) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		if field.Anonymous {
			ft := field.Type
			if ft.Kind() == reflect.Struct {
				collectFields(ft, index, meta)
			}
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		meta.fields = append(meta.fields, fieldInfo{index: index, column: tag})
	}
}
