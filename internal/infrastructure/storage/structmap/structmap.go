// Package structmap maps structs to column/value pairs using "db" tags.
// Shared by the PostgreSQL and SQLite repositories.
package structmap

import (
	"reflect"
	"sync"
)

// Columns extracts all column names from struct "db" tags.
// Embedded structs (like entity.BaseEntity) are walked recursively.
//
// Usage:
//
//	columns := structmap.Columns[templates.Template]()
//	// Returns: ["id", "version", ..., "extraction_unit_id", "name", ...]
func Columns[T any]() []string {
	var zero T
	return metaFor(reflect.TypeOf(zero)).columns()
}

type fieldInfo struct {
	index int
	dbTag string
}

type typeMetadata struct {
	fields   []fieldInfo
	embedded []int
	embTypes []reflect.Type
}

func (m *typeMetadata) columns() []string {
	cols := make([]string, 0, len(m.fields))
	for _, t := range m.embTypes {
		cols = append(cols, metaFor(t).columns()...)
	}
	for _, f := range m.fields {
		cols = append(cols, f.dbTag)
	}
	return cols
}

// typeCache holds *typeMetadata per reflect.Type.
var typeCache sync.Map

func metaFor(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	if t.Kind() != reflect.Struct {
		typeCache.Store(t, meta)
		return meta
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Anonymous {
			meta.embedded = append(meta.embedded, i)
			meta.embTypes = append(meta.embTypes, field.Type)
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		meta.fields = append(meta.fields, fieldInfo{index: i, dbTag: tag})
	}

	typeCache.Store(t, meta)
	return meta
}

// ToMap converts a struct to a column -> value map.
// Only fields with a "db" tag other than "-" are included.
func ToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metaFor(rv.Type())
	res := make(map[string]any, len(meta.fields))

	for _, fi := range meta.fields {
		res[fi.dbTag] = rv.Field(fi.index).Interface()
	}
	for _, embIdx := range meta.embedded {
		for k, val := range ToMap(rv.Field(embIdx).Interface()) {
			res[k] = val
		}
	}

	return res
}

// Without returns a copy of m lacking the given keys.
func Without(m map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}
