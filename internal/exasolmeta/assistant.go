package exasolmeta

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/skeema/dbnav/internal/catalog"
	"github.com/skeema/dbnav/internal/meta"
)

// exasolObjectTypes maps EXA_ALL_OBJECTS.OBJECT_TYPE values to object types.
var exasolObjectTypes = map[string]meta.ObjectType{
	"TABLE":    meta.ObjectTypeTable,
	"VIEW":     meta.ObjectTypeView,
	"SCRIPT":   meta.ObjectTypeScript,
	"FUNCTION": meta.ObjectTypeFunc,
}

// AutoCompleteObjectTypes returns the object types searched by default.
func (ds *DataSource) AutoCompleteObjectTypes() []meta.ObjectType {
	return []meta.ObjectType{meta.ObjectTypeTable, meta.ObjectTypeView, meta.ObjectTypeScript, meta.ObjectTypeFunc}
}

// FindObjectsByMask searches EXA_ALL_OBJECTS for schema objects whose names
// match params.Mask. Unless params.GlobalSearch is set, the search is limited
// to the schema of params.Parent, or else to the current schema of ec.
func (ds *DataSource) FindObjectsByMask(ctx context.Context, ec meta.ExecutionContext, params meta.SearchParams) ([]meta.ObjectReference, error) {
	if meta.IsCacheOnly(ctx) {
		return nil, nil
	}
	var schema string
	if !params.GlobalSearch {
		schema = searchSchema(params.Parent)
		if myEC, ok := ec.(*ExecutionContext); ok && schema == "" {
			var err error
			if schema, err = myEC.CurrentSchema(ctx); err != nil {
				return nil, err
			}
		}
	}
	query, binds := maskQuery(params, schema)
	if query == "" {
		return nil, nil
	}
	var rows []struct {
		Schema string `db:"ROOT_NAME"`
		Name   string `db:"OBJECT_NAME"`
		Type   string `db:"OBJECT_TYPE"`
	}
	if err := ds.db.SelectContext(ctx, &rows, query, binds...); err != nil {
		return nil, err
	}
	refs := make([]meta.ObjectReference, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, &catalog.Reference{
			Root: ds,
			Path: []string{row.Schema, row.Name},
			Type: exasolObjectTypes[row.Type],
		})
	}
	return refs, nil
}

// maskQuery builds the EXA_ALL_OBJECTS query for params, limited to schema if
// non-blank. It returns a blank query if params requests no searchable types.
func maskQuery(params meta.SearchParams, schema string) (string, []any) {
	var typeNames []string
	for name, typ := range exasolObjectTypes {
		if slices.Contains(params.ObjectTypes, typ) {
			typeNames = append(typeNames, "'"+name+"'")
		}
	}
	if len(typeNames) == 0 {
		return "", nil
	}
	slices.Sort(typeNames)

	var b strings.Builder
	b.WriteString("SELECT ROOT_NAME, OBJECT_NAME, OBJECT_TYPE FROM EXA_ALL_OBJECTS WHERE ROOT_TYPE = 'SCHEMA' AND OBJECT_TYPE IN (")
	b.WriteString(strings.Join(typeNames, ", "))
	if params.CaseSensitive {
		b.WriteString(") AND OBJECT_NAME LIKE ?")
	} else {
		b.WriteString(") AND UPPER(OBJECT_NAME) LIKE UPPER(?)")
	}
	binds := []any{catalog.LikeMask(params.Mask)}
	if schema != "" {
		b.WriteString(" AND ROOT_NAME = ?")
		binds = append(binds, schema)
	}
	b.WriteString(" ORDER BY ROOT_NAME, OBJECT_NAME")
	if params.MaxResults > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(params.MaxResults))
	}
	return b.String(), binds
}

// searchSchema returns the name of the schema at or above parent, or a blank
// string if there is none.
func searchSchema(parent meta.Object) string {
	for obj := parent; obj != nil; obj = obj.Parent() {
		if obj.ObjectType() == meta.ObjectTypeSchema {
			return obj.Name()
		}
	}
	return ""
}
