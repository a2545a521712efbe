package mysqlmeta

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/skeema/dbnav/internal/catalog"
	"github.com/skeema/dbnav/internal/meta"
)

// AutoCompleteObjectTypes returns the object types searched by default.
func (ds *DataSource) AutoCompleteObjectTypes() []meta.ObjectType {
	return []meta.ObjectType{meta.ObjectTypeTable, meta.ObjectTypeView, meta.ObjectTypeProc, meta.ObjectTypeFunc}
}

// FindObjectsByMask searches information_schema for objects whose names match
// params.Mask, treated as a LIKE prefix. Unless params.GlobalSearch is set, the
// search is limited to the database of params.Parent, or else to the default
// database of ec. Matching is case-insensitive unless params.CaseSensitive.
func (ds *DataSource) FindObjectsByMask(ctx context.Context, ec meta.ExecutionContext, params meta.SearchParams) ([]meta.ObjectReference, error) {
	if meta.IsCacheOnly(ctx) {
		return nil, nil
	}
	var database string
	if !params.GlobalSearch {
		database = searchDatabase(params.Parent, ec)
	}
	query, binds := maskQuery(params, database)
	if query == "" {
		return nil, nil
	}
	pool, err := ds.instance.CachedConnectionPool("", "")
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Schema string `db:"object_schema"`
		Name   string `db:"object_name"`
		Type   string `db:"object_type"`
	}
	if err := pool.SelectContext(ctx, &rows, query, binds...); err != nil {
		return nil, err
	}
	refs := make([]meta.ObjectReference, 0, len(rows))
	for _, row := range rows {
		typ := meta.ObjectType(row.Type)
		if !slices.Contains(params.ObjectTypes, typ) {
			continue
		}
		refs = append(refs, &catalog.Reference{
			Root: ds,
			Path: []string{row.Schema, row.Name},
			Type: typ,
		})
	}
	return refs, nil
}

// maskQuery builds the information_schema query for params, limited to
// database if non-blank. Only the requested object types are selected, so that
// any LIMIT applies to matching rows. A blank query is returned if params
// requests no searchable types.
func maskQuery(params meta.SearchParams, database string) (string, []any) {
	wants := func(typ meta.ObjectType) bool {
		return slices.Contains(params.ObjectTypes, typ)
	}
	nameMatch := "LOWER(%s) LIKE LOWER(?)"
	if params.CaseSensitive {
		nameMatch = "CAST(%s AS BINARY) LIKE CAST(? AS BINARY)"
	}
	mask := catalog.LikeMask(params.Mask)

	var subqueries []string
	var binds []any
	if wants(meta.ObjectTypeTable) || wants(meta.ObjectTypeView) {
		q := "SELECT table_schema AS object_schema, table_name AS object_name, " +
			"IF(table_type = 'VIEW', 'view', 'table') AS object_type " +
			"FROM information_schema.tables WHERE " + fmt.Sprintf(nameMatch, "table_name")
		binds = append(binds, mask)
		if !wants(meta.ObjectTypeView) {
			q += " AND table_type <> 'VIEW'"
		} else if !wants(meta.ObjectTypeTable) {
			q += " AND table_type = 'VIEW'"
		}
		if database != "" {
			q += " AND table_schema = ?"
			binds = append(binds, database)
		}
		subqueries = append(subqueries, q)
	}
	if wants(meta.ObjectTypeProc) || wants(meta.ObjectTypeFunc) {
		q := "SELECT routine_schema AS object_schema, routine_name AS object_name, " +
			"LOWER(routine_type) AS object_type " +
			"FROM information_schema.routines WHERE " + fmt.Sprintf(nameMatch, "routine_name")
		binds = append(binds, mask)
		if !wants(meta.ObjectTypeFunc) {
			q += " AND routine_type = 'PROCEDURE'"
		} else if !wants(meta.ObjectTypeProc) {
			q += " AND routine_type = 'FUNCTION'"
		} else {
			q += " AND routine_type IN ('PROCEDURE', 'FUNCTION')"
		}
		if database != "" {
			q += " AND routine_schema = ?"
			binds = append(binds, database)
		}
		subqueries = append(subqueries, q)
	}
	if len(subqueries) == 0 {
		return "", nil
	}

	query := strings.Join(subqueries, " UNION ALL ") + " ORDER BY object_schema, object_name"
	if params.MaxResults > 0 {
		query += " LIMIT " + strconv.Itoa(params.MaxResults)
	}
	return query, binds
}

// searchDatabase returns the name of the database to limit a search to: the
// database at or above parent, or else the default database of ec.
func searchDatabase(parent meta.Object, ec meta.ExecutionContext) string {
	for obj := parent; obj != nil; obj = obj.Parent() {
		if obj.ObjectType() == meta.ObjectTypeCatalog {
			return obj.Name()
		}
	}
	if myEC, ok := ec.(*ExecutionContext); ok {
		return myEC.DefaultDatabase()
	}
	return ""
}
