package exasolmeta

import (
	"context"

	"github.com/skeema/dbnav/internal/catalog"
	"github.com/skeema/dbnav/internal/meta"
	"golang.org/x/sync/errgroup"
)

// schemaQuery lists one kind of object in a schema. The query must return the
// object names in a column aliased OBJECT_NAME.
type schemaQuery struct {
	typ   meta.ObjectType
	query string
}

// Results are combined in this order, so earlier kinds win name collisions.
var schemaQueries = []schemaQuery{
	{meta.ObjectTypeTable, `SELECT TABLE_NAME AS OBJECT_NAME FROM EXA_ALL_TABLES WHERE TABLE_SCHEMA = ? ORDER BY TABLE_NAME`},
	{meta.ObjectTypeView, `SELECT VIEW_NAME AS OBJECT_NAME FROM EXA_ALL_VIEWS WHERE VIEW_SCHEMA = ? ORDER BY VIEW_NAME`},
	{meta.ObjectTypeScript, `SELECT SCRIPT_NAME AS OBJECT_NAME FROM EXA_ALL_SCRIPTS WHERE SCRIPT_SCHEMA = ? ORDER BY SCRIPT_NAME`},
	{meta.ObjectTypeFunc, `SELECT FUNCTION_NAME AS OBJECT_NAME FROM EXA_ALL_FUNCTIONS WHERE FUNCTION_SCHEMA = ? ORDER BY FUNCTION_NAME`},
}

func (ds *DataSource) loadSchemaObjects(ctx context.Context, schema *catalog.Container) ([]meta.Object, error) {
	g, ctx := errgroup.WithContext(ctx)
	names := make([][]string, len(schemaQueries))
	for n, sq := range schemaQueries {
		n, sq := n, sq
		g.Go(func() error {
			return ds.db.SelectContext(ctx, &names[n], sq.query, schema.Name())
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var children []meta.Object
	for n, sq := range schemaQueries {
		for _, name := range names[n] {
			children = append(children, catalog.NewObject(name, sq.typ, schema))
		}
	}
	return children, nil
}
