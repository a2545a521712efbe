package mysqlmeta

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/skeema/dbnav/internal/catalog"
	"github.com/skeema/dbnav/internal/meta"
	"golang.org/x/sync/errgroup"
)

func (ds *DataSource) newDatabase(root *catalog.Container, name string) *catalog.Container {
	db := catalog.NewContainer(name, meta.ObjectTypeCatalog, root, ds.loadDatabaseObjects)
	db.SetCaseInsensitive(ds.instance.NameCaseMode() != NameCaseAsIs)
	// Routine names ignore lower_case_table_names
	db.SetCaseInsensitiveTypes(meta.ObjectTypeProc, meta.ObjectTypeFunc)
	return db
}

// databaseLoadTask queries one kind of object in a database.
type databaseLoadTask func(ctx context.Context, ds *DataSource, db *catalog.Container) ([]meta.Object, error)

// databaseLoadTasks run concurrently, and their results are combined in this
// order. Earlier kinds win name collisions, so a table shadows a routine of the
// same name.
var databaseLoadTasks = []databaseLoadTask{
	loadTables,
	loadRoutines,
	loadTriggers,
}

func (ds *DataSource) loadDatabaseObjects(ctx context.Context, db *catalog.Container) ([]meta.Object, error) {
	g, ctx := errgroup.WithContext(ctx)
	results := make([][]meta.Object, len(databaseLoadTasks))
	for n, task := range databaseLoadTasks {
		n, task := n, task
		g.Go(func() (err error) {
			results[n], err = task(ctx, ds, db)
			return err
		})
	}
	if err := g.Wait(); IsAccessError(err) {
		log.Debugf("Marking database %s offline: %s", db.Name(), err)
		db.SetConnected(false)
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var children []meta.Object
	for _, objects := range results {
		children = append(children, objects...)
	}
	return children, nil
}

func loadTables(ctx context.Context, ds *DataSource, db *catalog.Container) ([]meta.Object, error) {
	pool, err := ds.instance.CachedConnectionPool("", "")
	if err != nil {
		return nil, err
	}
	var rawTables []struct {
		Name    string `db:"table_name"`
		Type    string `db:"table_type"`
		Engine  string `db:"engine"`
		Comment string `db:"table_comment"`
	}
	query := `
		SELECT SQL_BUFFER_RESULT
		       table_name AS table_name, table_type AS table_type,
		       IFNULL(engine, '') AS engine, IFNULL(table_comment, '') AS table_comment
		FROM   information_schema.tables
		WHERE  table_schema = ?
		ORDER BY table_name`
	if err := pool.SelectContext(ctx, &rawTables, query, db.Name()); err != nil {
		return nil, err
	}
	objects := make([]meta.Object, 0, len(rawTables))
	for _, rawTable := range rawTables {
		typ := meta.ObjectTypeTable
		if rawTable.Type == "VIEW" {
			typ = meta.ObjectTypeView
		}
		table := newTable(ds, db, rawTable.Name, typ)
		table.Properties["engine"] = rawTable.Engine
		table.Properties["comment"] = rawTable.Comment
		objects = append(objects, table)
	}
	return objects, nil
}

func loadRoutines(ctx context.Context, ds *DataSource, db *catalog.Container) ([]meta.Object, error) {
	pool, err := ds.instance.CachedConnectionPool("", "")
	if err != nil {
		return nil, err
	}
	var rawRoutines []struct {
		Name          string `db:"routine_name"`
		Type          string `db:"routine_type"`
		DataType      string `db:"dtd_identifier"`
		Deterministic string `db:"is_deterministic"`
	}
	query := `
		SELECT SQL_BUFFER_RESULT
		       routine_name AS routine_name, UPPER(routine_type) AS routine_type,
		       IFNULL(dtd_identifier, '') AS dtd_identifier,
		       is_deterministic AS is_deterministic
		FROM   information_schema.routines
		WHERE  routine_schema = ?
		ORDER BY routine_name`
	if err := pool.SelectContext(ctx, &rawRoutines, query, db.Name()); err != nil {
		return nil, err
	}
	objects := make([]meta.Object, 0, len(rawRoutines))
	for _, r := range rawRoutines {
		typ := meta.ObjectType(strings.ToLower(r.Type))
		if typ != meta.ObjectTypeProc && typ != meta.ObjectTypeFunc {
			continue // e.g. PACKAGE in MariaDB Oracle mode
		}
		routine := catalog.NewObject(r.Name, typ, db)
		if typ == meta.ObjectTypeFunc {
			routine.Properties["returns"] = r.DataType
		}
		routine.Properties["deterministic"] = r.Deterministic
		objects = append(objects, routine)
	}
	return objects, nil
}

func loadTriggers(ctx context.Context, ds *DataSource, db *catalog.Container) ([]meta.Object, error) {
	pool, err := ds.instance.CachedConnectionPool("", "")
	if err != nil {
		return nil, err
	}
	var rawTriggers []struct {
		Name   string `db:"trigger_name"`
		Table  string `db:"event_object_table"`
		Event  string `db:"event_manipulation"`
		Timing string `db:"action_timing"`
	}
	query := `
		SELECT SQL_BUFFER_RESULT
		       trigger_name AS trigger_name, event_object_table AS event_object_table,
		       event_manipulation AS event_manipulation, action_timing AS action_timing
		FROM   information_schema.triggers
		WHERE  trigger_schema = ?
		ORDER BY trigger_name`
	if err := pool.SelectContext(ctx, &rawTriggers, query, db.Name()); err != nil {
		return nil, err
	}
	objects := make([]meta.Object, 0, len(rawTriggers))
	for _, rawTrigger := range rawTriggers {
		trigger := catalog.NewObject(rawTrigger.Name, meta.ObjectTypeTrigger, db)
		trigger.Properties["table"] = rawTrigger.Table
		trigger.Properties["event"] = rawTrigger.Timing + " " + rawTrigger.Event
		objects = append(objects, trigger)
	}
	return objects, nil
}
