// Package mysqlmeta exposes the catalog of a MySQL or MariaDB server as a
// dbnav data source: databases, their tables, views, routines and triggers,
// loaded lazily from information_schema.
package mysqlmeta

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/skeema/dbnav/internal/catalog"
	"github.com/skeema/dbnav/internal/meta"
)

// Options configures a DataSource.
type Options struct {
	// DisableExtraMetadataReads makes name resolution rely only on metadata
	// which has already been cached.
	DisableExtraMetadataReads bool

	// DefaultDatabase overrides the instance's DSN database as the default
	// context's database.
	DefaultDatabase string
}

// DataSource is the root of a MySQL server's catalog. Its children are the
// server's databases, which MySQL treats as catalogs. It satisfies
// meta.DataSource, meta.Container and meta.StructureAssistant.
type DataSource struct {
	*catalog.Container
	instance   *Instance
	dialect    *meta.Dialect
	extraReads bool
	ec         *ExecutionContext
}

// NewDataSource connects to instance and returns a data source for its
// catalog. The server's lower_case_table_names determines how unquoted names
// are folded and whether lookups are case-sensitive.
func NewDataSource(instance *Instance, opts Options) (*DataSource, error) {
	if ok, err := instance.Valid(); !ok {
		return nil, fmt.Errorf("Unable to connect to %s: %w", instance, err)
	}
	ds := &DataSource{
		instance:   instance,
		dialect:    meta.MustLookupDialect("mysql"),
		extraReads: !opts.DisableExtraMetadataReads,
	}
	mode := instance.NameCaseMode()
	if mode == NameCaseLower {
		ds.dialect = ds.dialect.WithStoredCase(meta.CaseLower)
	}
	ds.Container = catalog.NewRoot(instance.String(), ds.loadDatabases)
	ds.Container.Bind(ds)
	ds.Container.SetCaseInsensitive(mode == NameCaseLower || mode == NameCaseInsensitive)

	defaultDatabase := opts.DefaultDatabase
	if defaultDatabase == "" {
		defaultDatabase = instance.DefaultDatabase()
	}
	ds.ec = &ExecutionContext{ds: ds}
	ds.ec.UseDatabase(defaultDatabase)
	log.Debugf("Connected to %s running version %s (lower_case_table_names=%d)", instance, instance.Version(), mode)
	return ds, nil
}

// Instance returns the server this data source reads from.
func (ds *DataSource) Instance() *Instance {
	return ds.instance
}

// Dialect returns the MySQL dialect, adjusted for the server's name case mode.
func (ds *DataSource) Dialect() meta.SQLDialect {
	return ds.dialect
}

// SQLDialect returns the same dialect as Dialect, as its concrete type.
func (ds *DataSource) SQLDialect() *meta.Dialect {
	return ds.dialect
}

// ExtraMetadataReadEnabled returns false if the data source was configured to
// resolve names from cached metadata only.
func (ds *DataSource) ExtraMetadataReadEnabled() bool {
	return ds.extraReads
}

// DefaultContext returns the data source's main execution context.
func (ds *DataSource) DefaultContext() meta.ExecutionContext {
	return ds.ec
}

// Database returns the container for the named database, or nil if it does
// not exist.
func (ds *DataSource) Database(ctx context.Context, name string) (*catalog.Container, error) {
	obj, err := ds.Child(ctx, name)
	if obj == nil || err != nil {
		return nil, err
	}
	return obj.(*catalog.Container), nil
}

// Preload loads the contents of every database, using up to concurrency
// simultaneous loads. Databases the user cannot access are marked
// disconnected rather than causing an error.
func (ds *DataSource) Preload(ctx context.Context, concurrency int) error {
	if err := catalog.Preload(ctx, ds.Container, concurrency); err != nil {
		return err
	}
	log.Debugf("Preloaded databases on %s", ds.instance)
	return nil
}

func (ds *DataSource) loadDatabases(ctx context.Context, root *catalog.Container) ([]meta.Object, error) {
	names, err := ds.instance.DatabaseNames(ctx)
	if err != nil {
		return nil, err
	}
	children := make([]meta.Object, len(names))
	for n, name := range names {
		children[n] = ds.newDatabase(root, name)
	}
	return children, nil
}
