package mysqlmeta

import (
	"context"
	"sync"

	"github.com/skeema/dbnav/internal/meta"
)

// ExecutionContext is a session on a MySQL data source. Its only default is
// the session's default database, which serves as the default catalog; MySQL
// has no separate schema level.
type ExecutionContext struct {
	ds *DataSource

	m        sync.Mutex // protects database
	database string
}

// DataSource returns the data source of the session.
func (ec *ExecutionContext) DataSource() meta.DataSource {
	return ec.ds
}

// UseDatabase changes the session's default database, as if USE had been run.
func (ec *ExecutionContext) UseDatabase(name string) {
	ec.m.Lock()
	defer ec.m.Unlock()
	ec.database = name
}

// DefaultDatabase returns the name of the session's default database. A blank
// string means no database is selected.
func (ec *ExecutionContext) DefaultDatabase() string {
	ec.m.Lock()
	defer ec.m.Unlock()
	return ec.database
}

// ContextDefaults returns the default database as the default catalog, or no
// defaults if no database is selected or it no longer exists.
func (ec *ExecutionContext) ContextDefaults(ctx context.Context) (*meta.ContextDefaults, error) {
	name := ec.DefaultDatabase()
	if name == "" {
		return nil, nil
	}
	db, err := ec.ds.Database(ctx, name)
	if db == nil || err != nil {
		return nil, err
	}
	return &meta.ContextDefaults{Catalog: db}, nil
}
