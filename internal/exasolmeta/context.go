package exasolmeta

import (
	"context"
	"database/sql"
	"sync"

	"github.com/skeema/dbnav/internal/meta"
)

// ExecutionContext is a session on an Exasol data source. Its only default is
// the session's current schema. Exasol has no catalog level.
type ExecutionContext struct {
	ds *DataSource

	m      sync.Mutex // protects schema and known
	schema string
	known  bool
}

// DataSource returns the data source of the session.
func (ec *ExecutionContext) DataSource() meta.DataSource {
	return ec.ds
}

// UseSchema changes the session's current schema, as if OPEN SCHEMA had been
// run.
func (ec *ExecutionContext) UseSchema(name string) {
	ec.m.Lock()
	defer ec.m.Unlock()
	ec.schema, ec.known = name, true
}

// CurrentSchema returns the name of the session's current schema, querying
// the server the first time it is needed. A blank string means no schema is
// open.
func (ec *ExecutionContext) CurrentSchema(ctx context.Context) (string, error) {
	ec.m.Lock()
	defer ec.m.Unlock()
	if ec.known || meta.IsCacheOnly(ctx) {
		return ec.schema, nil
	}
	var current sql.NullString
	if err := ec.ds.db.GetContext(ctx, &current, "SELECT CURRENT_SCHEMA"); err != nil {
		return "", err
	}
	ec.schema, ec.known = current.String, true
	return ec.schema, nil
}

// ContextDefaults returns the current schema as the default schema, or no
// defaults if no schema is open.
func (ec *ExecutionContext) ContextDefaults(ctx context.Context) (*meta.ContextDefaults, error) {
	name, err := ec.CurrentSchema(ctx)
	if name == "" || err != nil {
		return nil, err
	}
	schema, err := ec.ds.Schema(ctx, name)
	if schema == nil || err != nil {
		return nil, err
	}
	return &meta.ContextDefaults{Schema: schema}, nil
}
