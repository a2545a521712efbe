// Package exasolmeta exposes the catalog of an Exasol database as a dbnav data
// source. Exasol has no catalog level: the data source's children are schemas,
// which hold tables, views, scripts and functions.
package exasolmeta

import (
	"context"
	"fmt"
	"strconv"

	"github.com/exasol/exasol-driver-go"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"github.com/skeema/dbnav/internal/catalog"
	"github.com/skeema/dbnav/internal/meta"
)

// DefaultPort is the port Exasol listens on unless configured otherwise.
const DefaultPort = 8563

// Config describes how to connect to an Exasol database.
type Config struct {
	Host                      string
	Port                      int
	User                      string
	Password                  string
	Schema                    string
	ValidateServerCertificate bool

	// DisableExtraMetadataReads makes name resolution rely only on metadata
	// which has already been cached.
	DisableExtraMetadataReads bool
}

// DSN returns the exasol driver DSN for the config.
func (cfg Config) DSN() string {
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	builder := exasol.NewConfig(cfg.User, cfg.Password).
		Host(cfg.Host).
		Port(port).
		ValidateServerCertificate(cfg.ValidateServerCertificate)
	if cfg.Schema != "" {
		builder = builder.Schema(cfg.Schema)
	}
	return builder.String()
}

// String returns the host and port, without any credentials.
func (cfg Config) String() string {
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	return cfg.Host + ":" + strconv.Itoa(port)
}

// DataSource is the root of an Exasol database's catalog. It satisfies
// meta.DataSource, meta.Container and meta.StructureAssistant.
type DataSource struct {
	*catalog.Container
	cfg        Config
	db         *sqlx.DB
	dialect    *meta.Dialect
	extraReads bool
	ec         *ExecutionContext
}

// NewDataSource opens a connection pool to the database described by cfg, and
// verifies it can be used.
func NewDataSource(ctx context.Context, cfg Config) (*DataSource, error) {
	db, err := sqlx.Open("exasol", cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("Unable to connect to %s: %w", cfg, err)
	}
	return newDataSource(cfg, db), nil
}

func newDataSource(cfg Config, db *sqlx.DB) *DataSource {
	ds := &DataSource{
		cfg:        cfg,
		db:         db,
		dialect:    meta.MustLookupDialect("exasol"),
		extraReads: !cfg.DisableExtraMetadataReads,
	}
	ds.Container = catalog.NewRoot(cfg.String(), ds.loadSchemas)
	ds.Container.Bind(ds)
	ds.ec = &ExecutionContext{ds: ds}
	if cfg.Schema != "" {
		ds.ec.UseSchema(cfg.Schema)
	}
	return ds
}

// Dialect returns the Exasol dialect.
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

// DB returns the data source's connection pool.
func (ds *DataSource) DB() *sqlx.DB {
	return ds.db
}

// Close closes the data source's connection pool.
func (ds *DataSource) Close() error {
	return ds.db.Close()
}

// Schema returns the container for the named schema, or nil if it does not
// exist.
func (ds *DataSource) Schema(ctx context.Context, name string) (*catalog.Container, error) {
	obj, err := ds.Child(ctx, name)
	if obj == nil || err != nil {
		return nil, err
	}
	return obj.(*catalog.Container), nil
}

// Preload loads the contents of every schema, using up to concurrency
// simultaneous loads.
func (ds *DataSource) Preload(ctx context.Context, concurrency int) error {
	return catalog.Preload(ctx, ds.Container, concurrency)
}

func (ds *DataSource) loadSchemas(ctx context.Context, root *catalog.Container) ([]meta.Object, error) {
	var names []string
	query := `SELECT SCHEMA_NAME FROM EXA_ALL_SCHEMAS ORDER BY SCHEMA_NAME`
	if err := ds.db.SelectContext(ctx, &names, query); err != nil {
		return nil, err
	}
	children := make([]meta.Object, len(names))
	for n, name := range names {
		children[n] = catalog.NewContainer(name, meta.ObjectTypeSchema, root, ds.loadSchemaObjects)
	}
	log.Debugf("Loaded %d schemas from %s", len(names), ds.cfg)
	return children, nil
}
