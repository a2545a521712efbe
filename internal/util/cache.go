package util

import (
	"context"
	"fmt"
	"sync"

	"github.com/skeema/dbnav/internal/exasolmeta"
	"github.com/skeema/dbnav/internal/meta"
	"github.com/skeema/dbnav/internal/mysqlmeta"
	"github.com/skeema/mybase"
)

var instanceCache struct {
	sync.Mutex
	instanceMap map[string]*mysqlmeta.Instance
}

var dataSourceCache struct {
	sync.Mutex
	dataSourceMap map[string]meta.DataSource
}

func init() {
	instanceCache.instanceMap = make(map[string]*mysqlmeta.Instance)
	dataSourceCache.dataSourceMap = make(map[string]meta.DataSource)
}

// NewInstance wraps mysqlmeta.NewInstance such that two identical requests
// will return the same *mysqlmeta.Instance. This helps reduce excessive
// creation of redundant connections.
func NewInstance(driver, dsn string) (*mysqlmeta.Instance, error) {
	key := fmt.Sprintf("%s:%s", driver, dsn)
	instanceCache.Lock()
	defer instanceCache.Unlock()
	instance, already := instanceCache.instanceMap[key]
	if already {
		return instance, nil
	}
	instance, err := mysqlmeta.NewInstance(driver, dsn)
	if err != nil {
		return nil, err
	}
	instanceCache.instanceMap[key] = instance
	return instance, nil
}

// DataSource returns the data source described by cfg's connection options.
// Two requests with identical connection options return the same data source,
// so that metadata loaded by one is visible to the other.
func DataSource(ctx context.Context, cfg *mybase.Config) (meta.DataSource, error) {
	driver := cfg.Get("driver")
	var dsn string
	var exaCfg exasolmeta.Config
	var err error
	switch driver {
	case "mysql":
		dsn, err = MySQLDSN(cfg)
	case "exasol":
		exaCfg, err = ExasolConfig(cfg)
		dsn = exaCfg.DSN()
	default:
		err = fmt.Errorf("Unsupported driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	metadataReads := cfg.GetBool("metadata-reads")
	key := fmt.Sprintf("%s:%s:%t", driver, dsn, metadataReads)

	dataSourceCache.Lock()
	defer dataSourceCache.Unlock()
	if ds, already := dataSourceCache.dataSourceMap[key]; already {
		return ds, nil
	}
	var ds meta.DataSource
	if driver == "mysql" {
		instance, err := NewInstance(driver, dsn)
		if err != nil {
			return nil, err
		}
		ds, err = mysqlmeta.NewDataSource(instance, mysqlmeta.Options{DisableExtraMetadataReads: !metadataReads})
		if err != nil {
			return nil, err
		}
	} else {
		if ds, err = exasolmeta.NewDataSource(ctx, exaCfg); err != nil {
			return nil, err
		}
	}
	dataSourceCache.dataSourceMap[key] = ds
	return ds, nil
}

// CloseCachedConnectionPools closes all connection pools in all cached
// Instances that were created via NewInstance, and all cached Exasol data
// sources.
func CloseCachedConnectionPools() {
	for _, inst := range instanceCache.instanceMap {
		inst.CloseAll()
	}
	for _, ds := range dataSourceCache.dataSourceMap {
		if exaDS, ok := ds.(*exasolmeta.DataSource); ok {
			exaDS.Close()
		}
	}
}

// FlushInstanceCache closes all connection pools in all cached Instances and
// data sources, and then flushes both caches entirely.
func FlushInstanceCache() {
	instanceCache.Lock()
	defer instanceCache.Unlock()
	dataSourceCache.Lock()
	defer dataSourceCache.Unlock()
	CloseCachedConnectionPools()
	instanceCache.instanceMap = make(map[string]*mysqlmeta.Instance)
	dataSourceCache.dataSourceMap = make(map[string]meta.DataSource)
}
