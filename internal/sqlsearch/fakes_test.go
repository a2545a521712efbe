package sqlsearch

import (
	"context"

	"github.com/skeema/dbnav/internal/meta"
)

// This file contains in-memory implementations of the meta interfaces, which
// record how the resolver interacts with them.

type fakeObject struct {
	name   string
	typ    meta.ObjectType
	parent meta.Object
	ds     *fakeDataSource
}

func (obj *fakeObject) Name() string                { return obj.name }
func (obj *fakeObject) ObjectType() meta.ObjectType { return obj.typ }
func (obj *fakeObject) Parent() meta.Object         { return obj.parent }
func (obj *fakeObject) DataSource() meta.DataSource { return obj.ds }

type fakeContainer struct {
	fakeObject
	children map[string]meta.Object
	offline  bool
	err      error
	lookups  []string
}

func (c *fakeContainer) Child(ctx context.Context, name string) (meta.Object, error) {
	c.lookups = append(c.lookups, name)
	if c.err != nil {
		return nil, c.err
	}
	return c.children[name], nil
}

func (c *fakeContainer) CacheStructure(ctx context.Context, scope meta.StructScope) error {
	return c.err
}

func (c *fakeContainer) Connected() bool {
	return !c.offline
}

func (c *fakeContainer) addContainer(name string, typ meta.ObjectType) *fakeContainer {
	child := &fakeContainer{
		fakeObject: fakeObject{name: name, typ: typ, parent: c, ds: c.ds},
		children:   make(map[string]meta.Object),
	}
	c.children[name] = child
	return child
}

func (c *fakeContainer) addObject(name string, typ meta.ObjectType) *fakeObject {
	child := &fakeObject{name: name, typ: typ, parent: c, ds: c.ds}
	c.children[name] = child
	return child
}

// countingDialect counts case transformations.
type countingDialect struct {
	*meta.Dialect
	transforms int
}

func (d *countingDialect) TransformName(name string) string {
	d.transforms++
	return d.Dialect.TransformName(name)
}

type fakeReference struct {
	obj meta.Object
}

func (ref fakeReference) Name() string                { return ref.obj.Name() }
func (ref fakeReference) ObjectType() meta.ObjectType { return ref.obj.ObjectType() }
func (ref fakeReference) Resolve(ctx context.Context) (meta.Object, error) {
	return ref.obj, nil
}

// fakeDataSource is the data source, and also the structure assistant. Its
// root container is returned by root.
type fakeDataSource struct {
	root          *fakeContainer
	dialect       *countingDialect
	noExtraReads  bool
	ec            *fakeContext
	searchResults []meta.Object
	searches      []meta.SearchParams
}

func (ds *fakeDataSource) Dialect() meta.SQLDialect              { return ds.dialect }
func (ds *fakeDataSource) ExtraMetadataReadEnabled() bool        { return !ds.noExtraReads }
func (ds *fakeDataSource) DefaultContext() meta.ExecutionContext { return ds.ec }

func (ds *fakeDataSource) AutoCompleteObjectTypes() []meta.ObjectType {
	return []meta.ObjectType{meta.ObjectTypeTable, meta.ObjectTypeView}
}

func (ds *fakeDataSource) FindObjectsByMask(ctx context.Context, ec meta.ExecutionContext, params meta.SearchParams) ([]meta.ObjectReference, error) {
	ds.searches = append(ds.searches, params)
	refs := make([]meta.ObjectReference, 0, len(ds.searchResults))
	for _, obj := range ds.searchResults {
		refs = append(refs, fakeReference{obj: obj})
	}
	return refs, nil
}

type fakeContext struct {
	ds       *fakeDataSource
	defaults *meta.ContextDefaults
	calls    int
}

func (ec *fakeContext) DataSource() meta.DataSource { return ec.ds }

func (ec *fakeContext) ContextDefaults(ctx context.Context) (*meta.ContextDefaults, error) {
	ec.calls++
	return ec.defaults, nil
}

// newFakeDataSource returns a data source using lower-case identifier
// storage and backtick quoting, with an empty root container and an execution
// context without defaults.
func newFakeDataSource() *fakeDataSource {
	ds := &fakeDataSource{
		dialect: &countingDialect{Dialect: meta.MustLookupDialect("mysql").WithStoredCase(meta.CaseLower)},
	}
	ds.root = &fakeContainer{
		fakeObject: fakeObject{name: "fake", typ: meta.ObjectTypeDataSource, ds: ds},
		children:   make(map[string]meta.Object),
	}
	ds.ec = &fakeContext{ds: ds}
	return ds
}
