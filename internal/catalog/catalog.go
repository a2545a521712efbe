// Package catalog provides a lazily-populated, mutex-guarded cache of catalog
// objects, which database-specific backends build on by supplying loader
// functions.
package catalog

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
	"github.com/skeema/dbnav/internal/meta"
)

// Object is a leaf in a catalog hierarchy. It satisfies meta.Object.
type Object struct {
	name       string
	typ        meta.ObjectType
	parent     meta.Object
	dataSource meta.DataSource

	// Properties holds backend-specific attributes such as a comment or
	// a routine's return type.
	Properties map[string]string
}

// NewObject returns a leaf object. Its data source is inherited from parent.
func NewObject(name string, typ meta.ObjectType, parent meta.Object) *Object {
	obj := &Object{
		name:       name,
		typ:        typ,
		parent:     parent,
		Properties: make(map[string]string),
	}
	if parent != nil {
		obj.dataSource = parent.DataSource()
	}
	return obj
}

// Name returns the object's name, as stored by the database.
func (obj *Object) Name() string { return obj.name }

// ObjectType returns the object's type.
func (obj *Object) ObjectType() meta.ObjectType { return obj.typ }

// Parent returns the owning object, or nil for a root.
func (obj *Object) Parent() meta.Object { return obj.parent }

// DataSource returns the data source this object belongs to.
func (obj *Object) DataSource() meta.DataSource { return obj.dataSource }

// ObjectKey returns a key combining the object's type and name.
func (obj *Object) ObjectKey() meta.ObjectKey {
	return meta.ObjectKey{Type: obj.typ, Name: obj.name}
}

// Loader returns the children of a container. It is called at most once per
// container between refreshes.
type Loader func(ctx context.Context, c *Container) ([]meta.Object, error)

// Container is an Object whose children are read on demand by a Loader, and
// then cached. It satisfies meta.Container and meta.Connectable.
type Container struct {
	*Object
	loader          Loader
	caseInsensitive bool
	foldTypes       []meta.ObjectType

	offline atomic.Bool

	m        sync.Mutex // protects fields below
	loaded   bool
	children []meta.Object
	byName   map[string]meta.Object
	byFolded map[string]meta.Object // children of foldTypes, by lowercased name
}

// NewContainer returns a container whose children will be populated by loader.
func NewContainer(name string, typ meta.ObjectType, parent meta.Object, loader Loader) *Container {
	return &Container{
		Object: NewObject(name, typ, parent),
		loader: loader,
	}
}

// NewRoot returns a container with no parent, to serve as a data source's
// root. The caller must call Bind once the data source wrapping it exists.
func NewRoot(name string, loader Loader) *Container {
	return NewContainer(name, meta.ObjectTypeDataSource, nil, loader)
}

// Bind sets the data source of a root container.
func (c *Container) Bind(ds meta.DataSource) {
	c.Object.dataSource = ds
}

// SetCaseInsensitive controls whether Child compares names case-insensitively.
// It must be called before the container is loaded.
func (c *Container) SetCaseInsensitive(ci bool) {
	c.caseInsensitive = ci
}

// SetCaseInsensitiveTypes makes Child fall back to a case-insensitive match
// for children of the supplied types, even if the container is otherwise
// case-sensitive. It must be called before the container is loaded.
func (c *Container) SetCaseInsensitiveTypes(types ...meta.ObjectType) {
	c.foldTypes = types
}

func (c *Container) key(name string) string {
	if c.caseInsensitive {
		return strings.ToLower(name)
	}
	return name
}

// Connected returns false if the container has been marked offline.
func (c *Container) Connected() bool {
	return !c.offline.Load()
}

// SetConnected marks the container online or offline. Loaders may call this on
// the container they are populating.
func (c *Container) SetConnected(connected bool) {
	c.offline.Store(!connected)
}

// Loaded returns true if the container's children are currently cached.
func (c *Container) Loaded() bool {
	c.m.Lock()
	defer c.m.Unlock()
	return c.loaded
}

// load populates the child cache if needed. In cache-only mode an unloaded
// container stays unloaded, and false is returned.
func (c *Container) load(ctx context.Context) (bool, error) {
	c.m.Lock()
	defer c.m.Unlock()
	if c.loaded {
		return true, nil
	}
	if meta.IsCacheOnly(ctx) || c.loader == nil {
		return false, nil
	}
	children, err := c.loader(ctx, c)
	if err != nil {
		return false, err
	}
	c.byName = make(map[string]meta.Object, len(children))
	if len(c.foldTypes) > 0 {
		c.byFolded = make(map[string]meta.Object)
	}
	for _, child := range children {
		k := c.key(child.Name())
		if _, dupe := c.byName[k]; dupe {
			log.Debugf("Ignoring duplicate %s %s in %s %s", child.ObjectType(), child.Name(), c.ObjectType(), c.Name())
			continue
		}
		c.byName[k] = child
		c.children = append(c.children, child)
		if slices.Contains(c.foldTypes, child.ObjectType()) {
			folded := strings.ToLower(child.Name())
			if _, already := c.byFolded[folded]; !already {
				c.byFolded[folded] = child
			}
		}
	}
	c.loaded = true
	return true, nil
}

// CacheStructure loads the container's children, unless they are already
// cached or ctx requests cache-only behavior.
func (c *Container) CacheStructure(ctx context.Context, scope meta.StructScope) error {
	_, err := c.load(ctx)
	return err
}

// Child returns the child with the supplied name, or nil if none exists. Names
// that miss are retried case-insensitively against children of the types given
// to SetCaseInsensitiveTypes.
func (c *Container) Child(ctx context.Context, name string) (meta.Object, error) {
	if ok, err := c.load(ctx); !ok {
		return nil, err
	}
	c.m.Lock()
	defer c.m.Unlock()
	if child, ok := c.byName[c.key(name)]; ok {
		return child, nil
	}
	return c.byFolded[strings.ToLower(name)], nil
}

// Children returns all children in load order.
func (c *Container) Children(ctx context.Context) ([]meta.Object, error) {
	if ok, err := c.load(ctx); !ok {
		return nil, err
	}
	c.m.Lock()
	defer c.m.Unlock()
	return append([]meta.Object(nil), c.children...), nil
}
