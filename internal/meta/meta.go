// Package meta defines the object model shared by dbnav's catalog backends and
// its name resolver: objects, containers, data sources, execution contexts and
// structure assistants. Backends implement these interfaces; the resolver only
// ever consumes them.
package meta

import (
	"context"
	"fmt"
	"strings"
)

// ObjectType defines a class of object in a relational database system.
type ObjectType string

// Constants enumerating valid object types.
const (
	ObjectTypeNil        ObjectType = ""
	ObjectTypeDataSource ObjectType = "datasource"
	ObjectTypeCatalog    ObjectType = "catalog"
	ObjectTypeSchema     ObjectType = "schema"
	ObjectTypeTable      ObjectType = "table"
	ObjectTypeView       ObjectType = "view"
	ObjectTypeProc       ObjectType = "procedure"
	ObjectTypeFunc       ObjectType = "function"
	ObjectTypeTrigger    ObjectType = "trigger"
	ObjectTypeScript     ObjectType = "script"
	ObjectTypeColumn     ObjectType = "column"
)

// Caps returns the object type as an uppercase string.
func (ot ObjectType) Caps() string {
	return strings.ToUpper(string(ot))
}

// ObjectKey is useful as a map key for indexing database objects within a
// single container.
type ObjectKey struct {
	Type ObjectType
	Name string
}

func (key ObjectKey) String() string {
	return fmt.Sprintf("%s %s", key.Type, key.Name)
}

// Object is implemented by every node of a catalog hierarchy.
type Object interface {
	Name() string
	ObjectType() ObjectType

	// Parent returns the object owning this one, or nil for the root of the
	// hierarchy.
	Parent() Object

	DataSource() DataSource
}

// StructScope tells CacheStructure how much of a container's structure to
// read.
type StructScope int

// Constants enumerating structure scopes.
const (
	StructEntities StructScope = 1 << iota
	StructAttributes
	StructAll = StructEntities | StructAttributes
)

// Container is an Object capable of holding child objects: a catalog, a
// schema, or the data source itself.
type Container interface {
	Object

	// Child returns the immediate child with the supplied name, or nil if
	// there is no such child. A nil object with a nil error means "not found".
	Child(ctx context.Context, name string) (Object, error)

	// CacheStructure ensures the container's children are loaded.
	CacheStructure(ctx context.Context, scope StructScope) error
}

// Connectable is implemented by containers which may be offline, for example
// a schema that the current user cannot access.
type Connectable interface {
	Connected() bool
}

// DataSource is a connection to a database server, and the root of its
// catalog hierarchy.
type DataSource interface {
	Dialect() SQLDialect

	// ExtraMetadataReadEnabled returns false if name resolution should rely
	// only on already-cached metadata.
	ExtraMetadataReadEnabled() bool

	// DefaultContext returns the main execution context of the data source.
	DefaultContext() ExecutionContext
}

// ContextDefaults holds the default catalog and default schema of an execution
// context. Either may be nil.
type ContextDefaults struct {
	Catalog Container
	Schema  Container
}

// ExecutionContext represents a session on a data source.
type ExecutionContext interface {
	DataSource() DataSource

	// ContextDefaults returns the session's defaults, or nil if the context
	// does not track any.
	ContextDefaults(ctx context.Context) (*ContextDefaults, error)
}

// SearchParams configures a StructureAssistant search.
type SearchParams struct {
	ObjectTypes   []ObjectType
	Mask          string
	Parent        Object
	CaseSensitive bool
	MaxResults    int
	GlobalSearch  bool
}

// ObjectReference is a lightweight search result which can be resolved into
// the real object.
type ObjectReference interface {
	Name() string
	ObjectType() ObjectType
	Resolve(ctx context.Context) (Object, error)
}

// StructureAssistant finds objects by name mask.
type StructureAssistant interface {
	AutoCompleteObjectTypes() []ObjectType
	FindObjectsByMask(ctx context.Context, ec ExecutionContext, params SearchParams) ([]ObjectReference, error)
}

// ParentContainer returns the nearest ancestor of obj which is a Container, or
// nil if there is none.
func ParentContainer(obj Object) Container {
	for p := obj.Parent(); p != nil; p = p.Parent() {
		if c, ok := p.(Container); ok {
			return c
		}
	}
	return nil
}

// IsConnectedContainer returns false only if obj is a Connectable which is
// currently offline. Nil objects and objects that cannot go offline are
// considered connected.
func IsConnectedContainer(obj Object) bool {
	if c, ok := obj.(Connectable); ok {
		return c.Connected()
	}
	return true
}

// AssistantFor returns the StructureAssistant serving obj: obj itself if it
// implements the interface, otherwise its data source if that does. Returns
// nil if neither does.
func AssistantFor(obj Object) StructureAssistant {
	if obj == nil {
		return nil
	}
	if sa, ok := obj.(StructureAssistant); ok {
		return sa
	}
	if sa, ok := obj.DataSource().(StructureAssistant); ok {
		return sa
	}
	return nil
}

// FullyQualifiedName returns the quoted, dot-separated path of obj, starting at
// its outermost ancestor below the data source.
func FullyQualifiedName(dialect SQLDialect, obj Object) string {
	var parts []string
	for o := obj; o != nil; o = o.Parent() {
		if o.ObjectType() == ObjectTypeDataSource {
			break
		}
		parts = append(parts, dialect.Quote(o.Name()))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

type cacheOnlyKey struct{}

// WithCacheOnly returns a child context which asks backends to answer from
// already-cached metadata only.
func WithCacheOnly(ctx context.Context) context.Context {
	return context.WithValue(ctx, cacheOnlyKey{}, true)
}

// IsCacheOnly returns true if ctx was derived from WithCacheOnly.
func IsCacheOnly(ctx context.Context) bool {
	v, _ := ctx.Value(cacheOnlyKey{}).(bool)
	return v
}
