// Package sqlsearch resolves qualified SQL identifiers, such as those typed
// while editing a query, to objects in a data source's catalog.
package sqlsearch

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/skeema/dbnav/internal/meta"
)

// Options configures name resolution.
type Options struct {
	// UseAssistant permits a structure assistant name-mask search as a last
	// resort, for single-part names which could not be found exactly.
	UseAssistant bool

	// GlobalSearch widens the assistant search beyond the starting container.
	GlobalSearch bool
}

// assistantMaxResults caps the structure assistant search; only the first
// result is ever used.
const assistantMaxResults = 2

// searchPath is a name path along with whether each part was originally
// quoted. Quoting is remembered separately since the parts themselves have
// already been unquoted.
type searchPath struct {
	names  []string
	quoted []bool
}

func (sp searchPath) String() string {
	return strings.Join(sp.names, ".")
}

// FindObjectByFQN resolves names, a possibly-qualified identifier split into
// its parts (which may each be quoted), to a single object. Resolution starts
// at container, or at the data source of ec if container is nil.
//
// Names are first looked up with quotes removed but case intact. If nothing
// matches, every unquoted part is case-folded according to the data source's
// dialect and the lookup is attempted once more. The first pass is skipped
// when ctx requests cache-only behavior or the data source has extra metadata
// reads disabled.
//
// Errors from the catalog are logged and treated as "not found". The supplied
// names slice is not modified.
func FindObjectByFQN(ctx context.Context, container meta.Container, ec meta.ExecutionContext, names []string, opts Options) meta.Object {
	if len(names) == 0 {
		return nil
	}
	var ds meta.DataSource
	if container != nil {
		ds = container.DataSource()
	}
	if ec == nil && ds != nil {
		ec = ds.DefaultContext()
	}
	if ds == nil && ec != nil {
		ds = ec.DataSource()
	}
	if ds == nil {
		return nil
	}
	if container == nil {
		if root, ok := ds.(meta.Container); ok {
			container = root
		}
	}
	if !ds.ExtraMetadataReadEnabled() {
		ctx = meta.WithCacheOnly(ctx)
	}

	dialect := ds.Dialect()
	quoted := make([]bool, len(names))
	for n, name := range names {
		quoted[n] = dialect.IsQuoted(name)
	}

	if !meta.IsCacheOnly(ctx) {
		exact := searchPath{names: make([]string, len(names)), quoted: quoted}
		for n, name := range names {
			exact.names[n] = dialect.Unquote(name)
		}
		if result := findObjectByPath(ctx, ec, container, exact, opts); result != nil {
			return result
		}
		log.Debugf("No exact match for %s; retrying with case-folded names", exact)
	}

	normalized := searchPath{names: make([]string, len(names)), quoted: quoted}
	for n, name := range names {
		if quoted[n] {
			normalized.names[n] = dialect.Unquote(name)
		} else {
			normalized.names[n] = dialect.TransformName(name)
		}
	}
	return findObjectByPath(ctx, ec, container, normalized, opts)
}

// FindObjectByPath resolves names without any case transformation: first via
// the default schema and default catalog of ec, then by walking down from
// container and each of its ancestors in turn, and finally (for single-part
// names only) via a structure assistant search. Quoted parts are unquoted
// first; quoting also makes the assistant search case-sensitive.
func FindObjectByPath(ctx context.Context, ec meta.ExecutionContext, container meta.Container, names []string, opts Options) meta.Object {
	if len(names) == 0 {
		return nil
	}
	var ds meta.DataSource
	if container != nil {
		ds = container.DataSource()
	} else if ec != nil {
		ds = ec.DataSource()
	}
	path := searchPath{names: append([]string(nil), names...), quoted: make([]bool, len(names))}
	if ds != nil {
		dialect := ds.Dialect()
		for n, name := range names {
			path.quoted[n] = dialect.IsQuoted(name)
			path.names[n] = dialect.Unquote(name)
		}
	}
	return findObjectByPath(ctx, ec, container, path, opts)
}

func findObjectByPath(ctx context.Context, ec meta.ExecutionContext, container meta.Container, path searchPath, opts Options) meta.Object {
	result, err := searchByPath(ctx, ec, container, path, opts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.Debugf("Lookup of %s aborted: %s", path, ctxErr)
		} else {
			log.Errorf("Unable to look up %s: %s", path, err)
		}
		return nil
	}
	return result
}

func searchByPath(ctx context.Context, ec meta.ExecutionContext, sc meta.Container, path searchPath, opts Options) (meta.Object, error) {
	names := path.names
	if len(names) == 0 {
		return nil, nil
	}

	// Try the session's default schema and default catalog first
	if ec != nil {
		defaults, err := ec.ContextDefaults(ctx)
		if err != nil {
			return nil, err
		}
		if result, err := searchDefaults(ctx, defaults, names); result != nil || err != nil {
			return result, err
		}
	}

	// Walk down from the starting container, then from each of its ancestors
	for sc != nil {
		child, err := FindNestedObject(ctx, sc, names)
		if child != nil || err != nil {
			return child, err
		}
		parent := meta.ParentContainer(sc)
		if parent == nil {
			break
		}
		sc = parent
	}

	if len(names) > 1 || !opts.UseAssistant || meta.IsCacheOnly(ctx) || ctx.Err() != nil {
		return nil, nil
	}

	// Nothing found: the name may be the start of an object name, so ask the
	// structure assistant
	var assistant meta.StructureAssistant
	if sc != nil {
		assistant = meta.AssistantFor(sc)
	} else if ec != nil {
		assistant, _ = ec.DataSource().(meta.StructureAssistant)
	}
	if assistant == nil {
		return nil, nil
	}
	params := meta.SearchParams{
		ObjectTypes:   assistant.AutoCompleteObjectTypes(),
		Mask:          names[0],
		CaseSensitive: path.quoted[0],
		MaxResults:    assistantMaxResults,
		GlobalSearch:  opts.GlobalSearch,
	}
	if sc != nil {
		params.Parent = sc
	}
	refs, err := assistant.FindObjectsByMask(ctx, ec, params)
	if err != nil || len(refs) == 0 {
		return nil, err
	}
	return refs[0].Resolve(ctx)
}

// searchDefaults looks names up relative to the default schema and default
// catalog. Only hits short-circuit; misses are not errors.
func searchDefaults(ctx context.Context, defaults *meta.ContextDefaults, names []string) (meta.Object, error) {
	if defaults == nil {
		return nil, nil
	}
	if len(names) == 1 && defaults.Schema != nil {
		entity, err := defaults.Schema.Child(ctx, names[0])
		if entity != nil || err != nil {
			return entity, err
		}
	}
	if defaults.Catalog == nil {
		return nil, nil
	}
	child, err := defaults.Catalog.Child(ctx, names[0])
	if child == nil || err != nil {
		return nil, err
	}
	if len(names) == 1 {
		return child, nil
	}
	if schema, ok := child.(meta.Container); ok && len(names) == 2 {
		entity, err := schema.Child(ctx, names[1])
		if entity != nil || err != nil {
			return entity, err
		}
	}
	return nil, nil
}

// FindNestedObject resolves names as a chain of child lookups starting at
// parent. It returns nil if any link is missing, belongs to a disconnected
// container, or is not itself a container when more names remain. The walk is
// abandoned early if ctx is cancelled.
func FindNestedObject(ctx context.Context, parent meta.Container, names []string) (meta.Object, error) {
	for n, name := range names {
		if ctx.Err() != nil {
			break
		}
		if err := parent.CacheStructure(ctx, meta.StructEntities); err != nil {
			return nil, err
		}
		child, err := parent.Child(ctx, name)
		if err != nil {
			return nil, err
		}
		if child == nil || !meta.IsConnectedContainer(child) {
			break
		}
		if n == len(names)-1 {
			return child, nil
		}
		next, ok := child.(meta.Container)
		if !ok {
			break
		}
		parent = next
	}
	return nil, nil
}
