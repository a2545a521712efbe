package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/skeema/dbnav/internal/meta"
)

// Reference is a search result identified by its path of names below a root
// container. It satisfies meta.ObjectReference.
type Reference struct {
	Root meta.Container
	Path []string // names below Root; last element is the object's own name
	Type meta.ObjectType
}

// Name returns the referenced object's name.
func (ref *Reference) Name() string {
	if len(ref.Path) == 0 {
		return ""
	}
	return ref.Path[len(ref.Path)-1]
}

// ObjectType returns the referenced object's type.
func (ref *Reference) ObjectType() meta.ObjectType {
	return ref.Type
}

// Resolve walks Path from Root, returning the referenced object.
func (ref *Reference) Resolve(ctx context.Context) (meta.Object, error) {
	var current meta.Object = ref.Root
	for _, name := range ref.Path {
		container, ok := current.(meta.Container)
		if !ok {
			return nil, fmt.Errorf("%s %s cannot contain %s", current.ObjectType(), current.Name(), name)
		}
		child, err := container.Child(ctx, name)
		if err != nil {
			return nil, err
		} else if child == nil {
			return nil, fmt.Errorf("%s %s no longer exists", ref.Type, strings.Join(ref.Path, "."))
		}
		current = child
	}
	return current, nil
}

func (ref *Reference) String() string {
	return fmt.Sprintf("%s %s", ref.Type, strings.Join(ref.Path, "."))
}

// LikeMask converts a name mask typed by a user into a LIKE pattern. Masks
// without a % wildcard are treated as prefixes; * and ? are accepted as
// aliases for % and _.
func LikeMask(mask string) string {
	mask = strings.NewReplacer("*", "%", "?", "_").Replace(mask)
	if !strings.Contains(mask, "%") {
		mask += "%"
	}
	return mask
}
