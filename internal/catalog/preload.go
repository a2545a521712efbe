package catalog

import (
	"context"

	"github.com/nozzle/throttler"
	"github.com/skeema/dbnav/internal/meta"
)

// Preload loads the contents of every child container of root, using up to
// concurrency simultaneous loads. The first error encountered is returned.
func Preload(ctx context.Context, root *Container, concurrency int) error {
	children, err := root.Children(ctx)
	if err != nil || len(children) == 0 {
		return err
	}
	if concurrency < 1 {
		concurrency = 1
	}
	th := throttler.New(concurrency, len(children))
	for _, child := range children {
		go func(c meta.Object) {
			if container, ok := c.(meta.Container); ok {
				th.Done(container.CacheStructure(ctx, meta.StructAll))
			} else {
				th.Done(nil)
			}
		}(child)
		th.Throttle()
	}
	if errs := th.Errs(); len(errs) > 0 {
		return errs[0]
	}
	return nil
}
