package goenrich

import (
	"context"

	"github.com/carbocation/fishnet/artifact"
	"github.com/carbocation/fishnet/lookup"
)

// Cache builds each module's universe once per process. Keys are store paths,
// so the same table requested by different sweeps is read once.
type Cache struct {
	layout artifact.Layout
	cache  *lookup.Cache[Universe]
}

// NewCache reads enrichment tables from store and keeps the genes of terms
// with FDR <= cutoff.
func NewCache(store artifact.Store, layout artifact.Layout, cutoff float64) *Cache {
	return &Cache{
		layout: layout,
		cache: lookup.New(func(ctx context.Context, path string) (Universe, error) {
			rc, err := artifact.OpenArtifact(ctx, store, path)
			if err != nil {
				return nil, err
			}
			defer rc.Close()

			rows, err := Read(path, rc)
			if err != nil {
				return nil, err
			}

			return Build(rows, cutoff), nil
		}),
	}
}

// Universe returns the GO universe of the module named by key. A missing
// table yields a *fishnet.MissingArtifactError.
func (c *Cache) Universe(ctx context.Context, key artifact.GOEnrichment) (Universe, error) {
	return c.cache.Get(ctx, c.layout.Path(key))
}
