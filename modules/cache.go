package modules

import (
	"context"

	"github.com/carbocation/fishnet/artifact"
	"github.com/carbocation/fishnet/lookup"
)

// Cache parses each network's module file once and shares the Index between
// workers.
type Cache struct {
	*lookup.Cache[*Index]
}

// NewCache reads module files from store at the paths given by layout.
func NewCache(store artifact.Store, layout artifact.Layout) *Cache {
	return &Cache{lookup.New(func(ctx context.Context, network string) (*Index, error) {
		rc, err := artifact.OpenArtifact(ctx, store, layout.Path(artifact.ModuleFile{Network: network}))
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		ix, err := Parse(network, rc)
		if err != nil {
			return nil, err
		}

		return ix, nil
	})}
}

