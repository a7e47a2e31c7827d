// Package mea computes Module Enrichment Analysis passing genes: candidate
// genes that sit in an enriched module and are annotated to one of that
// module's significantly enriched GO terms.
package mea

import (
	"context"
	"errors"
	"sort"

	"github.com/carbocation/fishnet"
	"github.com/carbocation/fishnet/artifact"
	"github.com/carbocation/fishnet/goenrich"
	"github.com/carbocation/fishnet/metrics"
	"github.com/carbocation/fishnet/modules"
	"github.com/sirupsen/logrus"
)

// ModuleSource returns the parsed module file of a network.
type ModuleSource interface {
	Get(ctx context.Context, network string) (*modules.Index, error)
}

// UniverseSource returns the GO universe of one module.
type UniverseSource interface {
	Universe(ctx context.Context, key artifact.GOEnrichment) (goenrich.Universe, error)
}

// Request describes one passing-set computation.
type Request struct {
	// Trait is the replicate-tagged trait, e.g. "0-maleWC".
	Trait string
	// Study is the study component of GO enrichment file names.
	Study   string
	Network string

	// Enriched lists the module indices selected from the
	// module-significance table.
	Enriched []int

	// Candidates is the top-ranked slice of the trait's gene table.
	Candidates []string

	// Threshold and Replicate are carried into the result and logs.
	Threshold float64
	Replicate int
}

// Skip records an enriched module that contributed nothing because one of
// its inputs was absent.
type Skip struct {
	Module int
	Err    error
}

// Result is the outcome of one computation.
type Result struct {
	Threshold float64
	// Count is the number of distinct passing genes.
	Count int
	// Genes is the deduplicated passing set, sorted.
	Genes []string
	// Flattened concatenates each module's qualifying genes in module
	// order. A gene passing through two modules appears twice.
	Flattened []string
	// PerModule maps each enriched module to its qualifying genes.
	PerModule map[int][]string
	Skipped   []Skip
}

// Calculator intersects candidates, module membership and GO universes.
// It holds only read-only sources and may be shared between goroutines.
type Calculator struct {
	Modules   ModuleSource
	Universes UniverseSource
	Log       logrus.FieldLogger
	Metrics   *metrics.Collector
}

func (c *Calculator) log() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

// Passing computes the MEA passing set of req. Zero enriched modules is not
// an error and yields an empty result. A module missing from the module
// file, or missing its GO enrichment table, is logged and skipped. Any other
// failure is returned.
func (c *Calculator) Passing(ctx context.Context, req Request) (Result, error) {
	res := Result{
		Threshold: req.Threshold,
		Genes:     []string{},
		Flattened: []string{},
		PerModule: make(map[int][]string),
	}

	if len(req.Enriched) == 0 {
		return res, nil
	}

	ix, err := c.Modules.Get(ctx, req.Network)
	if err != nil {
		return res, err
	}

	candidates := make(map[string]struct{}, len(req.Candidates))
	for _, gene := range req.Candidates {
		candidates[gene] = struct{}{}
	}

	passing := make(map[string]struct{})
	for _, module := range req.Enriched {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		qualifying, err := c.module(ctx, ix, req, module, candidates)
		if fishnet.IsLocalized(err) {
			c.skip(req, module, err)
			res.Skipped = append(res.Skipped, Skip{Module: module, Err: err})
			continue
		} else if err != nil {
			return res, err
		}

		c.Metrics.ModuleEvaluated()
		res.PerModule[module] = qualifying
		res.Flattened = append(res.Flattened, qualifying...)
		for _, gene := range qualifying {
			passing[gene] = struct{}{}
		}
	}

	for gene := range passing {
		res.Genes = append(res.Genes, gene)
	}
	sort.Strings(res.Genes)
	res.Count = len(res.Genes)

	return res, nil
}

// module returns the candidate genes of one module that lie in its GO
// universe, in module file order.
func (c *Calculator) module(ctx context.Context, ix *modules.Index, req Request, module int, candidates map[string]struct{}) ([]string, error) {
	members, err := ix.Genes(module)
	if err != nil {
		return nil, err
	}

	universe, err := c.Universes.Universe(ctx, artifact.GOEnrichment{
		Study:   req.Study,
		Trait:   req.Trait,
		Network: req.Network,
		Module:  module,
	})
	if err != nil {
		return nil, err
	}

	out := make([]string, 0)
	seen := make(map[string]struct{})
	for _, gene := range members {
		if _, ok := candidates[gene]; !ok {
			continue
		}
		if !universe.Contains(gene) {
			continue
		}
		if _, dup := seen[gene]; dup {
			continue
		}
		seen[gene] = struct{}{}
		out = append(out, gene)
	}

	return out, nil
}

func (c *Calculator) skip(req Request, module int, err error) {
	reason := "missing_artifact"
	var mnf *fishnet.ModuleNotFoundError
	if errors.As(err, &mnf) {
		reason = "module_not_found"
	}
	c.Metrics.ModuleSkipped(reason)

	c.log().WithFields(logrus.Fields{
		"trait":     req.Trait,
		"network":   req.Network,
		"module":    module,
		"replicate": req.Replicate,
		"threshold": req.Threshold,
	}).WithError(err).Warn("Skipping module")
}
