// Package identify picks the FISHNET genes of a trait and network: the
// true-label passing genes at the largest rank whose empirical FDR and
// observed percentile both clear their cutoffs.
package identify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/carbocation/fishnet"
	"github.com/carbocation/fishnet/artifact"
	"github.com/carbocation/fishnet/empirical"
	"github.com/carbocation/fishnet/rankedgenes"
	"github.com/carbocation/fishnet/sweep"
	"github.com/carbocation/fishnet/tables"
	"github.com/sirupsen/logrus"
)

// DefaultRankFraction bounds the ranks considered to the top 5% of genes.
const DefaultRankFraction = 0.05

// Criteria are the cutoffs a rank must clear.
type Criteria struct {
	FDR        float64
	Percentile float64
	// RankFraction limits eligible ranks to int(genes*RankFraction).
	RankFraction float64
}

// NominalCount counts genes with p <= 0.05, floored to a multiple of ten.
func NominalCount(genes *rankedgenes.Set) int {
	return genes.NominalCount(rankedgenes.NominalAlpha) / 10 * 10
}

// Select returns the largest eligible rank of summary, or false if no rank
// qualifies. A NaN FDR never qualifies.
func Select(summary []tables.FDRSummaryRow, totalGenes int, c Criteria) (tables.FDRSummaryRow, bool) {
	maxRank := float64(rankedgenes.FractionRank(totalGenes, c.RankFraction))

	var best tables.FDRSummaryRow
	found := false
	for _, row := range summary {
		rank := float64(row.Ranks)
		fdr := float64(row.FDR)
		if rank > maxRank || math.IsNaN(fdr) {
			continue
		}
		if !(float64(row.ObservedPercentile) >= c.Percentile) || !(fdr <= c.FDR) {
			continue
		}
		if !found || rank > float64(best.Ranks) {
			best = row
			found = true
		}
	}

	return best, found
}

// Input names the trait and network to identify genes for.
type Input struct {
	Trait        string
	Network      string
	Permutations int
	Criteria     Criteria
}

// Identifier reads a finished run and writes its FISHNET genes.
type Identifier struct {
	Store  artifact.Store
	Layout artifact.Layout
	Log    logrus.FieldLogger
}

// Run returns nil, with nothing written, when the run has no FDR summary or
// no rank qualifies.
func (id *Identifier) Run(ctx context.Context, in Input) (*tables.FishnetRow, error) {
	log := id.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithFields(logrus.Fields{"trait": in.Trait, "network": in.Network})

	genesPath := id.Layout.Path(artifact.GenePvalues{Trait: in.Trait, Replicate: 0})
	rc, err := artifact.OpenArtifact(ctx, id.Store, genesPath)
	if err != nil {
		return nil, err
	}
	genes, err := rankedgenes.Read(genesPath, rc)
	rc.Close()
	if err != nil {
		return nil, err
	}

	summary, err := empirical.ReadReport(ctx, id.Store, id.Layout, artifact.FDRSummary{Trait: in.Trait, Network: in.Network, Permutations: in.Permutations})
	var ma *fishnet.MissingArtifactError
	if errors.As(err, &ma) {
		log.WithField("key", ma.Path).Warn("No FDR summary, nothing to identify")
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	picked, ok := Select(summary, genes.Len(), in.Criteria)
	if !ok {
		log.Info("No rank passes the FDR and percentile cutoffs")
		return nil, nil
	}

	passing, err := sweep.ReadGenes(ctx, id.Store, id.Layout, in.Trait, in.Network)
	if err != nil {
		return nil, err
	}

	var list tables.GeneList
	found := false
	for _, row := range passing {
		if row.Threshold == picked.Ranks {
			list, found = row.Genes, true
			break
		}
	}
	if !found {
		return nil, &fishnet.MalformedInputError{
			Source:  id.Layout.Path(artifact.ORGenes{Trait: in.Trait, Network: in.Network}),
			Message: fmt.Sprintf("no gene list for threshold %v", float64(picked.Ranks)),
		}
	}

	out := &tables.FishnetRow{
		Threshold:       picked.Ranks,
		Network:         in.Network,
		NumNominal:      NominalCount(genes),
		Trait:           artifact.TaggedTrait(0, in.Trait),
		NumFISHNETGenes: picked.NumMEAPassing,
		FISHNETGenes:    list,
	}

	path := id.Layout.Path(artifact.FishnetGenes{Trait: in.Trait, Network: in.Network, Permutations: in.Permutations, FDR: in.Criteria.FDR})
	err = artifact.WriteFunc(ctx, id.Store, path, func(w io.Writer) error {
		return tables.Write(w, []tables.FishnetRow{*out})
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"threshold": float64(picked.Ranks), "genes": len(list)}).Info("Identified FISHNET genes")

	return out, nil
}
