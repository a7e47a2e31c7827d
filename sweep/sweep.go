// Package sweep evaluates the MEA passing set of the true-label run across a
// threshold ladder.
package sweep

import (
	"context"
	"io"
	"math"

	"github.com/carbocation/fishnet/artifact"
	"github.com/carbocation/fishnet/mea"
	"github.com/carbocation/fishnet/metrics"
	"github.com/carbocation/fishnet/modulesig"
	"github.com/carbocation/fishnet/rankedgenes"
	"github.com/carbocation/fishnet/tables"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Input is one trait and network to sweep. Trait is untagged; the sweep
// reads the true-label replicate "0-{Trait}". An empty Study means Trait.
type Input struct {
	Trait        string
	Study        string
	Network      string
	Genes        *rankedgenes.Set
	Significance *modulesig.Table
}

// Row is the outcome at one threshold.
type Row struct {
	Threshold float64
	Count     int
	// Fraction is Count over the threshold (rank ladder) or over the
	// candidate set size (p-value ladder). NaN when that is zero.
	Fraction float64
	Genes    []string
	Result   mea.Result
}

// Engine runs sweeps. Thresholds are independent and evaluated concurrently
// by up to Workers goroutines.
type Engine struct {
	Calculator *mea.Calculator
	Workers    int
	Log        logrus.FieldLogger
	Metrics    *metrics.Collector
}

func (e *Engine) log() logrus.FieldLogger {
	if e.Log == nil {
		return logrus.StandardLogger()
	}
	return e.Log
}

// Run evaluates every threshold of policy. Rows come back in ladder order.
func (e *Engine) Run(ctx context.Context, policy Policy, in Input) ([]Row, error) {
	if in.Study == "" {
		in.Study = in.Trait
	}

	trait := artifact.TaggedTrait(0, in.Trait)
	base := modulesig.Filter{Trait: trait, Network: in.Network, Study: in.Study}

	if len(in.Significance.Select(base)) == 0 {
		e.log().WithFields(logrus.Fields{"trait": trait, "network": in.Network, "study": in.Study}).Info("No enriched module for the trait")
	}

	rows := make([]Row, len(policy.Thresholds))

	g, ctx := errgroup.WithContext(ctx)
	if e.Workers > 0 {
		g.SetLimit(e.Workers)
	}

	for i, threshold := range policy.Thresholds {
		i, threshold := i, threshold
		g.Go(func() error {
			candidates := policy.Candidates(in.Genes, threshold)

			res, err := e.Calculator.Passing(ctx, mea.Request{
				Trait:      trait,
				Study:      in.Study,
				Network:    in.Network,
				Enriched:   in.Significance.Modules(policy.Filter(base, threshold)),
				Candidates: candidates,
				Threshold:  threshold,
			})
			if err != nil {
				return err
			}

			fraction := math.NaN()
			if d := policy.Denominator(threshold, len(candidates)); d > 0 {
				fraction = float64(res.Count) / d
			}

			rows[i] = Row{
				Threshold: threshold,
				Count:     res.Count,
				Fraction:  fraction,
				Genes:     res.Genes,
				Result:    res,
			}

			e.Metrics.ThresholdDone()
			e.log().WithFields(logrus.Fields{
				"trait":     trait,
				"network":   in.Network,
				"threshold": threshold,
				"count":     res.Count,
			}).Debug("Evaluated threshold")

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return rows, nil
}

// Write persists rows as the summary and gene-list tables of the
// true-label run. The p-value ladder's summary omits the fraction column.
func Write(ctx context.Context, store artifact.Store, layout artifact.Layout, policy Policy, in Input, rows []Row) error {
	summaryPath := layout.Path(artifact.ORSummary{Trait: in.Trait, Network: in.Network})
	err := artifact.WriteFunc(ctx, store, summaryPath, func(w io.Writer) error {
		if policy.Variant == PvalueLadder {
			out := make([]tables.PvalueSummaryRow, 0, len(rows))
			for _, r := range rows {
				out = append(out, tables.PvalueSummaryRow{Threshold: tables.Threshold(r.Threshold), Count: r.Count})
			}
			return tables.Write(w, out)
		}

		out := make([]tables.ORSummaryRow, 0, len(rows))
		for _, r := range rows {
			out = append(out, tables.ORSummaryRow{
				Threshold: tables.Threshold(r.Threshold),
				Count:     r.Count,
				Fraction:  tables.Float(r.Fraction),
			})
		}
		return tables.Write(w, out)
	})
	if err != nil {
		return err
	}

	genesPath := layout.Path(artifact.ORGenes{Trait: in.Trait, Network: in.Network})
	return artifact.WriteFunc(ctx, store, genesPath, func(w io.Writer) error {
		out := make([]tables.ORGenesRow, 0, len(rows))
		for _, r := range rows {
			out = append(out, tables.ORGenesRow{Threshold: tables.Threshold(r.Threshold), Genes: tables.GeneList(r.Genes)})
		}
		return tables.Write(w, out)
	})
}

// ReadSummary loads a persisted summary table.
func ReadSummary(ctx context.Context, store artifact.Store, layout artifact.Layout, trait, network string) ([]tables.ORSummaryRow, error) {
	path := layout.Path(artifact.ORSummary{Trait: trait, Network: network})
	rc, err := artifact.OpenArtifact(ctx, store, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	rows := make([]tables.ORSummaryRow, 0)
	if err := tables.Read(path, rc, &rows, tables.ORSummaryColumns...); err != nil {
		return nil, err
	}
	return rows, nil
}

// ReadGenes loads a persisted gene-list table.
func ReadGenes(ctx context.Context, store artifact.Store, layout artifact.Layout, trait, network string) ([]tables.ORGenesRow, error) {
	path := layout.Path(artifact.ORGenes{Trait: trait, Network: network})
	rc, err := artifact.OpenArtifact(ctx, store, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	rows := make([]tables.ORGenesRow, 0)
	if err := tables.Read(path, rc, &rows, tables.ORGenesColumns...); err != nil {
		return nil, err
	}
	return rows, nil
}
