// Package permutation builds the empirical null distribution of the MEA
// passing count at one threshold by rerunning the computation on permuted
// trait labels.
package permutation

import (
	"context"
	"errors"
	"io"
	"math"

	"github.com/carbocation/fishnet"
	"github.com/carbocation/fishnet/artifact"
	"github.com/carbocation/fishnet/empirical"
	"github.com/carbocation/fishnet/mea"
	"github.com/carbocation/fishnet/metrics"
	"github.com/carbocation/fishnet/modulesig"
	"github.com/carbocation/fishnet/rankedgenes"
	"github.com/carbocation/fishnet/sweep"
	"github.com/carbocation/fishnet/tables"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ProgressEvery is how often, in replicates, progress is logged.
const ProgressEvery = 100

// Input names one permutation run. Replicate i reads the gene table
// "{i}-{Trait}" and the module-significance rows tagged "{i}-{Trait}".
type Input struct {
	Trait   string
	Network string
	// Study is the study component of GO enrichment file names. It
	// defaults to Trait.
	Study        string
	Threshold    float64
	Permutations int
	Significance *modulesig.Table
}

// Replicate is the outcome of one permuted run.
type Replicate struct {
	Replicate  int
	Count      int
	Candidates int
	TotalGenes int
	Resumed    bool
}

// Fraction is the count over the policy's denominator.
func (r Replicate) Fraction(policy sweep.Policy, threshold float64) float64 {
	d := policy.Denominator(threshold, r.Candidates)
	if d <= 0 {
		return math.NaN()
	}
	return float64(r.Count) / d
}

// Outcome collects every replicate of a run, in replicate order.
type Outcome struct {
	Threshold  float64
	Replicates []Replicate
}

// Counts returns the null distribution.
func (o Outcome) Counts() []int {
	out := make([]int, len(o.Replicates))
	for i, r := range o.Replicates {
		out[i] = r.Count
	}
	return out
}

// Summary digests the run: the mean count, the mean fraction and the false
// positives per X metric over the last replicate's gene table size.
func (o Outcome) Summary(policy sweep.Policy) tables.NullSummaryRow {
	row := tables.NullSummaryRow{
		Threshold:           tables.Threshold(o.Threshold),
		AveragePassing:      tables.Float(math.NaN()),
		AverageFraction:     tables.Float(math.NaN()),
		FalsePositivesPerFP: -1,
	}
	if len(o.Replicates) == 0 {
		return row
	}

	var sum, fractions float64
	for _, r := range o.Replicates {
		sum += float64(r.Count)
		fractions += r.Fraction(policy, o.Threshold)
	}
	n := float64(len(o.Replicates))
	mean := sum / n

	row.AveragePassing = tables.Float(mean)
	row.AverageFraction = tables.Float(fractions / n)
	row.FalsePositivesPerFP = tables.Float(empirical.FalsePositivesPer(mean, o.Replicates[len(o.Replicates)-1].TotalGenes))

	return row
}

// Engine runs permutation sweeps. Replicates are independent and computed
// by up to Workers goroutines; each one is checkpointed as it completes.
type Engine struct {
	Calculator *mea.Calculator
	Store      artifact.Store
	Layout     artifact.Layout
	Workers    int
	// Resume reads existing replicate checkpoints instead of recomputing
	// them.
	Resume  bool
	Log     logrus.FieldLogger
	Metrics *metrics.Collector
}

func (e *Engine) log() logrus.FieldLogger {
	if e.Log == nil {
		return logrus.StandardLogger()
	}
	return e.Log
}

// Run computes replicates 1..in.Permutations at in.Threshold.
func (e *Engine) Run(ctx context.Context, policy sweep.Policy, in Input) (*Outcome, error) {
	if in.Study == "" {
		in.Study = in.Trait
	}

	out := &Outcome{
		Threshold:  in.Threshold,
		Replicates: make([]Replicate, in.Permutations),
	}

	g, ctx := errgroup.WithContext(ctx)
	if e.Workers > 0 {
		g.SetLimit(e.Workers)
	}

	for i := 1; i <= in.Permutations; i++ {
		i := i
		g.Go(func() error {
			rep, err := e.replicate(ctx, policy, in, i)
			if err != nil {
				return err
			}
			out.Replicates[i-1] = rep

			e.Metrics.ReplicateDone(rep.Resumed)
			if i%ProgressEvery == 0 {
				e.log().WithFields(logrus.Fields{
					"trait":     in.Trait,
					"network":   in.Network,
					"threshold": in.Threshold,
					"replicate": i,
				}).Info("Permutation progress")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func (e *Engine) checkpointKey(policy sweep.Policy, in Input, replicate int) artifact.ReplicateCount {
	return artifact.ReplicateCount{
		Trait:     in.Trait,
		Network:   in.Network,
		Threshold: policy.FormatThreshold(in.Threshold),
		Replicate: replicate,
	}
}

func (e *Engine) replicate(ctx context.Context, policy sweep.Policy, in Input, replicate int) (Replicate, error) {
	key := e.checkpointKey(policy, in, replicate)

	if e.Resume {
		rep, err := e.readCheckpoint(ctx, key)
		if err == nil {
			return rep, nil
		}
		var ma *fishnet.MissingArtifactError
		if !errors.As(err, &ma) {
			return Replicate{}, err
		}
	}

	genes, err := e.readGenes(ctx, in.Trait, replicate)
	if err != nil {
		return Replicate{}, err
	}

	tagged := artifact.TaggedTrait(replicate, in.Trait)
	candidates := policy.Candidates(genes, in.Threshold)

	res, err := e.Calculator.Passing(ctx, mea.Request{
		Trait:      tagged,
		Study:      in.Study,
		Network:    in.Network,
		Enriched:   in.Significance.Modules(policy.Filter(modulesig.Filter{Trait: tagged, Network: in.Network}, in.Threshold)),
		Candidates: candidates,
		Threshold:  in.Threshold,
		Replicate:  replicate,
	})
	if err != nil {
		return Replicate{}, err
	}

	rep := Replicate{
		Replicate:  replicate,
		Count:      res.Count,
		Candidates: len(candidates),
		TotalGenes: genes.Len(),
	}

	err = artifact.WriteFunc(ctx, e.Store, e.Layout.Path(key), func(w io.Writer) error {
		return tables.Write(w, []tables.CheckpointRow{{
			Rank:       tables.Threshold(in.Threshold),
			Count:      rep.Count,
			Candidates: rep.Candidates,
			TotalGenes: rep.TotalGenes,
		}})
	})
	if err != nil {
		return Replicate{}, err
	}

	return rep, nil
}

func (e *Engine) readGenes(ctx context.Context, trait string, replicate int) (*rankedgenes.Set, error) {
	path := e.Layout.Path(artifact.GenePvalues{Trait: trait, Replicate: replicate})
	rc, err := artifact.OpenArtifact(ctx, e.Store, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return rankedgenes.Read(path, rc)
}

func (e *Engine) readCheckpoint(ctx context.Context, key artifact.ReplicateCount) (Replicate, error) {
	path := e.Layout.Path(key)
	rc, err := artifact.OpenArtifact(ctx, e.Store, path)
	if err != nil {
		return Replicate{}, err
	}
	defer rc.Close()

	rows := make([]tables.CheckpointRow, 0)
	if err := tables.Read(path, rc, &rows, tables.CheckpointColumns...); err != nil {
		return Replicate{}, err
	}
	if len(rows) != 1 {
		return Replicate{}, &fishnet.MalformedInputError{Source: path, Message: "a checkpoint holds exactly one row"}
	}

	return Replicate{
		Replicate:  key.Replicate,
		Count:      rows[0].Count,
		Candidates: rows[0].Candidates,
		TotalGenes: rows[0].TotalGenes,
		Resumed:    true,
	}, nil
}

// Write persists the replicate table and its one-row summary.
func (e *Engine) Write(ctx context.Context, policy sweep.Policy, in Input, out *Outcome) error {
	threshold := policy.FormatThreshold(in.Threshold)

	countsPath := e.Layout.Path(artifact.NullCounts{Trait: in.Trait, Network: in.Network, Threshold: threshold, Permutations: in.Permutations})
	err := artifact.WriteFunc(ctx, e.Store, countsPath, func(w io.Writer) error {
		rows := make([]tables.ReplicateRow, 0, len(out.Replicates))
		for _, r := range out.Replicates {
			rows = append(rows, tables.ReplicateRow{Rank: tables.Threshold(out.Threshold), Count: r.Count})
		}
		return tables.Write(w, rows)
	})
	if err != nil {
		return err
	}

	summaryPath := e.Layout.Path(artifact.NullSummary{Trait: in.Trait, Network: in.Network, Threshold: threshold, Permutations: in.Permutations})
	return artifact.WriteFunc(ctx, e.Store, summaryPath, func(w io.Writer) error {
		return tables.Write(w, []tables.NullSummaryRow{out.Summary(policy)})
	})
}
