package permutation

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/carbocation/fishnet/artifact"
	"github.com/carbocation/fishnet/empirical"
	"github.com/carbocation/fishnet/goenrich"
	"github.com/carbocation/fishnet/mea"
	"github.com/carbocation/fishnet/modules"
	"github.com/carbocation/fishnet/modulesig"
	"github.com/carbocation/fishnet/sweep"
	"github.com/carbocation/fishnet/tables"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const goHeader = "geneSet,description,size,overlap,FDR,userId\n"

type fixture struct {
	store  *artifact.Memory
	layout artifact.Layout
	sig    *modulesig.Table
	hook   *test.Hook
	log    *logrus.Logger
}

// newFixture lays out three permuted replicates of "trait" over 20 genes.
//
//	replicate 1: modules 1 and 2 enriched, both GO tables present
//	replicate 2: no enriched module
//	replicate 3: modules 1 and 2 enriched, module 1 has no GO table
func newFixture(t *testing.T) *fixture {
	f := &fixture{store: artifact.NewMemory(), layout: artifact.DefaultLayout()}
	f.log, f.hook = test.NewNullLogger()

	f.store.Put(f.layout.Path(artifact.ModuleFile{Network: "coexpr"}), []byte(
		"1\t0.9\tA\tB\tC\n"+
			"2\t0.9\tD\tE\n"))

	genes := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M", "N", "O", "P", "Q", "R", "S", "T"}
	for rep := 1; rep <= 3; rep++ {
		b := strings.Builder{}
		b.WriteString("Genes,p_vals\n")
		for i, g := range genes {
			fmt.Fprintf(&b, "%s,%f\n", g, float64(i+1)/100)
		}
		f.store.Put(f.layout.Path(artifact.GenePvalues{Trait: "trait", Replicate: rep}), []byte(b.String()))
	}

	goKey := func(rep, module int) string {
		return f.layout.Path(artifact.GOEnrichment{Study: "trait", Trait: artifact.TaggedTrait(rep, "trait"), Network: "coexpr", Module: module})
	}
	f.store.Put(goKey(1, 1), []byte(goHeader+"GO:1,x,10,2,0.01,A;C\n"))
	f.store.Put(goKey(1, 2), []byte(goHeader+"GO:2,y,10,2,0.01,D\n"))
	f.store.Put(goKey(3, 2), []byte(goHeader+"GO:2,y,10,2,0.01,D;E\n"))

	sig, err := modulesig.Read("master", strings.NewReader(
		"trait,network,study,moduleIndex,isModuleSig,modulePval,moduleBonPval,size\n"+
			"1-trait,coexpr,trait,1,True,0.001,0.01,3\n"+
			"1-trait,coexpr,trait,2,True,0.001,0.2,2\n"+
			"3-trait,coexpr,trait,1,True,0.001,0.01,3\n"+
			"3-trait,coexpr,trait,2,True,0.001,0.01,2\n"+
			"1-trait,ppi,trait,1,True,0.001,0.01,3\n"))
	require.NoError(t, err)
	f.sig = sig

	return f
}

func (f *fixture) engine(resume bool) *Engine {
	return &Engine{
		Calculator: &mea.Calculator{
			Modules:   modules.NewCache(f.store, f.layout),
			Universes: goenrich.NewCache(f.store, f.layout, goenrich.DefaultFDRCutoff),
			Log:       f.log,
		},
		Store:   f.store,
		Layout:  f.layout,
		Workers: 2,
		Resume:  resume,
		Log:     f.log,
	}
}

func (f *fixture) input(threshold float64) Input {
	return Input{Trait: "trait", Network: "coexpr", Threshold: threshold, Permutations: 3, Significance: f.sig}
}

func TestRankNull(t *testing.T) {
	f := newFixture(t)
	policy := sweep.Policy{Variant: sweep.RankLadder}

	out, err := f.engine(false).Run(context.Background(), policy, f.input(5))
	require.NoError(t, err)

	// Replicate 1: {A,C} from module 1 and {D} from module 2.
	// Replicate 2: nothing is enriched.
	// Replicate 3: module 1 is skipped, module 2 gives {D,E}.
	assert.Equal(t, []int{3, 0, 2}, out.Counts())

	var warned int
	for _, e := range f.hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned++
			assert.Equal(t, 3, e.Data["replicate"])
			assert.Equal(t, 1, e.Data["module"])
		}
	}
	assert.Equal(t, 1, warned)

	summary := out.Summary(policy)
	assert.InDelta(t, 5.0/3, float64(summary.AveragePassing), 1e-12)
	assert.InDelta(t, (3.0/5+0+2.0/5)/3, float64(summary.AverageFraction), 1e-12)
	assert.InDelta(t, 20/(5.0/3), float64(summary.FalsePositivesPerFP), 1e-9)
}

func TestPvalueNull(t *testing.T) {
	f := newFixture(t)
	// Top int(20*0.25) = 5 genes, only modules with moduleBonPval <= 0.05.
	policy := sweep.PvaluePolicy(sweep.DefaultPvalueLadder, 0.25)

	out, err := f.engine(false).Run(context.Background(), policy, f.input(0.05))
	require.NoError(t, err)

	assert.Equal(t, []int{2, 0, 2}, out.Counts())
	for _, r := range out.Replicates {
		assert.Equal(t, 5, r.Candidates)
	}

	ok, err := f.store.Exists(context.Background(), "results/raw/replicates/trait_0.05_coexpr_rp_1.csv")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResumeUsesCheckpoints(t *testing.T) {
	f := newFixture(t)
	policy := sweep.Policy{Variant: sweep.RankLadder}
	in := f.input(5)

	checkpoint := f.layout.Path(artifact.ReplicateCount{Trait: "trait", Network: "coexpr", Threshold: "5", Replicate: 1})
	f.store.Put(checkpoint, []byte("Rank,MEA_passing_genes,candidate_genes,total_genes\n5,4,5,20\n"))

	// Without the gene table, replicate 1 can only come from its checkpoint.
	require.NoError(t, f.store.Remove(f.layout.Path(artifact.GenePvalues{Trait: "trait", Replicate: 1})))

	out, err := f.engine(true).Run(context.Background(), policy, in)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 0, 2}, out.Counts())
	assert.True(t, out.Replicates[0].Resumed)
	assert.False(t, out.Replicates[1].Resumed)

	_, err = f.engine(false).Run(context.Background(), policy, in)
	assert.Error(t, err)
}

func TestWriteThenReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	policy := sweep.Policy{Variant: sweep.RankLadder, Thresholds: []float64{5, 10}}
	e := f.engine(false)

	for _, threshold := range []float64{5, 10} {
		in := f.input(threshold)
		out, err := e.Run(ctx, policy, in)
		require.NoError(t, err)
		require.NoError(t, e.Write(ctx, policy, in, out))
	}

	// A true-label summary with one threshold that was never permuted.
	f.store.Put(f.layout.Path(artifact.ORSummary{Trait: "trait", Network: "coexpr"}), []byte(
		"threshold,mea_passing_genes,fraction_mea_passing_genes\n5,4,0.8\n10,0,0.0\n20,6,0.3\n"))

	rep := &empirical.Reporter{Store: f.store, Layout: f.layout, Log: f.log}
	in := empirical.ReportInput{Trait: "trait", Network: "coexpr", Permutations: 3, Format: policy.FormatThreshold}
	rows, err := rep.Report(ctx, in)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 5.0, rows[0].Threshold)
	assert.InDelta(t, (5.0/3)/4, rows[0].FDR, 1e-12)
	assert.Equal(t, 4, rows[0].Observed)
	assert.Equal(t, 10.0, rows[1].Threshold)
	assert.True(t, rows[1].FDR != rows[1].FDR, "FDR is NaN when nothing was observed")

	require.NoError(t, rep.Write(ctx, in, rows))

	persisted, err := empirical.ReadReport(ctx, f.store, f.layout, artifact.FDRSummary{Trait: "trait", Network: "coexpr", Permutations: 3})
	require.NoError(t, err)
	require.Len(t, persisted, 2)
	assert.Equal(t, 4, persisted[0].NumMEAPassing)
	assert.InDelta(t, rows[0].Lower, persisted[0].ConfidenceInterval.Lower, 1e-9)

	summary := f.layout.Path(artifact.NullSummary{Trait: "trait", Network: "coexpr", Threshold: "5", Permutations: 3})
	rc, err := f.store.Open(ctx, summary)
	require.NoError(t, err)
	defer rc.Close()

	nulls := make([]tables.NullSummaryRow, 0)
	require.NoError(t, tables.Read(summary, rc, &nulls))
	require.Len(t, nulls, 1)
	assert.InDelta(t, 5.0/3, float64(nulls[0].AveragePassing), 1e-9)
}

func TestReportKeepsLadderOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	policy := sweep.PvaluePolicy([]float64{0.05, 0.01, 0.1}, 0.25)
	e := f.engine(false)

	for _, threshold := range policy.Thresholds {
		in := f.input(threshold)
		out, err := e.Run(ctx, policy, in)
		require.NoError(t, err)
		require.NoError(t, e.Write(ctx, policy, in, out))
	}

	f.store.Put(f.layout.Path(artifact.ORSummary{Trait: "trait", Network: "coexpr"}), []byte(
		"threshold,mea_passing_genes\n0.05,3\n0.01,2\n0.1,4\n"))

	rep := &empirical.Reporter{Store: f.store, Layout: f.layout, Log: f.log}
	in := empirical.ReportInput{Trait: "trait", Network: "coexpr", Permutations: 3, Format: policy.FormatThreshold}
	rows, err := rep.Report(ctx, in)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	got := make([]float64, 0, len(rows))
	for _, r := range rows {
		got = append(got, r.Threshold)
	}
	assert.Equal(t, []float64{0.05, 0.01, 0.1}, got)
	assert.Equal(t, []int{3, 2, 4}, []int{rows[0].Observed, rows[1].Observed, rows[2].Observed})
}
